package encoding

import (
	"github.com/noctarius/tablestream/spi/stream"
)

// FeedEnvelope is the wire representation of one sequenced batch
// on the feed channel.
type FeedEnvelope struct {
	Sequence int             `json:"sequence"`
	Records  []stream.Record `json:"records"`
	Metadata stream.Metadata `json:"metadata"`
}

// ControlAction names the operations a pipeline can request from
// the upstream data source on the control channel.
type ControlAction string

const (
	ControlActionSnapshot ControlAction = "snapshot"
	ControlActionRefresh  ControlAction = "refresh"
)

// ControlEnvelope is the wire representation of a control channel
// request or acknowledgment.
type ControlEnvelope struct {
	Action    ControlAction `json:"action"`
	TotalRows *int          `json:"totalRows,omitempty"`
	Complete  bool          `json:"complete,omitempty"`
}
