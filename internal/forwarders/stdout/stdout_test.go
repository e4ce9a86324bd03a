package stdout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	spiconfig "github.com/noctarius/tablestream/spi/config"
	"github.com/noctarius/tablestream/spi/stream"
)

type noopPipeline struct {
}

func (np *noopPipeline) OnData(
	_ func(records []stream.Record, metadata stream.Metadata),
) (string, error) {

	return "token", nil
}

func (np *noopPipeline) OnConflatedBatch(
	_ func(updates []stream.ConflationUpdate),
) (string, error) {

	return "token", nil
}

func (np *noopPipeline) Unsubscribe(_ string) {
}

func (np *noopPipeline) Snapshot() []stream.Record {
	return nil
}

func Test_Stdout_Forwarder_Honors_Pretty(t *testing.T) {
	c := &spiconfig.Config{}
	c.Forwarders.Stdout.Pretty = true

	f, err := newStdoutForwarder(c, &noopPipeline{})
	require.NoError(t, err)

	forwarder := f.(*stdoutForwarder)
	assert.True(t, forwarder.pretty)

	assert.NotPanics(t, func() {
		forwarder.onData(
			[]stream.Record{{"id": "a", "price": 1}}, stream.Metadata{IsSnapshot: false},
		)
	})
}

func Test_Stdout_Forwarder_Compact_By_Default(t *testing.T) {
	f, err := newStdoutForwarder(&spiconfig.Config{}, &noopPipeline{})
	require.NoError(t, err)

	forwarder := f.(*stdoutForwarder)
	assert.False(t, forwarder.pretty)
}
