/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements. See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License. You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package stream

import (
	"fmt"
	"time"
)

// Record represents a single table row as an opaque mapping of
// column name to value. One designated key column uniquely
// identifies the row within the stream.
type Record map[string]any

// KeyValue returns the stringified value of the given key column.
func (r Record) KeyValue(
	keyColumn string,
) string {

	return fmt.Sprintf("%v", r[keyColumn])
}

// Operation describes the net effect of a row update.
type Operation string

const (
	OperationAdd    Operation = "add"
	OperationUpdate Operation = "update"
	OperationRemove Operation = "remove"
)

// Mode is the lifecycle phase governing how inbound messages
// are classified. Transitions follow idle -> snapshot -> realtime,
// with a refresh resetting back to idle.
type Mode string

const (
	ModeIdle     Mode = "idle"
	ModeSnapshot Mode = "snapshot"
	ModeRealtime Mode = "realtime"
)

// ConnectionStatus reflects the state of the transport connection
// as seen by the data source client.
type ConnectionStatus string

const (
	ConnectionStatusDisconnected ConnectionStatus = "disconnected"
	ConnectionStatusConnecting   ConnectionStatus = "connecting"
	ConnectionStatusConnected    ConnectionStatus = "connected"
	ConnectionStatusError        ConnectionStatus = "error"
	ConnectionStatusReconnecting ConnectionStatus = "reconnecting"
)

// Metadata carries the per-batch attributes delivered by the
// transport, and the aggregate attributes synthesized by the
// drain loop when a batch is emitted to consumers.
type Metadata struct {
	IsSnapshot   bool   `json:"isSnapshot"`
	BatchNumber  *int   `json:"batchNumber,omitempty"`
	IsFirstBatch *bool  `json:"isFirstBatch,omitempty"`
	TotalRows    *int   `json:"totalRows,omitempty"`
	Sequence     *int   `json:"sequence,omitempty"`
	Timestamp    *int64 `json:"timestamp,omitempty"`
}

// Message is the unit of work handed from the ingestion callback
// to the drain loop. It is owned exclusively by the bounded queue
// and the drain loop while in flight, and discarded after
// successful emission or permanent failure.
type Message struct {
	Sequence    int
	Data        []Record
	Metadata    Metadata
	EnqueueTime time.Time
	Attempts    int
}

// ConflationUpdate is a single keyed update fed into the
// conflation store.
type ConflationUpdate struct {
	Data      Record    `json:"data"`
	Operation Operation `json:"operation"`
	Timestamp time.Time `json:"timestamp"`
}

// SnapshotStats summarizes a completed snapshot phase.
type SnapshotStats struct {
	RowCount   int           `json:"rowCount"`
	BatchCount int           `json:"batchCount"`
	Duration   time.Duration `json:"duration"`
}
