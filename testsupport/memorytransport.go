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

package testsupport

import (
	"sync"

	"github.com/noctarius/tablestream/spi/stream"
	"github.com/noctarius/tablestream/spi/transport"
)

// MemoryTransport is a scriptable in-process transport for pipeline
// tests. Tests drive the feed side through the Deliver* methods and
// observe control requests through counters.
type MemoryTransport struct {
	mutex sync.Mutex

	connected bool
	handlers  transport.EventHandlers

	connectError error

	SnapshotRequests int
	RefreshRequests  int
}

func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{}
}

// FailConnect makes the next Connect call return the given error.
func (mt *MemoryTransport) FailConnect(
	err error,
) {

	mt.mutex.Lock()
	defer mt.mutex.Unlock()
	mt.connectError = err
}

func (mt *MemoryTransport) Connect() error {
	mt.mutex.Lock()
	defer mt.mutex.Unlock()
	if mt.connectError != nil {
		err := mt.connectError
		mt.connectError = nil
		return err
	}
	mt.connected = true
	return nil
}

func (mt *MemoryTransport) Close() error {
	mt.mutex.Lock()
	defer mt.mutex.Unlock()
	mt.connected = false
	return nil
}

func (mt *MemoryTransport) AttachEventHandlers(
	handlers transport.EventHandlers,
) {

	mt.mutex.Lock()
	defer mt.mutex.Unlock()
	mt.handlers = handlers
}

func (mt *MemoryTransport) DetachEventHandlers() {
	mt.mutex.Lock()
	defer mt.mutex.Unlock()
	mt.handlers = transport.EventHandlers{}
}

func (mt *MemoryTransport) RequestSnapshot() error {
	mt.mutex.Lock()
	defer mt.mutex.Unlock()
	mt.SnapshotRequests++
	return nil
}

func (mt *MemoryTransport) RequestRefresh() error {
	mt.mutex.Lock()
	defer mt.mutex.Unlock()
	mt.RefreshRequests++
	return nil
}

func (mt *MemoryTransport) Connected() bool {
	mt.mutex.Lock()
	defer mt.mutex.Unlock()
	return mt.connected
}

func (mt *MemoryTransport) DeliverSnapshotBatch(
	records []stream.Record,
) {

	handlers := mt.currentHandlers()
	if handlers.OnBatch != nil {
		handlers.OnBatch(0, records, stream.Metadata{IsSnapshot: true})
	}
}

func (mt *MemoryTransport) DeliverRealtimeBatch(
	sequence int, records []stream.Record,
) {

	handlers := mt.currentHandlers()
	if handlers.OnBatch != nil {
		handlers.OnBatch(sequence, records, stream.Metadata{IsSnapshot: false})
	}
}

func (mt *MemoryTransport) SignalSnapshotComplete(
	totalRows int,
) {

	handlers := mt.currentHandlers()
	if handlers.OnSnapshotComplete != nil {
		handlers.OnSnapshotComplete(totalRows)
	}
}

func (mt *MemoryTransport) SignalRefreshStarted() {
	handlers := mt.currentHandlers()
	if handlers.OnRefreshStarted != nil {
		handlers.OnRefreshStarted()
	}
}

func (mt *MemoryTransport) SignalRefreshComplete() {
	handlers := mt.currentHandlers()
	if handlers.OnRefreshComplete != nil {
		handlers.OnRefreshComplete()
	}
}

func (mt *MemoryTransport) SignalConnectionStatus(
	status stream.ConnectionStatus,
) {

	handlers := mt.currentHandlers()
	if handlers.OnConnectionStatus != nil {
		handlers.OnConnectionStatus(status)
	}
}

func (mt *MemoryTransport) currentHandlers() transport.EventHandlers {
	mt.mutex.Lock()
	defer mt.mutex.Unlock()
	return mt.handlers
}
