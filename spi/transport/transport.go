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

package transport

import (
	"github.com/noctarius/tablestream/spi/config"
	"github.com/noctarius/tablestream/spi/stream"
)

type Provider = func(config *config.Config) (Transport, error)

// EventHandlers bundles the callbacks a transport invokes while
// connected. Handlers not set are simply skipped.
type EventHandlers struct {
	OnConnectionStatus func(status stream.ConnectionStatus)
	OnBatch            func(sequence int, records []stream.Record, metadata stream.Metadata)
	OnSnapshotComplete func(totalRows int)
	OnRefreshStarted   func()
	OnRefreshComplete  func()
}

// Transport is the feed-facing side of the pipeline. Implementations
// connect to the upstream data source, deliver incoming batches
// through the attached EventHandlers and accept control requests
// for snapshots and refreshes.
type Transport interface {
	Connect() error
	Close() error
	AttachEventHandlers(handlers EventHandlers)
	DetachEventHandlers()
	RequestSnapshot() error
	RequestRefresh() error
}
