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

package forwarder

import (
	"github.com/noctarius/tablestream/spi/config"
	"github.com/noctarius/tablestream/spi/stream"
)

// Pipeline is the downstream-facing surface of the streaming
// pipeline a forwarder attaches to. Subscription methods return an
// opaque token for later unsubscription.
type Pipeline interface {
	OnData(handler func(records []stream.Record, metadata stream.Metadata)) (string, error)
	OnConflatedBatch(handler func(updates []stream.ConflationUpdate)) (string, error)
	Unsubscribe(token string)
	Snapshot() []stream.Record
}

type Provider = func(config *config.Config, pipeline Pipeline) (Forwarder, error)

// Forwarder relays pipeline output to an external system, such as
// a message broker or plain stdout.
type Forwarder interface {
	Start() error
	Stop() error
}
