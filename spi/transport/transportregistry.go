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
	"sync"

	"github.com/go-errors/errors"

	"github.com/noctarius/tablestream/spi/config"
)

var transportRegistry *registry

func init() {
	transportRegistry = &registry{
		mutex:     sync.Mutex{},
		providers: make(map[config.TransportType]Provider),
	}
}

type registry struct {
	mutex     sync.Mutex
	providers map[config.TransportType]Provider
}

// RegisterTransport registers a config.TransportType to a Provider
// implementation which creates the Transport when requested
func RegisterTransport(name config.TransportType, provider Provider) bool {
	transportRegistry.mutex.Lock()
	defer transportRegistry.mutex.Unlock()
	if _, present := transportRegistry.providers[name]; !present {
		transportRegistry.providers[name] = provider
		return true
	}
	return false
}

// NewTransport instantiates a new instance of the requested
// Transport when available, otherwise returns an error.
func NewTransport(name config.TransportType, config *config.Config) (Transport, error) {
	transportRegistry.mutex.Lock()
	defer transportRegistry.mutex.Unlock()
	if p, present := transportRegistry.providers[name]; present {
		return p(config)
	}
	return nil, errors.Errorf("TransportType '%s' doesn't exist", name)
}
