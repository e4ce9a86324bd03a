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
	"sync"

	"github.com/go-errors/errors"

	"github.com/noctarius/tablestream/spi/config"
)

var forwarderRegistry *registry

func init() {
	forwarderRegistry = &registry{
		mutex:     sync.Mutex{},
		providers: make(map[config.ForwarderType]Provider),
	}
}

type registry struct {
	mutex     sync.Mutex
	providers map[config.ForwarderType]Provider
}

// RegisterForwarder registers a config.ForwarderType to a Provider
// implementation which creates the Forwarder when requested
func RegisterForwarder(name config.ForwarderType, provider Provider) bool {
	forwarderRegistry.mutex.Lock()
	defer forwarderRegistry.mutex.Unlock()
	if _, present := forwarderRegistry.providers[name]; !present {
		forwarderRegistry.providers[name] = provider
		return true
	}
	return false
}

// NewForwarder instantiates a new instance of the requested
// Forwarder when available, otherwise returns an error.
func NewForwarder(
	name config.ForwarderType, config *config.Config, pipeline Pipeline,
) (Forwarder, error) {

	forwarderRegistry.mutex.Lock()
	defer forwarderRegistry.mutex.Unlock()
	if p, present := forwarderRegistry.providers[name]; present {
		return p(config, pipeline)
	}
	return nil, errors.Errorf("ForwarderType '%s' doesn't exist", name)
}
