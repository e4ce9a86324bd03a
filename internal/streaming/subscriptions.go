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

package streaming

import (
	"sync"

	"github.com/hashicorp/go-uuid"
	"github.com/samber/lo"
)

// subscriberList is an observer registry handing out opaque uuid
// tokens for unsubscription.
type subscriberList[H any] struct {
	mutex    sync.Mutex
	handlers map[string]H
}

func newSubscriberList[H any]() *subscriberList[H] {
	return &subscriberList[H]{
		handlers: make(map[string]H),
	}
}

func (sl *subscriberList[H]) subscribe(
	handler H,
) (string, error) {

	token, err := uuid.GenerateUUID()
	if err != nil {
		return "", err
	}

	sl.mutex.Lock()
	defer sl.mutex.Unlock()
	sl.handlers[token] = handler
	return token, nil
}

func (sl *subscriberList[H]) unsubscribe(
	token string,
) {

	sl.mutex.Lock()
	defer sl.mutex.Unlock()
	delete(sl.handlers, token)
}

func (sl *subscriberList[H]) snapshot() []H {
	sl.mutex.Lock()
	defer sl.mutex.Unlock()
	return lo.Values(sl.handlers)
}
