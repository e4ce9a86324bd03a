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

package waiting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Waiter_Signal_Await(t *testing.T) {
	waiter := NewWaiter()

	go func() {
		time.Sleep(time.Millisecond * 20)
		waiter.Signal()
	}()

	require.NoError(t, waiter.Await())
}

func Test_Waiter_Timeout(t *testing.T) {
	waiter := NewWaiterWithTimeout(time.Millisecond * 50)

	err := waiter.Await()
	assert.ErrorIs(t, err, ErrWaiterTimeout)
}

func Test_Waiter_Timeout_Signal_Wins(t *testing.T) {
	waiter := NewWaiterWithTimeout(time.Second * 5)

	waiter.Signal()
	require.NoError(t, waiter.Await())
}

func Test_Waiter_Reset_Rearms_Timeout(t *testing.T) {
	waiter := NewWaiterWithTimeout(time.Millisecond * 100)

	time.Sleep(time.Millisecond * 60)
	waiter.Reset()

	start := time.Now()
	err := waiter.Await()
	assert.ErrorIs(t, err, ErrWaiterTimeout)

	// The reset re-armed the full window, the original deadline
	// would have expired after 40ms
	assert.GreaterOrEqual(t, time.Since(start), time.Millisecond*80)
}
