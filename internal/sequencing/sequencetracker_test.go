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

package sequencing

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_SequenceTracker_InOrder_Arrivals(t *testing.T) {
	tracker, err := NewSequenceTracker[string](1, 100, time.Second*5)
	require.NoError(t, err)
	defer tracker.Close()

	result := tracker.ProcessSequencedData(1, "one")
	assert.Equal(t, StatusReady, result.Status)
	assert.Equal(t, []string{"one"}, result.Data)

	result = tracker.ProcessSequencedData(2, "two")
	assert.Equal(t, StatusReady, result.Status)
	assert.Equal(t, []string{"two"}, result.Data)

	result = tracker.ProcessSequencedData(3, "three")
	assert.Equal(t, StatusReady, result.Status)
	assert.Equal(t, []string{"three"}, result.Data)

	stats := tracker.Statistics()
	assert.Equal(t, 4, stats.ExpectedSequence)
	assert.Equal(t, 0, stats.MissingCount)
	assert.Equal(t, 0, stats.BufferSize)
}

func Test_SequenceTracker_OutOfOrder_Reordering(t *testing.T) {
	tracker, err := NewSequenceTracker[string](1, 100, time.Second*5)
	require.NoError(t, err)
	defer tracker.Close()

	result := tracker.ProcessSequencedData(1, "one")
	assert.Equal(t, StatusReady, result.Status)

	result = tracker.ProcessSequencedData(3, "three")
	assert.Equal(t, StatusBuffered, result.Status)
	assert.Equal(t, []int{2}, result.MissingSequences)

	result = tracker.ProcessSequencedData(2, "two")
	assert.Equal(t, StatusReady, result.Status)
	assert.Equal(t, []string{"two", "three"}, result.Data)

	stats := tracker.Statistics()
	assert.Equal(t, 4, stats.ExpectedSequence)
	assert.Equal(t, 0, stats.MissingCount)
	assert.Equal(t, 0, stats.BufferSize)
}

func Test_SequenceTracker_Duplicate_Detection(t *testing.T) {
	tracker, err := NewSequenceTracker[string](1, 100, time.Second*5)
	require.NoError(t, err)
	defer tracker.Close()

	tracker.ProcessSequencedData(1, "one")
	tracker.ProcessSequencedData(2, "two")

	result := tracker.ProcessSequencedData(1, "one again")
	assert.Equal(t, StatusDuplicate, result.Status)
	assert.Nil(t, result.Data)

	stats := tracker.Statistics()
	assert.Equal(t, 3, stats.ExpectedSequence)
}

func Test_SequenceTracker_Gap_Timeout_Advances(t *testing.T) {
	tracker, err := NewSequenceTracker[string](1, 100, time.Millisecond*50)
	require.NoError(t, err)
	defer tracker.Close()

	recoveredMutex := sync.Mutex{}
	recovered := make([]string, 0)
	tracker.SetRecoveryHandler(func(payloads []string) {
		recoveredMutex.Lock()
		defer recoveredMutex.Unlock()
		recovered = append(recovered, payloads...)
	})

	// Sequence 1 never arrives
	result := tracker.ProcessSequencedData(2, "two")
	assert.Equal(t, StatusBuffered, result.Status)
	assert.Equal(t, []int{1}, result.MissingSequences)

	require.Eventually(t, func() bool {
		recoveredMutex.Lock()
		defer recoveredMutex.Unlock()
		return len(recovered) == 1
	}, time.Second, time.Millisecond*10)

	recoveredMutex.Lock()
	assert.Equal(t, []string{"two"}, recovered)
	recoveredMutex.Unlock()

	stats := tracker.Statistics()
	assert.Equal(t, 3, stats.ExpectedSequence)
	assert.Equal(t, 0, stats.MissingCount)
	assert.Equal(t, 0, stats.BufferSize)
}

func Test_SequenceTracker_ForceProcessBuffer(t *testing.T) {
	tracker, err := NewSequenceTracker[string](1, 100, time.Second*5)
	require.NoError(t, err)
	defer tracker.Close()

	tracker.ProcessSequencedData(5, "five")
	tracker.ProcessSequencedData(3, "three")
	tracker.ProcessSequencedData(8, "eight")

	stats := tracker.Statistics()
	assert.Equal(t, 3, stats.BufferSize)
	assert.True(t, stats.MissingCount > 0)

	drained := tracker.ForceProcessBuffer()
	assert.Equal(t, []string{"three", "five", "eight"}, drained)

	stats = tracker.Statistics()
	assert.Equal(t, 9, stats.ExpectedSequence)
	assert.Equal(t, 0, stats.MissingCount)
	assert.Equal(t, 0, stats.BufferSize)
	assert.Empty(t, stats.MissingSequences)
}

func Test_SequenceTracker_Buffer_Eviction(t *testing.T) {
	tracker, err := NewSequenceTracker[string](1, 2, time.Second*5)
	require.NoError(t, err)
	defer tracker.Close()

	tracker.ProcessSequencedData(3, "three")
	tracker.ProcessSequencedData(5, "five")

	// Buffer is at capacity, the numerically smallest entry goes first
	tracker.ProcessSequencedData(7, "seven")

	stats := tracker.Statistics()
	assert.Equal(t, 2, stats.BufferSize)

	drained := tracker.ForceProcessBuffer()
	assert.Equal(t, []string{"five", "seven"}, drained)
}

func Test_SequenceTracker_Reset(t *testing.T) {
	tracker, err := NewSequenceTracker[string](1, 100, time.Second*5)
	require.NoError(t, err)
	defer tracker.Close()

	tracker.ProcessSequencedData(1, "one")
	tracker.ProcessSequencedData(5, "five")

	tracker.Reset(100)

	stats := tracker.Statistics()
	assert.Equal(t, 100, stats.ExpectedSequence)
	assert.Equal(t, 0, stats.MissingCount)
	assert.Equal(t, 0, stats.BufferSize)

	result := tracker.ProcessSequencedData(100, "hundred")
	assert.Equal(t, StatusReady, result.Status)
}
