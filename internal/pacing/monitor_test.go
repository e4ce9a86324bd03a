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

package pacing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Monitor_Invalid_Bounds(t *testing.T) {
	_, err := NewMonitor(0, 100, 50)
	assert.Error(t, err)

	_, err = NewMonitor(100, 10, 50)
	assert.Error(t, err)

	_, err = NewMonitor(10, 100, 500)
	assert.Error(t, err)
}

func Test_Monitor_Shrinks_On_Slow_Cycles(t *testing.T) {
	monitor, err := NewMonitor(10, 1000, 100)
	require.NoError(t, err)

	previous := monitor.SuggestedBatchSize()
	for i := 0; i < 10; i++ {
		// Simulated 150ms cycle duration
		monitor.RecordProcessing(time.Now().Add(-time.Millisecond*150), 100, 0)

		suggested := monitor.SuggestedBatchSize()
		assert.LessOrEqual(t, suggested, previous)
		assert.GreaterOrEqual(t, suggested, 10)
		previous = suggested
	}
	assert.Less(t, previous, 100)
}

func Test_Monitor_Never_Shrinks_Below_Floor(t *testing.T) {
	monitor, err := NewMonitor(10, 1000, 20)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		monitor.RecordProcessing(time.Now().Add(-time.Millisecond*150), 100, 0)
	}
	assert.Equal(t, 10, monitor.SuggestedBatchSize())
}

func Test_Monitor_Grows_On_Fast_Cycles(t *testing.T) {
	monitor, err := NewMonitor(10, 1000, 100)
	require.NoError(t, err)

	previous := monitor.SuggestedBatchSize()
	for i := 0; i < 10; i++ {
		// Simulated 10ms cycle duration, empty queue
		monitor.RecordProcessing(time.Now().Add(-time.Millisecond*10), 100, 0)

		suggested := monitor.SuggestedBatchSize()
		assert.GreaterOrEqual(t, suggested, previous)
		assert.LessOrEqual(t, suggested, 1000)
		previous = suggested
	}
	assert.Greater(t, previous, 100)
}

func Test_Monitor_Never_Grows_Above_Ceiling(t *testing.T) {
	monitor, err := NewMonitor(10, 200, 100)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		monitor.RecordProcessing(time.Now().Add(-time.Millisecond*10), 100, 0)
	}
	assert.Equal(t, 200, monitor.SuggestedBatchSize())
}

func Test_Monitor_Shrinks_On_High_Queue_Depth(t *testing.T) {
	monitor, err := NewMonitor(10, 1000, 100)
	require.NoError(t, err)

	// Fast cycles but deep queue, depth wins
	for i := 0; i < 10; i++ {
		monitor.RecordProcessing(time.Now().Add(-time.Millisecond*10), 100, 6000)
	}
	assert.Less(t, monitor.SuggestedBatchSize(), 100)
}

func Test_Monitor_Holds_In_Between(t *testing.T) {
	monitor, err := NewMonitor(10, 1000, 100)
	require.NoError(t, err)

	// 50ms cycles with moderate depth hit neither threshold
	for i := 0; i < 10; i++ {
		monitor.RecordProcessing(time.Now().Add(-time.Millisecond*50), 100, 2000)
	}
	assert.Equal(t, 100, monitor.SuggestedBatchSize())
}

func Test_Monitor_Statistics_And_Reset(t *testing.T) {
	monitor, err := NewMonitor(10, 1000, 100)
	require.NoError(t, err)

	monitor.RecordProcessing(time.Now().Add(-time.Millisecond*50), 42, 7)
	monitor.RecordProcessing(time.Now().Add(-time.Millisecond*50), 8, 3)

	stats := monitor.Statistics()
	assert.Equal(t, int64(50), stats.MessagesProcessed)
	assert.Equal(t, float64(5), stats.AvgQueueDepth)
	assert.Equal(t, float64(50), stats.ThroughputPerMinute)
	assert.True(t, stats.AvgProcessingTime > 0)

	monitor.Reset()

	stats = monitor.Statistics()
	assert.Equal(t, int64(0), stats.MessagesProcessed)
	assert.Equal(t, 100, stats.SuggestedBatchSize)
	assert.Equal(t, float64(0), stats.ThroughputPerMinute)
}
