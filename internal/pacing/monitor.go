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
	"sync"
	"time"

	"github.com/noctarius/tablestream/spi/stream"
)

const (
	movingWindowSize   = 10
	throughputHorizon  = 60
	slowCycleThreshold = time.Millisecond * 100
	fastCycleThreshold = time.Millisecond * 20
	highDepthThreshold = 5000
	lowDepthThreshold  = 1000
)

// Monitor observes drain cycle latency and queue depth and adapts
// the suggested batch size between the configured bounds. The
// feedback loop shrinks the batch by 20% when cycles run slow or
// the queue backs up, and grows it by 20% when there is headroom.
type Monitor struct {
	mutex sync.Mutex

	minBatchSize     int
	maxBatchSize     int
	initialBatchSize int
	suggested        int

	durations *movingWindow
	depths    *movingWindow

	messagesProcessed int64
	perSecondCounts   [throughputHorizon]int64
	perSecondStamps   [throughputHorizon]int64
}

func NewMonitor(
	minBatchSize, maxBatchSize, initialBatchSize int,
) (*Monitor, error) {

	if minBatchSize <= 0 || maxBatchSize < minBatchSize {
		return nil, stream.NewConfigurationError(
			"invalid batch size bounds [%d..%d]", minBatchSize, maxBatchSize,
		)
	}
	if initialBatchSize < minBatchSize || initialBatchSize > maxBatchSize {
		return nil, stream.NewConfigurationError(
			"initial batch size %d outside bounds [%d..%d]",
			initialBatchSize, minBatchSize, maxBatchSize,
		)
	}

	return &Monitor{
		minBatchSize:     minBatchSize,
		maxBatchSize:     maxBatchSize,
		initialBatchSize: initialBatchSize,
		suggested:        initialBatchSize,
		durations:        newMovingWindow(movingWindowSize),
		depths:           newMovingWindow(movingWindowSize),
	}, nil
}

// RecordProcessing is called once per drain cycle with the cycle
// start time, the number of items processed and the queue depth
// observed after the cycle.
func (m *Monitor) RecordProcessing(
	start time.Time, itemCount, queueDepth int,
) {

	now := time.Now()
	duration := now.Sub(start)

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.messagesProcessed += int64(itemCount)
	m.durations.push(float64(duration))
	m.depths.push(float64(queueDepth))

	second := now.Unix()
	slot := second % throughputHorizon
	if m.perSecondStamps[slot] != second {
		m.perSecondStamps[slot] = second
		m.perSecondCounts[slot] = 0
	}
	m.perSecondCounts[slot] += int64(itemCount)

	m.adjustBatchSizeLocked()
}

func (m *Monitor) SuggestedBatchSize() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.suggested
}

func (m *Monitor) Statistics() stream.PerformanceStatistics {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	perMinute := int64(0)
	horizon := time.Now().Unix() - throughputHorizon
	for slot := 0; slot < throughputHorizon; slot++ {
		if m.perSecondStamps[slot] > horizon {
			perMinute += m.perSecondCounts[slot]
		}
	}

	return stream.PerformanceStatistics{
		MessagesProcessed:   m.messagesProcessed,
		AvgProcessingTime:   time.Duration(m.durations.average()),
		AvgQueueDepth:       m.depths.average(),
		ThroughputPerSecond: float64(perMinute) / throughputHorizon,
		ThroughputPerMinute: float64(perMinute),
		SuggestedBatchSize:  m.suggested,
	}
}

// Reset restores the monitor to its initial state, discarding all
// recorded samples.
func (m *Monitor) Reset() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.suggested = m.initialBatchSize
	m.durations = newMovingWindow(movingWindowSize)
	m.depths = newMovingWindow(movingWindowSize)
	m.messagesProcessed = 0
	m.perSecondCounts = [throughputHorizon]int64{}
	m.perSecondStamps = [throughputHorizon]int64{}
}

func (m *Monitor) adjustBatchSizeLocked() {
	avgDuration := time.Duration(m.durations.average())
	avgDepth := m.depths.average()

	if avgDuration > slowCycleThreshold || avgDepth > highDepthThreshold {
		shrunk := m.suggested * 8 / 10
		if shrunk == m.suggested {
			shrunk--
		}
		if shrunk < m.minBatchSize {
			shrunk = m.minBatchSize
		}
		m.suggested = shrunk
	} else if avgDuration < fastCycleThreshold && avgDepth < lowDepthThreshold {
		grown := m.suggested * 12 / 10
		if grown == m.suggested {
			grown++
		}
		if grown > m.maxBatchSize {
			grown = m.maxBatchSize
		}
		m.suggested = grown
	}
}

type movingWindow struct {
	samples []float64
	next    int
	filled  int
}

func newMovingWindow(
	size int,
) *movingWindow {

	return &movingWindow{
		samples: make([]float64, size),
	}
}

func (w *movingWindow) push(
	sample float64,
) {

	w.samples[w.next] = sample
	w.next = (w.next + 1) % len(w.samples)
	if w.filled < len(w.samples) {
		w.filled++
	}
}

func (w *movingWindow) average() float64 {
	if w.filled == 0 {
		return 0
	}
	sum := float64(0)
	for i := 0; i < w.filled; i++ {
		sum += w.samples[i]
	}
	return sum / float64(w.filled)
}
