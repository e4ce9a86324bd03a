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
	"time"

	"github.com/samber/lo"

	"github.com/noctarius/tablestream/internal/functional"
	"github.com/noctarius/tablestream/internal/logging"
	"github.com/noctarius/tablestream/spi/stream"
)

type Status string

const (
	StatusReady     Status = "ready"
	StatusBuffered  Status = "buffered"
	StatusDuplicate Status = "duplicate"
)

// Result is the outcome of feeding one sequenced payload into the
// tracker. Data is only populated for StatusReady and contains the
// payload together with all now-contiguous buffered payloads in
// ascending sequence order. MissingSequences is only populated for
// StatusBuffered and lists the sequences newly detected as missing.
type Result[T any] struct {
	Status           Status
	Data             []T
	MissingSequences []int
}

// SequenceTracker enforces per-stream delivery order. Out-of-order
// arrivals are buffered up to maxBufferSize entries; detected gaps
// are tracked with one cancellable timer each, trading strict
// ordering for liveness once the gap timeout expires.
type SequenceTracker[T any] struct {
	mutex         sync.Mutex
	expected      int
	maxBufferSize int
	gapTimeout    time.Duration
	buffer        map[int]T
	gapTimers     map[int]*time.Timer
	onRecovered   func(payloads []T)
	closed        bool
	logger        *logging.Logger
}

func NewSequenceTracker[T any](
	startingSequence, maxBufferSize int, gapTimeout time.Duration,
) (*SequenceTracker[T], error) {

	if maxBufferSize <= 0 {
		return nil, stream.NewConfigurationError(
			"sequence tracker buffer size must be positive, got %d", maxBufferSize,
		)
	}
	if gapTimeout <= 0 {
		return nil, stream.NewConfigurationError(
			"sequence tracker gap timeout must be positive, got %s", gapTimeout.String(),
		)
	}

	logger, err := logging.NewLogger("SequenceTracker")
	if err != nil {
		return nil, err
	}

	return &SequenceTracker[T]{
		expected:      startingSequence,
		maxBufferSize: maxBufferSize,
		gapTimeout:    gapTimeout,
		buffer:        make(map[int]T),
		gapTimers:     make(map[int]*time.Timer),
		logger:        logger,
	}, nil
}

// SetRecoveryHandler registers the callback invoked with payloads
// released when a gap timeout unblocks buffered entries. Must be
// set before the first sequenced payload arrives.
func (st *SequenceTracker[T]) SetRecoveryHandler(
	handler func(payloads []T),
) {

	st.mutex.Lock()
	defer st.mutex.Unlock()
	st.onRecovered = handler
}

func (st *SequenceTracker[T]) ProcessSequencedData(
	sequence int, payload T,
) Result[T] {

	st.mutex.Lock()
	defer st.mutex.Unlock()

	if st.closed {
		return Result[T]{Status: StatusDuplicate}
	}

	switch {
	case sequence == st.expected:
		st.cancelGapTimerLocked(sequence)
		st.expected++

		data := append([]T{payload}, st.drainContiguousLocked()...)
		return Result[T]{Status: StatusReady, Data: data}

	case sequence > st.expected:
		// The arrival may fill a gap that is already being tracked
		st.cancelGapTimerLocked(sequence)

		if _, buffered := st.buffer[sequence]; !buffered && len(st.buffer) >= st.maxBufferSize {
			st.evictSmallestLocked()
		}
		st.buffer[sequence] = payload

		newlyMissing := make([]int, 0)
		for s := st.expected; s < sequence; s++ {
			if _, buffered := st.buffer[s]; buffered {
				continue
			}
			if _, tracked := st.gapTimers[s]; tracked {
				continue
			}
			st.armGapTimerLocked(s)
			newlyMissing = append(newlyMissing, s)
		}
		return Result[T]{Status: StatusBuffered, MissingSequences: newlyMissing}

	default:
		return Result[T]{Status: StatusDuplicate}
	}
}

// ForceProcessBuffer drains the entire out-of-order buffer in
// ascending sequence order, cancels every pending gap timer and
// advances the expected sequence past the largest drained key.
// Used at explicit synchronization points, such as the end of a
// snapshot, to guarantee forward progress regardless of
// outstanding gaps.
func (st *SequenceTracker[T]) ForceProcessBuffer() []T {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	keys := functional.Sort(lo.Keys(st.buffer), func(this, other int) bool {
		return this < other
	})

	drained := make([]T, 0, len(keys))
	for _, key := range keys {
		drained = append(drained, st.buffer[key])
	}

	if len(keys) > 0 {
		st.expected = keys[len(keys)-1] + 1
	}

	st.buffer = make(map[int]T)
	st.cancelAllGapTimersLocked()
	return drained
}

func (st *SequenceTracker[T]) Statistics() stream.SequenceTrackerStatistics {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	missing := functional.Sort(lo.Keys(st.gapTimers), func(this, other int) bool {
		return this < other
	})

	return stream.SequenceTrackerStatistics{
		ExpectedSequence: st.expected,
		MissingCount:     len(missing),
		BufferSize:       len(st.buffer),
		MissingSequences: missing,
	}
}

// Reset discards all buffered entries and pending timers and
// rewinds the tracker to the given starting sequence.
func (st *SequenceTracker[T]) Reset(
	startingSequence int,
) {

	st.mutex.Lock()
	defer st.mutex.Unlock()

	st.expected = startingSequence
	st.buffer = make(map[int]T)
	st.cancelAllGapTimersLocked()
}

func (st *SequenceTracker[T]) Close() {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	st.closed = true
	st.buffer = make(map[int]T)
	st.cancelAllGapTimersLocked()
}

func (st *SequenceTracker[T]) drainContiguousLocked() []T {
	drained := make([]T, 0)
	for {
		payload, present := st.buffer[st.expected]
		if !present {
			break
		}
		delete(st.buffer, st.expected)
		st.cancelGapTimerLocked(st.expected)
		drained = append(drained, payload)
		st.expected++
	}
	return drained
}

func (st *SequenceTracker[T]) evictSmallestLocked() {
	smallest := -1
	for key := range st.buffer {
		if smallest == -1 || key < smallest {
			smallest = key
		}
	}
	if smallest != -1 {
		st.logger.Warnf("out-of-order buffer full, evicting sequence %d", smallest)
		delete(st.buffer, smallest)
	}
}

func (st *SequenceTracker[T]) armGapTimerLocked(
	sequence int,
) {

	st.gapTimers[sequence] = time.AfterFunc(st.gapTimeout, func() {
		st.onGapTimeout(sequence)
	})
}

func (st *SequenceTracker[T]) cancelGapTimerLocked(
	sequence int,
) {

	if timer, present := st.gapTimers[sequence]; present {
		timer.Stop()
		delete(st.gapTimers, sequence)
	}
}

func (st *SequenceTracker[T]) cancelAllGapTimersLocked() {
	for sequence, timer := range st.gapTimers {
		timer.Stop()
		delete(st.gapTimers, sequence)
	}
}

func (st *SequenceTracker[T]) onGapTimeout(
	sequence int,
) {

	st.mutex.Lock()
	if st.closed {
		st.mutex.Unlock()
		return
	}
	if _, present := st.gapTimers[sequence]; !present {
		st.mutex.Unlock()
		return
	}
	delete(st.gapTimers, sequence)
	st.logger.Warnf("gap timeout for sequence %d, abandoning", sequence)

	var recovered []T
	if sequence == st.expected {
		st.expected = sequence + 1
		recovered = st.drainContiguousLocked()
	}
	handler := st.onRecovered
	st.mutex.Unlock()

	if len(recovered) > 0 && handler != nil {
		handler(recovered)
	}
}
