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

package conflation

import (
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/noctarius/tablestream/internal/logging"
	"github.com/noctarius/tablestream/spi/stream"
)

const rateWindowSlots = 10

// Metrics is the read-only metrics export of a conflation store.
type Metrics struct {
	UpdatesReceived  int64   `json:"updatesReceived"`
	UpdatesApplied   int64   `json:"updatesApplied"`
	UpdatesConflated int64   `json:"updatesConflated"`
	CurrentRate      float64 `json:"currentRate"`
	AverageRate      float64 `json:"averageRate"`
	ConflationRate   float64 `json:"conflationRate"`
}

type BatchHandler func(applied []stream.ConflationUpdate)

type MetricsHandler func(metrics Metrics)

// Store maintains the authoritative keyed snapshot of the latest
// row state and collapses bursts of updates to the same key within
// a debounce window. Consumers observe the monotonically-latest
// value per key with bounded emission frequency.
//
// The pending list doubles as a hard flush trigger: once it reaches
// maxBatchSize the store flushes immediately instead of re-arming
// the debounce timer, so sustained sub-window arrival rates cannot
// defer flushing indefinitely.
type Store struct {
	mutex sync.Mutex

	keyColumn      string
	window         time.Duration
	maxBatchSize   int
	metricsEnabled bool

	pending       []stream.ConflationUpdate
	snapshot      map[string]stream.Record
	snapshotOrder []string

	flushTimer *time.Timer
	destroyed  bool

	batchHandler   BatchHandler
	metricsHandler MetricsHandler

	updatesReceived  int64
	updatesApplied   int64
	updatesConflated int64
	currentRate      float64
	rateWindow       []float64
	sinceRateSample  int64
	lastRateSample   time.Time

	logger *logging.Logger
}

func NewStore(
	keyColumn string, window time.Duration, maxBatchSize int, enableMetrics bool,
) (*Store, error) {

	if keyColumn == "" {
		return nil, stream.NewConfigurationError("conflation store needs a key column")
	}
	if window <= 0 {
		return nil, stream.NewConfigurationError(
			"conflation window must be positive, got %s", window.String(),
		)
	}
	if maxBatchSize <= 0 {
		return nil, stream.NewConfigurationError(
			"conflation max batch size must be positive, got %d", maxBatchSize,
		)
	}

	logger, err := logging.NewLogger("ConflationStore")
	if err != nil {
		return nil, err
	}

	return &Store{
		keyColumn:      keyColumn,
		window:         window,
		maxBatchSize:   maxBatchSize,
		metricsEnabled: enableMetrics,
		pending:        make([]stream.ConflationUpdate, 0),
		snapshot:       make(map[string]stream.Record),
		snapshotOrder:  make([]string, 0),
		rateWindow:     make([]float64, 0, rateWindowSlots),
		lastRateSample: time.Now(),
		logger:         logger,
	}, nil
}

// OnBatch registers the handler invoked with the applied updates
// of every flush cycle.
func (s *Store) OnBatch(
	handler BatchHandler,
) {

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.batchHandler = handler
}

// OnMetrics registers the handler invoked with a metrics snapshot
// after every flush cycle, if metrics are enabled.
func (s *Store) OnMetrics(
	handler MetricsHandler,
) {

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.metricsHandler = handler
}

func (s *Store) AddUpdate(
	update stream.ConflationUpdate,
) {

	s.mutex.Lock()
	if s.destroyed {
		s.mutex.Unlock()
		return
	}

	s.pending = append(s.pending, update)
	s.updatesReceived++
	s.sinceRateSample++
	s.sampleRateLocked()

	if len(s.pending) >= s.maxBatchSize {
		s.cancelFlushTimerLocked()
		applied, metrics := s.flushLocked()
		batchHandler, metricsHandler := s.batchHandler, s.metricsHandler
		s.mutex.Unlock()

		s.dispatchFlush(applied, metrics, batchHandler, metricsHandler)
		return
	}

	// Debounce: the window restarts with every arrival
	s.cancelFlushTimerLocked()
	s.flushTimer = time.AfterFunc(s.window, s.flush)
	s.mutex.Unlock()
}

// SetSnapshot replaces the authoritative snapshot, discarding all
// pending updates and the running flush window.
func (s *Store) SetSnapshot(
	records []stream.Record,
) {

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.destroyed {
		return
	}

	s.cancelFlushTimerLocked()
	s.pending = s.pending[:0]
	s.snapshot = make(map[string]stream.Record, len(records))
	s.snapshotOrder = make([]string, 0, len(records))

	for _, record := range records {
		key := record.KeyValue(s.keyColumn)
		if _, present := s.snapshot[key]; !present {
			s.snapshotOrder = append(s.snapshotOrder, key)
		}
		s.snapshot[key] = record
	}
}

// Snapshot returns the current authoritative state in insertion
// order.
func (s *Store) Snapshot() []stream.Record {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return lo.Map(s.snapshotOrder, func(key string, _ int) stream.Record {
		return s.snapshot[key]
	})
}

func (s *Store) Metrics() Metrics {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.metricsLocked()
}

func (s *Store) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.cancelFlushTimerLocked()
	s.pending = s.pending[:0]
	s.snapshot = make(map[string]stream.Record)
	s.snapshotOrder = s.snapshotOrder[:0]
}

// Destroy stops the flush timer and renders the store inert. It is
// safe to call multiple times.
func (s *Store) Destroy() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.destroyed = true
	s.cancelFlushTimerLocked()
	s.pending = s.pending[:0]
}

func (s *Store) flush() {
	s.mutex.Lock()
	if s.destroyed {
		s.mutex.Unlock()
		return
	}
	applied, metrics := s.flushLocked()
	batchHandler, metricsHandler := s.batchHandler, s.metricsHandler
	s.mutex.Unlock()

	s.dispatchFlush(applied, metrics, batchHandler, metricsHandler)
}

func (s *Store) flushLocked() ([]stream.ConflationUpdate, Metrics) {
	if len(s.pending) == 0 {
		return nil, s.metricsLocked()
	}

	// Conflation pass: keep only the latest entry per key in
	// arrival order, cancelling add+remove pairs that never
	// became visible
	keyOrder := make([]string, 0, len(s.pending))
	kept := make(map[string]stream.ConflationUpdate, len(s.pending))
	seen := make(map[string]int, len(s.pending))

	for _, update := range s.pending {
		key := update.Data.KeyValue(s.keyColumn)
		seen[key]++

		previous, present := kept[key]
		if present &&
			update.Operation == stream.OperationRemove &&
			previous.Operation == stream.OperationAdd {

			delete(kept, key)
			keyOrder = lo.Without(keyOrder, key)
			continue
		}

		if !present {
			keyOrder = append(keyOrder, key)
		}
		kept[key] = update
	}

	for _, count := range seen {
		if count > 1 {
			s.updatesConflated++
		}
	}

	applied := make([]stream.ConflationUpdate, 0, len(keyOrder))
	for _, key := range keyOrder {
		update := kept[key]
		switch update.Operation {
		case stream.OperationRemove:
			if _, present := s.snapshot[key]; present {
				delete(s.snapshot, key)
				s.snapshotOrder = lo.Without(s.snapshotOrder, key)
			}
		default:
			if _, present := s.snapshot[key]; !present {
				s.snapshotOrder = append(s.snapshotOrder, key)
			}
			s.snapshot[key] = update.Data
		}
		applied = append(applied, update)
	}

	s.updatesApplied += int64(len(applied))
	s.pending = s.pending[:0]

	return applied, s.metricsLocked()
}

func (s *Store) dispatchFlush(
	applied []stream.ConflationUpdate, metrics Metrics,
	batchHandler BatchHandler, metricsHandler MetricsHandler,
) {

	if len(applied) > 0 && batchHandler != nil {
		batchHandler(applied)
	}
	if s.metricsEnabled && metricsHandler != nil {
		metricsHandler(metrics)
	}
}

func (s *Store) sampleRateLocked() {
	now := time.Now()
	elapsed := now.Sub(s.lastRateSample)
	if elapsed < time.Second {
		return
	}

	s.currentRate = float64(s.sinceRateSample) / elapsed.Seconds()
	if len(s.rateWindow) == rateWindowSlots {
		s.rateWindow = s.rateWindow[1:]
	}
	s.rateWindow = append(s.rateWindow, s.currentRate)
	s.sinceRateSample = 0
	s.lastRateSample = now
}

func (s *Store) metricsLocked() Metrics {
	averageRate := float64(0)
	if len(s.rateWindow) > 0 {
		averageRate = lo.Sum(s.rateWindow) / float64(len(s.rateWindow))
	}

	conflationRate := float64(0)
	if s.updatesReceived > 0 {
		conflationRate = float64(s.updatesConflated) * 100 / float64(s.updatesReceived)
	}

	return Metrics{
		UpdatesReceived:  s.updatesReceived,
		UpdatesApplied:   s.updatesApplied,
		UpdatesConflated: s.updatesConflated,
		CurrentRate:      s.currentRate,
		AverageRate:      averageRate,
		ConflationRate:   conflationRate,
	}
}

func (s *Store) cancelFlushTimerLocked() {
	if s.flushTimer != nil {
		s.flushTimer.Stop()
		s.flushTimer = nil
	}
}
