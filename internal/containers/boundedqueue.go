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

package containers

import (
	"sync"

	"github.com/noctarius/tablestream/internal/functional"
	"github.com/noctarius/tablestream/spi/stream"
)

// BoundedQueue is a fixed-capacity circular buffer acting as the
// handoff point between the ingestion callback (producer) and the
// drain loop (consumer). All operations are O(1) and non-blocking;
// a failed push never overwrites and leaves the backpressure
// decision to the caller.
type BoundedQueue[E any] struct {
	mutex    sync.Mutex
	items    []E
	head     int
	size     int
	capacity int
}

func NewBoundedQueue[E any](
	capacity int,
) (*BoundedQueue[E], error) {

	if capacity <= 0 {
		return nil, stream.NewConfigurationError(
			"bounded queue capacity must be positive, got %d", capacity,
		)
	}
	return &BoundedQueue[E]{
		items:    make([]E, capacity),
		capacity: capacity,
	}, nil
}

// Push appends the item at the tail. Returns false if the queue
// is full.
func (bq *BoundedQueue[E]) Push(
	item E,
) bool {

	bq.mutex.Lock()
	defer bq.mutex.Unlock()

	if bq.size == bq.capacity {
		return false
	}
	bq.items[(bq.head+bq.size)%bq.capacity] = item
	bq.size++
	return true
}

// PushFront re-inserts the item at the head, ahead of everything
// already queued. Used for retry requeueing to preserve ordering.
// Returns false if the queue is full.
func (bq *BoundedQueue[E]) PushFront(
	item E,
) bool {

	bq.mutex.Lock()
	defer bq.mutex.Unlock()

	if bq.size == bq.capacity {
		return false
	}
	bq.head = (bq.head - 1 + bq.capacity) % bq.capacity
	bq.items[bq.head] = item
	bq.size++
	return true
}

func (bq *BoundedQueue[E]) Pop() (E, bool) {
	bq.mutex.Lock()
	defer bq.mutex.Unlock()

	if bq.size == 0 {
		return functional.Zero[E](), false
	}
	item := bq.items[bq.head]
	bq.items[bq.head] = functional.Zero[E]()
	bq.head = (bq.head + 1) % bq.capacity
	bq.size--
	return item, true
}

func (bq *BoundedQueue[E]) Peek() (E, bool) {
	bq.mutex.Lock()
	defer bq.mutex.Unlock()

	if bq.size == 0 {
		return functional.Zero[E](), false
	}
	return bq.items[bq.head], true
}

func (bq *BoundedQueue[E]) IsEmpty() bool {
	bq.mutex.Lock()
	defer bq.mutex.Unlock()
	return bq.size == 0
}

func (bq *BoundedQueue[E]) IsFull() bool {
	bq.mutex.Lock()
	defer bq.mutex.Unlock()
	return bq.size == bq.capacity
}

func (bq *BoundedQueue[E]) Size() int {
	bq.mutex.Lock()
	defer bq.mutex.Unlock()
	return bq.size
}

func (bq *BoundedQueue[E]) Capacity() int {
	return bq.capacity
}

// FillPercentage returns the current fill level in the range 0..100.
func (bq *BoundedQueue[E]) FillPercentage() float64 {
	bq.mutex.Lock()
	defer bq.mutex.Unlock()
	return float64(bq.size) * 100 / float64(bq.capacity)
}

func (bq *BoundedQueue[E]) Clear() {
	bq.mutex.Lock()
	defer bq.mutex.Unlock()

	for i := range bq.items {
		bq.items[i] = functional.Zero[E]()
	}
	bq.head = 0
	bq.size = 0
}
