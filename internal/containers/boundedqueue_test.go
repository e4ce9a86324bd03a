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
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_BoundedQueue_Invalid_Capacity(t *testing.T) {
	_, err := NewBoundedQueue[int](0)
	assert.Error(t, err)

	_, err = NewBoundedQueue[int](-1)
	assert.Error(t, err)
}

func Test_BoundedQueue_Push_Until_Full(t *testing.T) {
	queue, err := NewBoundedQueue[int](3)
	assert.NoError(t, err)

	assert.True(t, queue.Push(1))
	assert.True(t, queue.Push(2))
	assert.True(t, queue.Push(3))
	assert.True(t, queue.IsFull())

	// Full queue never overwrites
	assert.False(t, queue.Push(4))
	assert.False(t, queue.PushFront(4))

	v, ok := queue.Pop()
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	assert.True(t, queue.Push(4))
	assert.False(t, queue.Push(5))
}

func Test_BoundedQueue_Pop_Empty(t *testing.T) {
	queue, err := NewBoundedQueue[int](2)
	assert.NoError(t, err)

	_, ok := queue.Pop()
	assert.False(t, ok)

	_, ok = queue.Peek()
	assert.False(t, ok)
	assert.True(t, queue.IsEmpty())
}

func Test_BoundedQueue_PushFront_Ordering(t *testing.T) {
	queue, err := NewBoundedQueue[int](4)
	assert.NoError(t, err)

	assert.True(t, queue.Push(2))
	assert.True(t, queue.Push(3))
	assert.True(t, queue.PushFront(1))

	v, ok := queue.Peek()
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	collected := make([]int, 0, 3)
	for {
		v, ok := queue.Pop()
		if !ok {
			break
		}
		collected = append(collected, v)
	}
	assert.Equal(t, []int{1, 2, 3}, collected)
}

func Test_BoundedQueue_FillPercentage(t *testing.T) {
	queue, err := NewBoundedQueue[int](4)
	assert.NoError(t, err)

	assert.Equal(t, float64(0), queue.FillPercentage())

	queue.Push(1)
	assert.Equal(t, float64(25), queue.FillPercentage())

	queue.Push(2)
	queue.Push(3)
	assert.Equal(t, float64(75), queue.FillPercentage())

	queue.Push(4)
	assert.Equal(t, float64(100), queue.FillPercentage())

	queue.Pop()
	assert.Equal(t, float64(75), queue.FillPercentage())
}

func Test_BoundedQueue_Clear(t *testing.T) {
	queue, err := NewBoundedQueue[int](3)
	assert.NoError(t, err)

	queue.Push(1)
	queue.Push(2)
	queue.Clear()

	assert.True(t, queue.IsEmpty())
	assert.Equal(t, 0, queue.Size())
	assert.Equal(t, 3, queue.Capacity())

	assert.True(t, queue.Push(7))
	v, ok := queue.Pop()
	assert.True(t, ok)
	assert.Equal(t, 7, v)
}

func Test_BoundedQueue_Wraparound(t *testing.T) {
	queue, err := NewBoundedQueue[int](3)
	assert.NoError(t, err)

	for round := 0; round < 10; round++ {
		assert.True(t, queue.Push(round))
		v, ok := queue.Pop()
		assert.True(t, ok)
		assert.Equal(t, round, v)
	}
	assert.True(t, queue.IsEmpty())
}
