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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noctarius/tablestream/spi/stream"
)

func record(
	id string, price float64,
) stream.Record {

	return stream.Record{"id": id, "price": price}
}

func update(
	id string, price float64, operation stream.Operation,
) stream.ConflationUpdate {

	return stream.ConflationUpdate{
		Data:      record(id, price),
		Operation: operation,
		Timestamp: time.Now(),
	}
}

type batchCollector struct {
	mutex   sync.Mutex
	batches [][]stream.ConflationUpdate
}

func (bc *batchCollector) handler() BatchHandler {
	return func(applied []stream.ConflationUpdate) {
		bc.mutex.Lock()
		defer bc.mutex.Unlock()
		bc.batches = append(bc.batches, applied)
	}
}

func (bc *batchCollector) count() int {
	bc.mutex.Lock()
	defer bc.mutex.Unlock()
	return len(bc.batches)
}

func (bc *batchCollector) batch(
	index int,
) []stream.ConflationUpdate {

	bc.mutex.Lock()
	defer bc.mutex.Unlock()
	return bc.batches[index]
}

func Test_Store_Invalid_Configuration(t *testing.T) {
	_, err := NewStore("", time.Millisecond*100, 500, false)
	assert.Error(t, err)

	_, err = NewStore("id", 0, 500, false)
	assert.Error(t, err)

	_, err = NewStore("id", time.Millisecond*100, 0, false)
	assert.Error(t, err)
}

func Test_Store_Debounce_Flush(t *testing.T) {
	store, err := NewStore("id", time.Millisecond*50, 500, false)
	require.NoError(t, err)
	defer store.Destroy()

	collector := &batchCollector{}
	store.OnBatch(collector.handler())

	store.AddUpdate(update("a", 1, stream.OperationUpdate))
	store.AddUpdate(update("b", 2, stream.OperationUpdate))

	require.Eventually(t, func() bool {
		return collector.count() == 1
	}, time.Second, time.Millisecond*10)

	applied := collector.batch(0)
	require.Len(t, applied, 2)
	assert.Equal(t, "a", applied[0].Data.KeyValue("id"))
	assert.Equal(t, "b", applied[1].Data.KeyValue("id"))

	snapshot := store.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "a", snapshot[0].KeyValue("id"))
	assert.Equal(t, "b", snapshot[1].KeyValue("id"))
}

func Test_Store_Conflates_Latest_Per_Key(t *testing.T) {
	store, err := NewStore("id", time.Millisecond*50, 500, false)
	require.NoError(t, err)
	defer store.Destroy()

	collector := &batchCollector{}
	store.OnBatch(collector.handler())

	store.AddUpdate(update("a", 1, stream.OperationUpdate))
	store.AddUpdate(update("b", 2, stream.OperationUpdate))
	store.AddUpdate(update("a", 3, stream.OperationUpdate))
	store.AddUpdate(update("a", 4, stream.OperationUpdate))

	require.Eventually(t, func() bool {
		return collector.count() == 1
	}, time.Second, time.Millisecond*10)

	// Only the latest value per key survives, in arrival order
	applied := collector.batch(0)
	require.Len(t, applied, 2)
	assert.Equal(t, "a", applied[0].Data.KeyValue("id"))
	assert.Equal(t, float64(4), applied[0].Data["price"])
	assert.Equal(t, "b", applied[1].Data.KeyValue("id"))

	metrics := store.Metrics()
	assert.Equal(t, int64(4), metrics.UpdatesReceived)
	assert.Equal(t, int64(2), metrics.UpdatesApplied)
	assert.Equal(t, int64(1), metrics.UpdatesConflated)
	assert.Equal(t, float64(25), metrics.ConflationRate)
}

func Test_Store_Add_Remove_Cancellation(t *testing.T) {
	store, err := NewStore("id", time.Millisecond*50, 500, false)
	require.NoError(t, err)
	defer store.Destroy()

	collector := &batchCollector{}
	store.OnBatch(collector.handler())

	store.AddUpdate(update("a", 1, stream.OperationAdd))
	store.AddUpdate(update("b", 2, stream.OperationUpdate))
	store.AddUpdate(update("a", 1, stream.OperationRemove))

	require.Eventually(t, func() bool {
		return collector.count() == 1
	}, time.Second, time.Millisecond*10)

	// Add followed by remove within the same window never becomes visible
	applied := collector.batch(0)
	require.Len(t, applied, 1)
	assert.Equal(t, "b", applied[0].Data.KeyValue("id"))

	snapshot := store.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "b", snapshot[0].KeyValue("id"))
}

func Test_Store_Remove_Deletes_From_Snapshot(t *testing.T) {
	store, err := NewStore("id", time.Millisecond*50, 500, false)
	require.NoError(t, err)
	defer store.Destroy()

	store.SetSnapshot([]stream.Record{
		record("a", 1), record("b", 2), record("c", 3),
	})

	collector := &batchCollector{}
	store.OnBatch(collector.handler())

	store.AddUpdate(update("b", 2, stream.OperationRemove))

	require.Eventually(t, func() bool {
		return collector.count() == 1
	}, time.Second, time.Millisecond*10)

	snapshot := store.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "a", snapshot[0].KeyValue("id"))
	assert.Equal(t, "c", snapshot[1].KeyValue("id"))
}

func Test_Store_MaxBatchSize_Hard_Flush(t *testing.T) {
	store, err := NewStore("id", time.Hour, 3, false)
	require.NoError(t, err)
	defer store.Destroy()

	collector := &batchCollector{}
	store.OnBatch(collector.handler())

	// The window is far away, only the batch size cap can trigger
	store.AddUpdate(update("a", 1, stream.OperationUpdate))
	store.AddUpdate(update("b", 2, stream.OperationUpdate))
	assert.Equal(t, 0, collector.count())

	store.AddUpdate(update("c", 3, stream.OperationUpdate))
	assert.Equal(t, 1, collector.count())
	assert.Len(t, collector.batch(0), 3)
}

func Test_Store_SetSnapshot_Discards_Pending(t *testing.T) {
	store, err := NewStore("id", time.Millisecond*50, 500, false)
	require.NoError(t, err)
	defer store.Destroy()

	collector := &batchCollector{}
	store.OnBatch(collector.handler())

	store.AddUpdate(update("z", 9, stream.OperationUpdate))
	store.SetSnapshot([]stream.Record{record("a", 1), record("b", 2)})

	// The pending update died with the snapshot replacement
	time.Sleep(time.Millisecond * 150)
	assert.Equal(t, 0, collector.count())

	snapshot := store.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "a", snapshot[0].KeyValue("id"))
	assert.Equal(t, "b", snapshot[1].KeyValue("id"))
}

func Test_Store_Metrics_Handler(t *testing.T) {
	store, err := NewStore("id", time.Millisecond*50, 500, true)
	require.NoError(t, err)
	defer store.Destroy()

	metricsMutex := sync.Mutex{}
	collected := make([]Metrics, 0)
	store.OnMetrics(func(metrics Metrics) {
		metricsMutex.Lock()
		defer metricsMutex.Unlock()
		collected = append(collected, metrics)
	})

	store.AddUpdate(update("a", 1, stream.OperationUpdate))

	require.Eventually(t, func() bool {
		metricsMutex.Lock()
		defer metricsMutex.Unlock()
		return len(collected) == 1
	}, time.Second, time.Millisecond*10)

	metricsMutex.Lock()
	assert.Equal(t, int64(1), collected[0].UpdatesReceived)
	assert.Equal(t, int64(1), collected[0].UpdatesApplied)
	metricsMutex.Unlock()
}

func Test_Store_Clear_And_Destroy(t *testing.T) {
	store, err := NewStore("id", time.Millisecond*50, 500, false)
	require.NoError(t, err)

	store.SetSnapshot([]stream.Record{record("a", 1)})
	store.Clear()
	assert.Empty(t, store.Snapshot())

	collector := &batchCollector{}
	store.OnBatch(collector.handler())

	store.Destroy()
	store.AddUpdate(update("a", 1, stream.OperationUpdate))

	time.Sleep(time.Millisecond * 150)
	assert.Equal(t, 0, collector.count())
	assert.Nil(t, store.flushTimer)
}
