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
	"strings"
	"sync"
	"time"

	"github.com/go-errors/errors"

	"github.com/noctarius/tablestream/internal/conflation"
	"github.com/noctarius/tablestream/internal/containers"
	"github.com/noctarius/tablestream/internal/filtering"
	"github.com/noctarius/tablestream/internal/logging"
	"github.com/noctarius/tablestream/internal/pacing"
	"github.com/noctarius/tablestream/internal/sequencing"
	"github.com/noctarius/tablestream/internal/stats"
	"github.com/noctarius/tablestream/internal/waiting"
	spiconfig "github.com/noctarius/tablestream/spi/config"
	"github.com/noctarius/tablestream/spi/stream"
	"github.com/noctarius/tablestream/spi/transport"
)

const (
	idleSleep                    = time.Millisecond * 10
	maxProcessingAttempts        = 3
	backpressureReleaseThreshold = float64(50)

	// Realtime records carrying a truthy value in this column are
	// treated as removals by the conflation store
	deletedColumn = "__deleted"
)

type DataHandler func(records []stream.Record, metadata stream.Metadata)

type StatusHandler func(status stream.ConnectionStatus)

type SnapshotCompleteHandler func(snapshotStats stream.SnapshotStats)

type ErrorHandler func(err error)

type ConflationHandler func(updates []stream.ConflationUpdate)

// Client orchestrates one logical table stream: it owns the bounded
// queue between transport ingestion and the drain loop, the sequence
// tracker, the pacing monitor and the optional conflation store, and
// drives the connect/snapshot/realtime/refresh state machine.
//
// The ingestion callback is the producer, the drain loop the only
// long-lived consumer. No failure crosses the public API boundary;
// everything becomes a callback invocation or a statistics field.
type Client struct {
	mutex sync.Mutex

	keyColumn string

	transport transport.Transport
	queue     *containers.BoundedQueue[*stream.Message]
	tracker   *sequencing.SequenceTracker[*stream.Message]
	monitor   *pacing.Monitor
	store     *conflation.Store
	rowFilter filtering.RowFilter
	reporter  *stats.Reporter

	shutdownAwaiter *waiting.ShutdownAwaiter

	connectionStatus stream.ConnectionStatus
	mode             stream.Mode
	running          bool
	refreshing       bool

	localSequence int
	trackerPrimed bool

	backpressureActive      bool
	applyBackpressureHook   func()
	releaseBackpressureHook func()

	snapshotRows       []stream.Record
	snapshotBatchCount int
	snapshotStart      time.Time

	dataSubscribers       *subscriberList[DataHandler]
	statusSubscribers     *subscriberList[StatusHandler]
	snapshotSubscribers   *subscriberList[SnapshotCompleteHandler]
	errorSubscribers      *subscriberList[ErrorHandler]
	conflationSubscribers *subscriberList[ConflationHandler]

	logger *logging.Logger
}

func NewClient(
	c *spiconfig.Config, t transport.Transport, statsService *stats.Service,
) (*Client, error) {

	keyColumn := spiconfig.GetOrDefault(c, spiconfig.PropertyPipelineKeyColumn, "")
	if keyColumn == "" {
		return nil, stream.NewConfigurationError("pipeline.keycolumn needs to be configured")
	}

	queueSize := spiconfig.GetOrDefault(
		c, spiconfig.PropertyPipelineQueueSize, spiconfig.DefaultQueueSize,
	)
	queue, err := containers.NewBoundedQueue[*stream.Message](queueSize)
	if err != nil {
		return nil, err
	}

	maxOutOfOrderBuffer := spiconfig.GetOrDefault(
		c, spiconfig.PropertyMaxOutOfOrderBuffer, spiconfig.DefaultMaxOutOfOrderBuffer,
	)
	gapTimeout := spiconfig.GetOrDefault(
		c, spiconfig.PropertyGapTimeout, time.Second*spiconfig.DefaultGapTimeoutSeconds,
	)
	tracker, err := sequencing.NewSequenceTracker[*stream.Message](
		1, maxOutOfOrderBuffer, gapTimeout,
	)
	if err != nil {
		return nil, err
	}

	monitor, err := pacing.NewMonitor(
		spiconfig.GetOrDefault(c, spiconfig.PropertyPacingMinBatchSize, spiconfig.DefaultMinBatchSize),
		spiconfig.GetOrDefault(c, spiconfig.PropertyPacingMaxBatchSize, spiconfig.DefaultMaxBatchSize),
		spiconfig.GetOrDefault(c, spiconfig.PropertyPacingInitialBatchSize, spiconfig.DefaultInitialBatchSize),
	)
	if err != nil {
		return nil, err
	}

	var store *conflation.Store
	if spiconfig.GetOrDefault(c, spiconfig.PropertyConflationEnabled, true) {
		store, err = conflation.NewStore(
			keyColumn,
			spiconfig.GetOrDefault(
				c, spiconfig.PropertyConflationWindow, time.Millisecond*spiconfig.DefaultConflationWindowMs,
			),
			spiconfig.GetOrDefault(
				c, spiconfig.PropertyConflationMaxBatchSize, spiconfig.DefaultConflationBatchSize,
			),
			spiconfig.GetOrDefault(c, spiconfig.PropertyConflationMetrics, false),
		)
		if err != nil {
			return nil, err
		}
	}

	rowFilter, err := filtering.NewRowFilter(c.Pipeline.Filters)
	if err != nil {
		return nil, err
	}

	var reporter *stats.Reporter
	if statsService != nil {
		reporter = statsService.NewReporter("pipeline")
	}

	logger, err := logging.NewLogger("DataSourceClient")
	if err != nil {
		return nil, err
	}

	client := &Client{
		keyColumn:        keyColumn,
		transport:        t,
		queue:            queue,
		tracker:          tracker,
		monitor:          monitor,
		store:            store,
		rowFilter:        rowFilter,
		reporter:         reporter,
		connectionStatus: stream.ConnectionStatusDisconnected,
		mode:             stream.ModeIdle,

		dataSubscribers:       newSubscriberList[DataHandler](),
		statusSubscribers:     newSubscriberList[StatusHandler](),
		snapshotSubscribers:   newSubscriberList[SnapshotCompleteHandler](),
		errorSubscribers:      newSubscriberList[ErrorHandler](),
		conflationSubscribers: newSubscriberList[ConflationHandler](),

		logger: logger,
	}

	// Buffered entries released by a gap timeout re-enter the queue
	// for regular emission, stripped of their sequence so they cannot
	// be classified as duplicates on the second pass
	tracker.SetRecoveryHandler(func(messages []*stream.Message) {
		for i := len(messages) - 1; i >= 0; i-- {
			messages[i].Metadata.Sequence = nil
			if !client.queue.PushFront(messages[i]) {
				client.reportError(stream.NewQueueFullError(messages[i].Sequence))
			}
		}
	})

	if store != nil {
		store.OnBatch(client.emitConflatedBatch)
	}

	return client, nil
}

// Connect opens the transport, attaches the inbound event handlers,
// starts the drain loop and requests the initial snapshot.
func (c *Client) Connect() error {
	c.mutex.Lock()
	if c.running {
		c.mutex.Unlock()
		return nil
	}
	c.running = true
	c.shutdownAwaiter = waiting.NewShutdownAwaiter()
	c.mutex.Unlock()

	c.updateConnectionStatus(stream.ConnectionStatusConnecting)
	if err := c.transport.Connect(); err != nil {
		c.mutex.Lock()
		c.running = false
		c.mutex.Unlock()
		c.updateConnectionStatus(stream.ConnectionStatusError)
		return stream.NewTransportError(err, "connecting transport")
	}

	c.transport.AttachEventHandlers(transport.EventHandlers{
		OnConnectionStatus: c.updateConnectionStatus,
		OnBatch:            c.onInboundBatch,
		OnSnapshotComplete: c.onSnapshotComplete,
		OnRefreshStarted:   c.onRefreshStarted,
		OnRefreshComplete:  c.onRefreshComplete,
	})
	c.updateConnectionStatus(stream.ConnectionStatusConnected)

	c.mutex.Lock()
	c.mode = stream.ModeSnapshot
	c.snapshotStart = time.Now()
	c.snapshotRows = nil
	c.snapshotBatchCount = 0
	c.mutex.Unlock()

	go c.drainLoop()

	if err := c.transport.RequestSnapshot(); err != nil {
		transportErr := stream.NewTransportError(err, "requesting initial snapshot")
		c.reportError(transportErr)
		return transportErr
	}
	return nil
}

// Disconnect stops the drain loop and blocks until it has observably
// stopped, then detaches the handlers and closes the transport.
func (c *Client) Disconnect() error {
	c.mutex.Lock()
	if !c.running {
		c.mutex.Unlock()
		return nil
	}
	c.running = false
	awaiter := c.shutdownAwaiter
	c.mutex.Unlock()

	awaiter.SignalShutdown()
	if err := awaiter.AwaitDone(); err != nil {
		return err
	}

	c.transport.DetachEventHandlers()
	err := c.transport.Close()

	c.mutex.Lock()
	c.mode = stream.ModeIdle
	c.mutex.Unlock()
	c.updateConnectionStatus(stream.ConnectionStatusDisconnected)

	if err != nil {
		return stream.NewTransportError(err, "closing transport")
	}
	return nil
}

// Refresh resets the pipeline state and asks the transport to replay
// the snapshot lifecycle. Idempotent while a refresh is in flight.
func (c *Client) Refresh() error {
	c.mutex.Lock()
	if c.refreshing {
		c.mutex.Unlock()
		return nil
	}
	c.refreshing = true
	c.mode = stream.ModeIdle
	c.snapshotRows = nil
	c.snapshotBatchCount = 0
	c.trackerPrimed = false
	c.mutex.Unlock()

	c.queue.Clear()
	c.tracker.Reset(1)
	c.monitor.Reset()
	if c.store != nil {
		c.store.Clear()
	}

	if err := c.transport.RequestRefresh(); err != nil {
		c.mutex.Lock()
		c.refreshing = false
		c.mutex.Unlock()

		transportErr := stream.NewTransportError(err, "requesting refresh")
		c.reportError(transportErr)
		return transportErr
	}
	return nil
}

func (c *Client) OnData(
	handler func(records []stream.Record, metadata stream.Metadata),
) (string, error) {

	return c.dataSubscribers.subscribe(handler)
}

func (c *Client) OnStatusChange(
	handler func(status stream.ConnectionStatus),
) (string, error) {

	return c.statusSubscribers.subscribe(handler)
}

func (c *Client) OnSnapshotComplete(
	handler func(snapshotStats stream.SnapshotStats),
) (string, error) {

	return c.snapshotSubscribers.subscribe(handler)
}

func (c *Client) OnError(
	handler func(err error),
) (string, error) {

	return c.errorSubscribers.subscribe(handler)
}

func (c *Client) OnConflatedBatch(
	handler func(updates []stream.ConflationUpdate),
) (string, error) {

	return c.conflationSubscribers.subscribe(handler)
}

// Unsubscribe removes the subscription identified by the token from
// whichever observer list issued it.
func (c *Client) Unsubscribe(
	token string,
) {

	c.dataSubscribers.unsubscribe(token)
	c.statusSubscribers.unsubscribe(token)
	c.snapshotSubscribers.unsubscribe(token)
	c.errorSubscribers.unsubscribe(token)
	c.conflationSubscribers.unsubscribe(token)
}

// Snapshot returns the conflation store's authoritative state, or
// nil when conflation is disabled.
func (c *Client) Snapshot() []stream.Record {
	if c.store == nil {
		return nil
	}
	return c.store.Snapshot()
}

// SetBackpressureHooks overrides the callbacks invoked on the
// apply/release backpressure transitions.
func (c *Client) SetBackpressureHooks(
	apply, release func(),
) {

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.applyBackpressureHook = apply
	c.releaseBackpressureHook = release
}

func (c *Client) Statistics() stream.Statistics {
	c.mutex.Lock()
	connectionStatus := c.connectionStatus
	mode := c.mode
	backpressureActive := c.backpressureActive
	c.mutex.Unlock()

	return stream.Statistics{
		ConnectionStatus:    connectionStatus,
		Mode:                mode,
		QueueSize:           c.queue.Size(),
		QueueCapacity:       c.queue.Capacity(),
		QueueFillPercentage: c.queue.FillPercentage(),
		BackpressureActive:  backpressureActive,
		Performance:         c.monitor.Statistics(),
		SequenceTracker:     c.tracker.Statistics(),
	}
}

func (c *Client) ConflationMetrics() conflation.Metrics {
	if c.store == nil {
		return conflation.Metrics{}
	}
	return c.store.Metrics()
}

// onInboundBatch is the ingestion producer: it filters the rows,
// wraps them as a message with an incrementing local sequence and
// pushes into the bounded queue, applying the single-retry
// backpressure protocol on a failed push.
func (c *Client) onInboundBatch(
	sequence int, records []stream.Record, metadata stream.Metadata,
) {

	filtered := make([]stream.Record, 0, len(records))
	for _, record := range records {
		success, err := c.rowFilter.Evaluate(record)
		if err != nil {
			c.reportError(err)
			continue
		}
		if success {
			filtered = append(filtered, record)
		}
	}
	if len(filtered) == 0 {
		return
	}

	if !metadata.IsSnapshot && metadata.Sequence == nil && sequence > 0 {
		metadata.Sequence = &sequence
	}

	c.mutex.Lock()
	c.localSequence++
	localSequence := c.localSequence
	c.mutex.Unlock()

	message := &stream.Message{
		Sequence:    localSequence,
		Data:        filtered,
		Metadata:    metadata,
		EnqueueTime: time.Now(),
	}

	if c.queue.Push(message) {
		return
	}

	c.applyBackpressure()
	if c.queue.Push(message) {
		return
	}
	c.reportError(stream.NewQueueFullError(message.Sequence))
}

func (c *Client) drainLoop() {
	for {
		select {
		case <-c.shutdownAwaiter.AwaitShutdownChan():
			c.shutdownAwaiter.SignalDone()
			return
		default:
		}

		batchSize := c.monitor.SuggestedBatchSize()
		messages := make([]*stream.Message, 0, batchSize)
		for len(messages) < batchSize {
			message, present := c.queue.Pop()
			if !present {
				break
			}
			messages = append(messages, message)
		}

		if len(messages) == 0 {
			c.checkBackpressureRelease()
			time.Sleep(idleSleep)
			continue
		}

		start := time.Now()
		c.processBatch(messages)
		queueDepth := c.queue.Size()
		c.monitor.RecordProcessing(start, len(messages), queueDepth)

		if c.reporter != nil {
			c.reporter.Add("messages.processed", len(messages))
			c.reporter.Set("queue.fill.percentage", c.queue.FillPercentage())
			c.reporter.Set("batch.size.suggested", c.monitor.SuggestedBatchSize())
			c.reporter.Observe("drain.cycle.time", time.Since(start))
		}

		c.checkBackpressureRelease()
	}
}

func (c *Client) processBatch(
	messages []*stream.Message,
) {

	snapshotMessages := make([]*stream.Message, 0, len(messages))
	realtimeMessages := make([]*stream.Message, 0, len(messages))
	for _, message := range messages {
		if message.Metadata.IsSnapshot {
			snapshotMessages = append(snapshotMessages, message)
		} else {
			realtimeMessages = append(realtimeMessages, message)
		}
	}

	if len(snapshotMessages) > 0 {
		c.processPartition(snapshotMessages, c.emitSnapshotPartition)
	}
	if len(realtimeMessages) > 0 {
		ready := c.sequenceRealtime(realtimeMessages)
		if len(ready) > 0 {
			c.processPartition(ready, c.emitRealtimePartition)
		}
	}
}

// sequenceRealtime feeds messages carrying a transport sequence
// through the tracker and returns everything released for emission
// in order. Messages without a sequence bypass ordering.
func (c *Client) sequenceRealtime(
	messages []*stream.Message,
) []*stream.Message {

	ready := make([]*stream.Message, 0, len(messages))
	for _, message := range messages {
		if message.Metadata.Sequence == nil {
			ready = append(ready, message)
			continue
		}

		sequence := *message.Metadata.Sequence
		c.primeTracker(sequence)

		result := c.tracker.ProcessSequencedData(sequence, message)
		switch result.Status {
		case sequencing.StatusReady:
			ready = append(ready, result.Data...)
		case sequencing.StatusBuffered:
			if len(result.MissingSequences) > 0 {
				c.logger.Verbosef("buffered sequence %d, missing %v", sequence, result.MissingSequences)
			}
		case sequencing.StatusDuplicate:
			c.logger.Debugf("dropped duplicate sequence %d", sequence)
		}
	}
	return ready
}

// primeTracker lazily aligns the tracker's expected sequence with
// the first realtime sequence observed after connect or refresh.
func (c *Client) primeTracker(
	sequence int,
) {

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if !c.trackerPrimed {
		c.tracker.Reset(sequence)
		c.trackerPrimed = true
	}
}

// processPartition emits one partition and runs the retry protocol
// when the emission fails: every message's attempt counter is
// incremented, messages below the attempt limit are requeued at the
// front of the queue in their original order, the rest are reported
// as permanently failed.
func (c *Client) processPartition(
	messages []*stream.Message, emit func(messages []*stream.Message) error,
) {

	err := emit(messages)
	if err == nil {
		return
	}

	failed := make([]*stream.Message, 0)
	requeue := make([]*stream.Message, 0, len(messages))
	for _, message := range messages {
		message.Attempts++
		// Requeued messages must not run through the sequence
		// tracker a second time
		message.Metadata.Sequence = nil
		if message.Attempts < maxProcessingAttempts {
			requeue = append(requeue, message)
		} else {
			failed = append(failed, message)
		}
	}

	for i := len(requeue) - 1; i >= 0; i-- {
		if !c.queue.PushFront(requeue[i]) {
			failed = append(failed, requeue[i])
		}
	}

	for _, message := range failed {
		c.reportError(stream.NewProcessingError(message.Sequence, message.Attempts, err))
	}
}

func (c *Client) emitSnapshotPartition(
	messages []*stream.Message,
) error {

	records := make([]stream.Record, 0)
	for _, message := range messages {
		records = append(records, message.Data...)
	}

	c.mutex.Lock()
	batchNumber := c.snapshotBatchCount + 1
	isFirstBatch := batchNumber == 1
	totalRows := len(c.snapshotRows) + len(records)
	c.mutex.Unlock()

	metadata := stream.Metadata{
		IsSnapshot:   true,
		BatchNumber:  &batchNumber,
		IsFirstBatch: &isFirstBatch,
		TotalRows:    &totalRows,
	}

	// Accounting state must only reflect successfully emitted
	// batches, otherwise the retry protocol double-counts
	if err := c.emitData(records, metadata); err != nil {
		return err
	}

	c.mutex.Lock()
	c.snapshotBatchCount = batchNumber
	c.snapshotRows = append(c.snapshotRows, records...)
	c.mutex.Unlock()
	return nil
}

func (c *Client) emitRealtimePartition(
	messages []*stream.Message,
) error {

	records := make([]stream.Record, 0)
	for _, message := range messages {
		records = append(records, message.Data...)
	}

	timestamp := time.Now().UnixMilli()
	metadata := stream.Metadata{
		IsSnapshot: false,
		Timestamp:  &timestamp,
	}

	// The conflation store is only fed after a successful emission,
	// otherwise every retry re-adds the same updates
	if err := c.emitData(records, metadata); err != nil {
		return err
	}

	if c.store != nil {
		now := time.Now()
		for _, record := range records {
			operation := stream.OperationUpdate
			if isDeleted(record) {
				operation = stream.OperationRemove
			}
			c.store.AddUpdate(stream.ConflationUpdate{
				Data:      record,
				Operation: operation,
				Timestamp: now,
			})
		}
	}
	return nil
}

// onSnapshotComplete is the synchronization point between snapshot
// and realtime mode: the sequence tracker's buffer is force-flushed,
// the conflation store seeded with the accumulated rows and exactly
// one snapshot-complete event emitted.
func (c *Client) onSnapshotComplete(
	totalRows int,
) {

	drained := c.tracker.ForceProcessBuffer()
	for i := len(drained) - 1; i >= 0; i-- {
		drained[i].Metadata.Sequence = nil
		if !c.queue.PushFront(drained[i]) {
			c.reportError(stream.NewQueueFullError(drained[i].Sequence))
		}
	}

	c.mutex.Lock()
	c.mode = stream.ModeRealtime
	c.refreshing = false
	rows := c.snapshotRows
	rowCount := len(rows)
	if totalRows > 0 {
		rowCount = totalRows
	}
	snapshotStats := stream.SnapshotStats{
		RowCount:   rowCount,
		BatchCount: c.snapshotBatchCount,
		Duration:   time.Since(c.snapshotStart),
	}
	c.mutex.Unlock()

	if c.store != nil {
		c.store.SetSnapshot(rows)
	}

	c.logger.Infof(
		"snapshot complete: %d rows in %d batches after %s",
		snapshotStats.RowCount, snapshotStats.BatchCount, snapshotStats.Duration.String(),
	)

	for _, handler := range c.snapshotSubscribers.snapshot() {
		h := handler
		if err := invokeGuarded(func() { h(snapshotStats) }); err != nil {
			c.reportError(err)
		}
	}
}

func (c *Client) onRefreshStarted() {
	c.mutex.Lock()
	c.mode = stream.ModeSnapshot
	c.snapshotStart = time.Now()
	c.snapshotRows = nil
	c.snapshotBatchCount = 0
	c.mutex.Unlock()

	c.logger.Infof("refresh started, re-entering snapshot mode")
}

func (c *Client) onRefreshComplete() {
	c.mutex.Lock()
	c.refreshing = false
	c.mutex.Unlock()
}

func (c *Client) applyBackpressure() {
	c.mutex.Lock()
	if c.backpressureActive {
		c.mutex.Unlock()
		return
	}
	c.backpressureActive = true
	hook := c.applyBackpressureHook
	c.mutex.Unlock()

	c.logger.Warnf("queue full, backpressure applied")
	if hook != nil {
		hook()
	}
}

func (c *Client) checkBackpressureRelease() {
	c.mutex.Lock()
	if !c.backpressureActive || c.queue.FillPercentage() >= backpressureReleaseThreshold {
		c.mutex.Unlock()
		return
	}
	c.backpressureActive = false
	hook := c.releaseBackpressureHook
	c.mutex.Unlock()

	c.logger.Infof("queue drained below %d%%, backpressure released", int(backpressureReleaseThreshold))
	if hook != nil {
		hook()
	}
}

func (c *Client) updateConnectionStatus(
	status stream.ConnectionStatus,
) {

	c.mutex.Lock()
	if c.connectionStatus == status {
		c.mutex.Unlock()
		return
	}
	c.connectionStatus = status
	c.mutex.Unlock()

	c.logger.Verbosef("connection status: %s", status)
	for _, handler := range c.statusSubscribers.snapshot() {
		h := handler
		if err := invokeGuarded(func() { h(status) }); err != nil {
			c.reportError(err)
		}
	}
}

func (c *Client) emitData(
	records []stream.Record, metadata stream.Metadata,
) error {

	var firstErr error
	for _, handler := range c.dataSubscribers.snapshot() {
		h := handler
		if err := invokeGuarded(func() { h(records, metadata) }); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (c *Client) emitConflatedBatch(
	applied []stream.ConflationUpdate,
) {

	for _, handler := range c.conflationSubscribers.snapshot() {
		h := handler
		if err := invokeGuarded(func() { h(applied) }); err != nil {
			c.reportError(err)
		}
	}
}

func (c *Client) reportError(
	err error,
) {

	c.logger.Errorf("pipeline error: %s", err.Error())
	if c.reporter != nil {
		c.reporter.Incr("errors")
	}
	for _, handler := range c.errorSubscribers.snapshot() {
		h := handler
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Errorf("error handler panic: %v", r)
				}
			}()
			h(err)
		}()
	}
}

func invokeGuarded(
	fn func(),
) (err error) {

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("handler panic: %v", r)
		}
	}()
	fn()
	return nil
}

func isDeleted(
	record stream.Record,
) bool {

	switch value := record[deletedColumn].(type) {
	case bool:
		return value
	case string:
		switch strings.ToLower(value) {
		case "true", "t", "yes", "y", "1":
			return true
		}
	}
	return false
}
