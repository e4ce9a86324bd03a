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

package stream

import "time"

// PerformanceStatistics is the read-only export of the adaptive
// pacing monitor.
type PerformanceStatistics struct {
	MessagesProcessed   int64         `json:"messagesProcessed"`
	AvgProcessingTime   time.Duration `json:"avgProcessingTime"`
	AvgQueueDepth       float64       `json:"avgQueueDepth"`
	ThroughputPerSecond float64       `json:"throughputPerSecond"`
	ThroughputPerMinute float64       `json:"throughputPerMinute"`
	SuggestedBatchSize  int           `json:"suggestedBatchSize"`
}

// SequenceTrackerStatistics is the read-only export of the
// sequence tracker.
type SequenceTrackerStatistics struct {
	ExpectedSequence int   `json:"expectedSequence"`
	MissingCount     int   `json:"missingCount"`
	BufferSize       int   `json:"bufferSize"`
	MissingSequences []int `json:"missingSequences"`
}

// Statistics is the composite statistics export of a data source
// client instance.
type Statistics struct {
	ConnectionStatus    ConnectionStatus          `json:"connectionStatus"`
	Mode                Mode                      `json:"mode"`
	QueueSize           int                       `json:"queueSize"`
	QueueCapacity       int                       `json:"queueCapacity"`
	QueueFillPercentage float64                   `json:"queueFillPercentage"`
	BackpressureActive  bool                      `json:"backpressureActive"`
	Performance         PerformanceStatistics     `json:"performance"`
	SequenceTracker     SequenceTrackerStatistics `json:"sequenceTracker"`
}
