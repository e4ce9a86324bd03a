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

import (
	"fmt"
)

// ConfigurationError signals invalid construction parameters.
// It is fatal and raised before any background activity starts.
type ConfigurationError struct {
	message string
}

func NewConfigurationError(
	format string, args ...any,
) *ConfigurationError {

	return &ConfigurationError{
		message: fmt.Sprintf(format, args...),
	}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.message)
}

// TransportError signals a connect or send failure on the
// underlying transport. It is surfaced through the error
// callback; the reconnect policy is the caller's decision.
type TransportError struct {
	message string
	cause   error
}

func NewTransportError(
	cause error, format string, args ...any,
) *TransportError {

	return &TransportError{
		message: fmt.Sprintf(format, args...),
		cause:   cause,
	}
}

func (e *TransportError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("transport error: %s => %s", e.message, e.cause.Error())
	}
	return fmt.Sprintf("transport error: %s", e.message)
}

func (e *TransportError) Unwrap() error {
	return e.cause
}

// QueueFullError signals that an inbound message was dropped
// because the enqueue failed even after the backpressure retry.
// It is non-fatal to the stream.
type QueueFullError struct {
	Sequence int
}

func NewQueueFullError(
	sequence int,
) *QueueFullError {

	return &QueueFullError{
		Sequence: sequence,
	}
}

func (e *QueueFullError) Error() string {
	return fmt.Sprintf("queue full, message %d dropped after backpressure retry", e.Sequence)
}

// ProcessingError signals that a message permanently failed to
// be applied after exhausting its retry attempts.
type ProcessingError struct {
	Sequence int
	Attempts int
	cause    error
}

func NewProcessingError(
	sequence, attempts int, cause error,
) *ProcessingError {

	return &ProcessingError{
		Sequence: sequence,
		Attempts: attempts,
		cause:    cause,
	}
}

func (e *ProcessingError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf(
			"message %d permanently failed after %d attempts => %s",
			e.Sequence, e.Attempts, e.cause.Error(),
		)
	}
	return fmt.Sprintf("message %d permanently failed after %d attempts", e.Sequence, e.Attempts)
}

func (e *ProcessingError) Unwrap() error {
	return e.cause
}
