// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package fatalerror

import "errors"

// This package defines the error types a gateway run can terminate with.
// Separate package for namespacing

// ErrorType classifies why the gateway stopped abnormally.
type ErrorType string

const (
	InvalidConfig   ErrorType = "Gateway.InvalidConfig"   // options could not be parsed or validated
	ListenError     ErrorType = "Gateway.ListenError"     // a producer could not bind its socket
	InputReadError  ErrorType = "Producer.InputReadError" // stdin could not be read
	ProducerFailure ErrorType = "Producer.Failure"        // a producer returned an unexpected error
	SinkUnavailable ErrorType = "Sink.Unavailable"        // the output sink could not be opened
	DrainIncomplete ErrorType = "Queue.DrainIncomplete"   // shutdown happened before the queue drained
	ConsumerFailure ErrorType = "Consumer.Failure"        // the consumer loop exited unexpectedly
	Unknown         ErrorType = "Unknown"
)

// Error carries an ErrorType alongside the underlying cause.
type Error struct {
	Type ErrorType
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Type)
	}
	return string(e.Type) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err with errorType.
func New(errorType ErrorType, err error) *Error {
	return &Error{Type: errorType, Err: err}
}

// TypeOf returns the ErrorType carried by err, or Unknown.
func TypeOf(err error) ErrorType {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Type
	}
	return Unknown
}
