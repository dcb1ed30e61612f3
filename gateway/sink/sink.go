// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"context"
	"io"
	"log"
)

// DefaultConsolePrefix is prepended to every item written by ConsoleSink.
const DefaultConsolePrefix = "Print thread: "

// Sink performs the externally visible output action for one item.
// Implementations are called by a single goroutine.
type Sink interface {
	Write(ctx context.Context, item string) error
}

// ConsoleSink writes one line per item to its output and tail writers.
type ConsoleSink struct {
	logger *log.Logger
	prefix string
}

// NewConsoleSink returns a sink writing "<prefix><item>\n" lines to output.
// tail may be nil.
func NewConsoleSink(output, tail io.Writer, prefix string) *ConsoleSink {
	w := output
	if tail != nil {
		w = io.MultiWriter(output, tail)
	}
	return &ConsoleSink{
		logger: log.New(w, "", 0),
		prefix: prefix,
	}
}

// Write implements Sink.
func (s *ConsoleSink) Write(_ context.Context, item string) error {
	return s.logger.Output(2, s.prefix+item)
}
