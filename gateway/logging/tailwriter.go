// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"io"
	"sync"
)

// DefaultTailTag marks item lines mirrored into the internal log stream.
const DefaultTailTag = "[item] "

// TailWriter mirrors sink output into a second stream, typically stderr next
// to the internal log, while enabled. Every mirrored write is prefixed with
// a tag so item lines stand out between log lines.
type TailWriter struct {
	mu       sync.Mutex
	out      io.Writer
	tag      []byte
	enabled  bool
	mirrored uint64
}

// NewTailWriter returns a disabled TailWriter writing to w.
func NewTailWriter(w io.Writer, tag string) *TailWriter {
	return &TailWriter{
		out: w,
		tag: []byte(tag),
	}
}

func (tw *TailWriter) Enable() {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	tw.enabled = true
}

func (tw *TailWriter) Disable() {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	tw.enabled = false
}

func (tw *TailWriter) Enabled() bool {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.enabled
}

// Mirrored returns the number of writes forwarded so far.
func (tw *TailWriter) Mirrored() uint64 {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.mirrored
}

// Write forwards tag+p while enabled. It always reports len(p) written so
// that an io.MultiWriter carrying the primary output never stops on the
// mirror; mirror failures are dropped.
func (tw *TailWriter) Write(p []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if !tw.enabled {
		return len(p), nil
	}

	line := make([]byte, 0, len(tw.tag)+len(p))
	line = append(append(line, tw.tag...), p...)
	if _, err := tw.out.Write(line); err == nil {
		tw.mirrored++
	}
	return len(p), nil
}
