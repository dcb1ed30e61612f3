// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package input

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"unicode"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
)

const (
	// MaxTokenLength is the longest item a token producer enqueues; longer
	// words are split into consecutive items of at most this size.
	MaxTokenLength = 256

	// DefaultSentinel stops a producer from accepting further input.
	DefaultSentinel = "exit"

	// Unbounded disables the item budget.
	Unbounded = -1
)

// Enqueuer is the producer side of a work queue.
type Enqueuer interface {
	Enqueue(item string) error
}

// Budget tracks how many more items a producer may accept. Zero and
// negative limits are unbounded.
type Budget struct {
	remaining int
}

// NewBudget returns a budget of limit items.
func NewBudget(limit int) *Budget {
	if limit <= 0 {
		limit = Unbounded
	}
	return &Budget{remaining: limit}
}

// Take consumes one item and reports whether the budget is now exhausted.
func (b *Budget) Take() (exhausted bool) {
	if b.remaining == Unbounded {
		return false
	}
	b.remaining--
	return b.remaining == 0
}

// Limit returns the remaining budget, or Unbounded.
func (b *Budget) Limit() int {
	return b.remaining
}

// SplitToken cuts token into chunks of at most MaxTokenLength bytes.
func SplitToken(token string) []string {
	if len(token) <= MaxTokenLength {
		return []string{token}
	}
	chunks := make([]string, 0, len(token)/MaxTokenLength+1)
	for len(token) > MaxTokenLength {
		chunks = append(chunks, token[:MaxTokenLength])
		token = token[MaxTokenLength:]
	}
	return append(chunks, token)
}

// ScanTokens is a bufio.SplitFunc like bufio.ScanWords, except that a word
// is emitted as soon as it reaches MaxTokenLength bytes and the rest of it
// becomes the next token. Words of any length are accepted with the default
// scanner buffer.
func ScanTokens(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for width := 0; start < len(data); start += width {
		var r rune
		r, width = utf8.DecodeRune(data[start:])
		if !unicode.IsSpace(r) {
			break
		}
	}

	for width, i := 0, start; i < len(data); i += width {
		if i-start >= MaxTokenLength {
			end := start + MaxTokenLength
			return end, data[start:end], nil
		}
		var r rune
		r, width = utf8.DecodeRune(data[i:])
		if unicode.IsSpace(r) {
			return i + width, data[start:i], nil
		}
	}

	if atEOF && len(data) > start {
		if len(data)-start > MaxTokenLength {
			end := start + MaxTokenLength
			return end, data[start:end], nil
		}
		return len(data), data[start:], nil
	}

	return start, nil, nil
}

// NewTokenScanner returns a scanner splitting r with ScanTokens.
func NewTokenScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Split(ScanTokens)
	return scanner
}

// TokenReader enqueues whitespace separated tokens read from a stream.
type TokenReader struct {
	reader   io.Reader
	queue    Enqueuer
	count    int
	sentinel string
}

// NewTokenReader returns a producer that reads tokens from r into q.
// count bounds the number of items, Unbounded (or 0) disables the bound.
// An empty sentinel disables sentinel detection.
func NewTokenReader(r io.Reader, q Enqueuer, count int, sentinel string) *TokenReader {
	return &TokenReader{
		reader:   r,
		queue:    q,
		count:    count,
		sentinel: sentinel,
	}
}

// Run reads until EOF, the sentinel, an exhausted budget or ctx
// cancellation, and returns the number of enqueued items. The sentinel
// itself is not enqueued.
func (t *TokenReader) Run(ctx context.Context) (int, error) {
	budget := NewBudget(t.count)
	log.Infof("Accepting %d input strings", budget.Limit())

	scanner := NewTokenScanner(t.reader)

	accepted := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return accepted, err
		}

		token := scanner.Text()
		if t.sentinel != "" && token == t.sentinel {
			log.WithField("sentinel", token).Info("Sentinel received, no longer accepting input")
			return accepted, nil
		}

		if err := t.queue.Enqueue(token); err != nil {
			return accepted, fmt.Errorf("failed to enqueue token: %w", err)
		}
		accepted++
		if budget.Take() {
			log.WithField("accepted", accepted).Debug("Input budget exhausted")
			return accepted, nil
		}
	}

	if err := scanner.Err(); err != nil {
		return accepted, fmt.Errorf("failed to read input: %w", err)
	}

	return accepted, nil
}
