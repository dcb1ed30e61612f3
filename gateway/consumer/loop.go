// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package consumer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.acqgw.io/gateway/sink"

	log "github.com/sirupsen/logrus"
)

// ErrAlreadyStarted is returned when Run is called more than once.
var ErrAlreadyStarted = errors.New("consumer loop already started")

// Queue is the consumer side of a work queue.
type Queue interface {
	Dequeue(ctx context.Context) (string, error)
	Done()
}

// Loop is the single goroutine that takes items off the queue and performs
// their output effect, one at a time, in queue order.
type Loop struct {
	queue Queue
	sink  sink.Sink

	mu                sync.Mutex
	state             State
	stateLastModified time.Time
	started           bool

	processed atomic.Uint64
	failures  atomic.Uint64
}

// NewLoop returns a loop consuming q into s.
func NewLoop(q Queue, s sink.Sink) *Loop {
	return &Loop{
		queue:             q,
		sink:              s,
		state:             Idle,
		stateLastModified: time.Now(),
	}
}

// Run consumes items until ctx is canceled or the queue is stopped, and then
// returns nil. Sink failures are logged and counted; the item is considered
// processed and the loop carries on with the next one.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return ErrAlreadyStarted
	}
	l.started = true
	l.mu.Unlock()

	log.Info("Print thread starting")

	for {
		item, err := l.queue.Dequeue(ctx)
		if err != nil {
			log.WithError(err).Debug("Consumer loop stopping")
			l.stop()
			return nil
		}

		l.mustTransition(Processing)

		if err := l.sink.Write(ctx, item); err != nil {
			l.failures.Add(1)
			log.WithError(err).WithField("item", item).Warn("Failed to write item to sink")
		}
		l.processed.Add(1)

		l.queue.Done()
		l.mustTransition(Idle)
	}
}

func (l *Loop) stop() {
	l.mustTransition(Stopping)
	l.mustTransition(Stopped)
	log.WithField("processed", l.processed.Load()).Info("Print thread stopped")
}

func (l *Loop) transition(to State) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !canTransition(l.state, to) {
		return ErrNotAllowed
	}

	l.state = to
	l.stateLastModified = time.Now()
	return nil
}

// mustTransition panics on a transition only a broken loop could attempt.
func (l *Loop) mustTransition(to State) {
	if err := l.transition(to); err != nil {
		log.WithError(err).Panicf("consumer: %s -> %s", l.State(), to)
	}
}

// State returns the current loop state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// StateLastModified returns when the loop last changed state.
func (l *Loop) StateLastModified() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stateLastModified
}

// Processed returns the number of items whose output effect completed.
func (l *Loop) Processed() uint64 {
	return l.processed.Load()
}

// Failures returns the number of items the sink failed to write.
func (l *Loop) Failures() uint64 {
	return l.failures.Load()
}
