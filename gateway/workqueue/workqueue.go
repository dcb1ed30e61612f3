// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package workqueue

import (
	"context"
	"errors"
	"sync"

	"github.com/eapache/queue"

	log "github.com/sirupsen/logrus"
)

// ErrQueueStopped is returned by blocked and subsequent calls after Stop
// was called without an explicit error.
var ErrQueueStopped = errors.New("ErrQueueStopped")

// Stats is a point-in-time snapshot of queue counters.
type Stats struct {
	Depth     int
	InFlight  bool
	Stopped   bool
	Enqueued  uint64
	Dequeued  uint64
	Completed uint64
}

// WorkQueue is an unbounded FIFO hand-off between any number of producers
// and exactly one consumer.
//
// A single mutex guards the item sequence. dataReady is signaled after every
// enqueue and wakes the consumer blocked in Dequeue. flushed is broadcast
// each time the consumer reports, via Done, that the in-flight item has been
// fully processed; Drain waits on it.
type WorkQueue struct {
	mu        sync.Mutex
	dataReady *sync.Cond
	flushed   *sync.Cond

	items    *queue.Queue
	inFlight bool
	stopped  bool
	err      error

	enqueued  uint64
	dequeued  uint64
	completed uint64
}

// New returns an empty WorkQueue.
func New() *WorkQueue {
	q := &WorkQueue{
		items: queue.New(),
	}
	q.dataReady = sync.NewCond(&q.mu)
	q.flushed = sync.NewCond(&q.mu)
	return q
}

// Enqueue appends item to the tail and wakes the consumer if it is waiting.
// It never blocks. The only error is the stop error once Stop was called,
// so an item is never dropped without the producer knowing.
func (q *WorkQueue) Enqueue(item string) error {
	q.mu.Lock()
	if q.stopped {
		err := q.err
		q.mu.Unlock()
		return err
	}
	q.items.Add(item)
	q.enqueued++
	q.mu.Unlock()

	q.dataReady.Signal()
	return nil
}

// Dequeue removes and returns the head of the queue, suspending the caller
// while the queue is empty. The returned item is in flight until Done is
// called. Only the consumer may call Dequeue.
func (q *WorkQueue) Dequeue(ctx context.Context) (string, error) {
	stopWake := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		q.dataReady.Broadcast()
	})
	defer stopWake()

	q.mu.Lock()
	defer q.mu.Unlock()

	for q.items.Length() == 0 && !q.stopped && ctx.Err() == nil {
		q.dataReady.Wait()
	}

	if q.stopped {
		return "", q.err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	item := q.items.Remove().(string)
	q.inFlight = true
	q.dequeued++
	return item, nil
}

// Done marks the item returned by the last Dequeue as processed and wakes
// every Drain waiter.
func (q *WorkQueue) Done() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.inFlight {
		return
	}

	q.inFlight = false
	q.completed++
	q.flushed.Broadcast()
}

// IsEmpty reports whether the queue currently holds no items. An item that
// is in flight is not counted.
func (q *WorkQueue) IsEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Length() == 0
}

// Len returns the number of queued items.
func (q *WorkQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Length()
}

// Drain suspends the caller until the queue is empty and the last dequeued
// item has been reported Done. It returns immediately on an idle empty queue.
// Any number of goroutines may drain concurrently.
func (q *WorkQueue) Drain(ctx context.Context) error {
	stopWake := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		q.flushed.Broadcast()
	})
	defer stopWake()

	q.mu.Lock()
	defer q.mu.Unlock()

	for q.items.Length() > 0 || q.inFlight {
		if q.stopped {
			return q.err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		// the consumer may not have observed the last enqueue yet
		q.dataReady.Signal()
		q.flushed.Wait()
	}

	return nil
}

// Stop cancels the queue with err and wakes every suspended caller. Blocked
// and later Dequeue and Drain calls return err, as do later Enqueue calls.
// A nil err is replaced by ErrQueueStopped. Only the first call has effect.
func (q *WorkQueue) Stop(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopped {
		return
	}

	if err == nil {
		err = ErrQueueStopped
	}

	q.stopped = true
	q.err = err

	if pending := q.items.Length(); pending > 0 {
		log.WithField("pending", pending).Warn("Work queue stopped before it was drained")
	}

	q.dataReady.Broadcast()
	q.flushed.Broadcast()
}

// Stats returns a snapshot of the queue counters.
func (q *WorkQueue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Depth:     q.items.Length(),
		InFlight:  q.inFlight,
		Stopped:   q.stopped,
		Enqueued:  q.enqueued,
		Dequeued:  q.dequeued,
		Completed: q.completed,
	}
}
