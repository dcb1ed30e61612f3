// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package gatewaycore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"go.acqgw.io/gateway/consumer"
	"go.acqgw.io/gateway/fatalerror"
	"go.acqgw.io/gateway/sink"
	"go.acqgw.io/gateway/workqueue"

	log "github.com/sirupsen/logrus"
)

// Producer feeds the work queue until ctx is canceled or its input ends.
type Producer func(ctx context.Context) error

type namedProducer struct {
	name string
	run  Producer
}

// Gateway owns one work queue, its consumer loop and the producers feeding it.
type Gateway struct {
	id           string
	queue        *workqueue.WorkQueue
	loop         *consumer.Loop
	sink         sink.Sink
	producers    []namedProducer
	finite       *namedProducer
	drainTimeout time.Duration

	mu       sync.Mutex
	cancel   context.CancelFunc
	shutdown bool
}

// ID returns the gateway run id.
func (g *Gateway) ID() string {
	return g.id
}

// Queue returns the work queue.
func (g *Gateway) Queue() *workqueue.WorkQueue {
	return g.queue
}

// Consumer returns the consumer loop.
func (g *Gateway) Consumer() *consumer.Loop {
	return g.loop
}

// Shutdown makes a pending Run stop its producers, drain and return.
func (g *Gateway) Shutdown() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.shutdown = true
	if g.cancel != nil {
		g.cancel()
	}
}

// Run starts the consumer loop and every producer. It returns after the
// finite producer finished, a producer failed, Shutdown was called or ctx was
// canceled; in every case the queue is drained (bounded by the drain
// timeout) before the consumer is stopped.
func (g *Gateway) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g.mu.Lock()
	g.cancel = cancel
	if g.shutdown {
		cancel()
	}
	g.mu.Unlock()

	logger := log.WithField("gatewayID", g.id)
	logger.Info("Gateway starting")

	// the consumer outlives the producers so that it can drain the queue
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()

	var consumerGroup errgroup.Group
	consumerGroup.Go(func() error { return g.loop.Run(consumerCtx) })

	producerGroup, producerCtx := errgroup.WithContext(ctx)
	producerGroup.Go(func() error {
		<-producerCtx.Done()
		return nil
	})

	for _, p := range g.producers {
		p := p
		producerGroup.Go(func() error { return runProducer(producerCtx, p) })
	}

	if g.finite != nil {
		p := *g.finite
		producerGroup.Go(func() error {
			if err := runProducer(producerCtx, p); err != nil {
				return err
			}
			logger.WithField("producer", p.name).Info("Input finished, draining")
			cancel()
			return nil
		})
	}

	producerErr := producerGroup.Wait()
	if producerErr != nil {
		logger.WithError(producerErr).WithField("errorType", fatalerror.TypeOf(producerErr)).Error("Producer failed")
	}

	drainErr := g.drain()

	g.queue.Stop(nil)
	stopConsumer()
	if err := consumerGroup.Wait(); err != nil {
		logger.WithError(err).Error("Consumer loop failed")
		if producerErr == nil {
			producerErr = fatalerror.New(fatalerror.ConsumerFailure, err)
		}
	}

	if closer, ok := g.sink.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close sink")
		}
	}

	stats := g.queue.Stats()
	logger.WithField("enqueued", stats.Enqueued).
		WithField("completed", stats.Completed).
		WithField("sinkFailures", g.loop.Failures()).
		Info("Gateway stopped")

	if producerErr != nil {
		return producerErr
	}
	return drainErr
}

func (g *Gateway) drain() error {
	ctx := context.Background()
	if g.drainTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.drainTimeout)
		defer cancel()
	}

	if err := g.queue.Drain(ctx); err != nil {
		log.WithError(err).WithField("pending", g.queue.Len()).Warn("Queue did not drain before shutdown")
		return fatalerror.New(fatalerror.DrainIncomplete, err)
	}
	return nil
}

// runProducer runs p and returns once it finished or ctx is canceled,
// whichever comes first. Producers blocked in reads that ignore ctx (stdin)
// are abandoned on cancellation; the process is about to exit anyway.
func runProducer(ctx context.Context, p namedProducer) error {
	done := make(chan error, 1)
	go func() { done <- p.run(ctx) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		select {
		case err = <-done:
		case <-time.After(100 * time.Millisecond):
			log.WithField("producer", p.name).Debug("Producer did not observe cancellation, abandoning it")
			return nil
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		if fatalerror.TypeOf(err) == fatalerror.Unknown {
			err = fatalerror.New(fatalerror.ProducerFailure, err)
		}
		return fmt.Errorf("%s producer: %w", p.name, err)
	}
	return nil
}
