// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package gatewaycore

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"go.acqgw.io/gateway/consumer"
	"go.acqgw.io/gateway/logging"
	"go.acqgw.io/gateway/sink"
	"go.acqgw.io/gateway/workqueue"

	log "github.com/sirupsen/logrus"
)

const defaultDrainTimeout = 10 * time.Second

type GatewayBuilder struct {
	gateway       *Gateway
	shutdownFuncs []context.CancelFunc
	trapSignals   bool
}

func NewGatewayBuilder(s sink.Sink) *GatewayBuilder {
	q := workqueue.New()

	b := &GatewayBuilder{
		gateway: &Gateway{
			id:           uuid.New().String(),
			queue:        q,
			loop:         consumer.NewLoop(q, s),
			sink:         s,
			drainTimeout: defaultDrainTimeout,
		},
		shutdownFuncs: []context.CancelFunc{},
	}

	b.AddShutdownFunc(context.CancelFunc(func() {
		log.Info("Shutting down...")
	}))

	return b
}

// GatewayID returns the id of the gateway being built.
func (b *GatewayBuilder) GatewayID() string {
	return b.gateway.id
}

// Queue returns the work queue producers should enqueue into.
func (b *GatewayBuilder) Queue() *workqueue.WorkQueue {
	return b.gateway.queue
}

// Consumer returns the consumer loop, e.g. for status reporting.
func (b *GatewayBuilder) Consumer() *consumer.Loop {
	return b.gateway.loop
}

// AddProducer adds a producer that runs until the gateway shuts down.
func (b *GatewayBuilder) AddProducer(name string, p Producer) *GatewayBuilder {
	b.gateway.producers = append(b.gateway.producers, namedProducer{name: name, run: p})
	return b
}

// SetFiniteProducer sets the producer whose completion drains the queue and
// shuts the gateway down.
func (b *GatewayBuilder) SetFiniteProducer(name string, p Producer) *GatewayBuilder {
	b.gateway.finite = &namedProducer{name: name, run: p}
	return b
}

// SetDrainTimeout bounds how long shutdown waits for the queue to drain.
// Zero waits forever.
func (b *GatewayBuilder) SetDrainTimeout(timeout time.Duration) *GatewayBuilder {
	b.gateway.drainTimeout = timeout
	return b
}

// SetSignalHandling makes Create trap SIGINT and SIGTERM.
func (b *GatewayBuilder) SetSignalHandling(enabled bool) *GatewayBuilder {
	b.trapSignals = enabled
	return b
}

func (b *GatewayBuilder) AddShutdownFunc(shutdownFunc context.CancelFunc) *GatewayBuilder {
	b.shutdownFuncs = append(b.shutdownFuncs, shutdownFunc)
	return b
}

func (b *GatewayBuilder) Create() *Gateway {
	if b.trapSignals {
		go signalHandler(append(b.shutdownFuncs, b.gateway.Shutdown))
	}
	return b.gateway
}

// SetLogLevel sets the log level for internal logging. Needs to be called very
// early during startup to configure logs emitted during initialization
func SetLogLevel(logLevel string) {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		log.WithError(err).Fatal("Failed to set log level. Valid log levels are:", log.AllLevels)
	}

	log.SetLevel(level)
	log.SetFormatter(&logging.InternalFormatter{})
}

func SetInternalLogOutput(w io.Writer) {
	logging.SetOutput(w)
}

// Trap SIGINT and SIGTERM signals and call shutdown function
func signalHandler(shutdownFuncs []context.CancelFunc) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	sigReceived := <-sig
	log.WithField("signal", sigReceived.String()).Info("Received signal")
	for _, shutdownFunc := range shutdownFuncs {
		shutdownFunc()
	}
}
