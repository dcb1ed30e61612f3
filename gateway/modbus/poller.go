// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package modbus

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"go.acqgw.io/gateway/input"

	log "github.com/sirupsen/logrus"
)

// ErrShortResponse is returned when a device answers with fewer register
// bytes than requested.
var ErrShortResponse = errors.New("short register response")

// Client is the part of a Modbus client the poller needs.
type Client interface {
	ReadHoldingRegisters(address, quantity uint16) (results []byte, err error)
}

// FormatRegister renders one register reading as an item.
func FormatRegister(index, value uint16) string {
	return fmt.Sprintf("register %d = %d", index, value)
}

// Poller periodically reads a block of holding registers and enqueues every
// register as one item.
type Poller struct {
	client   Client
	queue    input.Enqueuer
	start    uint16
	quantity uint16
	limiter  *rate.Limiter
}

// NewPoller returns a poller reading quantity registers from start once per
// interval.
func NewPoller(client Client, q input.Enqueuer, start, quantity uint16, interval time.Duration) *Poller {
	return &Poller{
		client:   client,
		queue:    q,
		start:    start,
		quantity: quantity,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Run polls until ctx is canceled and returns ctx.Err(). A failed read is
// logged and retried on the next tick; only a failed enqueue ends the loop
// early.
func (p *Poller) Run(ctx context.Context) error {
	log.WithField("start", p.start).WithField("quantity", p.quantity).Info("Register poller starting")

	for {
		if err := p.limiter.Wait(ctx); err != nil {
			<-ctx.Done()
			return ctx.Err()
		}

		values, err := p.Read()
		if err != nil {
			log.WithError(err).Warn("Failed to read holding registers")
			continue
		}

		if err := p.enqueue(values); err != nil {
			return err
		}
	}
}

// Read performs one register read and decodes the big-endian values.
func (p *Poller) Read() ([]uint16, error) {
	raw, err := p.client.ReadHoldingRegisters(p.start, p.quantity)
	if err != nil {
		return nil, err
	}
	if len(raw) < 2*int(p.quantity) {
		return nil, fmt.Errorf("%w: got %d bytes for %d registers", ErrShortResponse, len(raw), p.quantity)
	}

	values := make([]uint16, p.quantity)
	for i := range values {
		values[i] = binary.BigEndian.Uint16(raw[2*i:])
	}
	return values, nil
}

func (p *Poller) enqueue(values []uint16) error {
	for i, v := range values {
		if err := p.queue.Enqueue(FormatRegister(p.start+uint16(i), v)); err != nil {
			return fmt.Errorf("failed to enqueue register reading: %w", err)
		}
	}
	return nil
}
