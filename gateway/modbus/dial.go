// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package modbus

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/goburrow/modbus"

	log "github.com/sirupsen/logrus"
)

// Config describes a Modbus TCP device.
type Config struct {
	Address        string
	SlaveID        byte
	Timeout        time.Duration
	MaxElapsedTime time.Duration
}

// Dial connects to the device with exponential backoff. The returned closer
// releases the connection.
func Dial(ctx context.Context, cfg Config) (Client, io.Closer, error) {
	handler := modbus.NewTCPClientHandler(cfg.Address)
	handler.SlaveId = cfg.SlaveID
	handler.Timeout = cfg.Timeout
	if handler.Timeout == 0 {
		handler.Timeout = 5 * time.Second
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = time.Second
	expBackoff.MaxElapsedTime = cfg.MaxElapsedTime
	if expBackoff.MaxElapsedTime == 0 {
		expBackoff.MaxElapsedTime = time.Minute
	}

	operation := func() error {
		if err := handler.Connect(); err != nil {
			log.WithError(err).WithField("addr", cfg.Address).Warn("Failed to connect to Modbus device, will retry")
			return err
		}
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(expBackoff, ctx)); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to Modbus device %s: %w", cfg.Address, err)
	}

	log.WithField("addr", cfg.Address).WithField("slave", cfg.SlaveID).Info("Connected to Modbus device")
	return modbus.NewClient(handler), handler, nil
}
