// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"io"
	"time"

	"go.acqgw.io/gateway/api"
	"go.acqgw.io/gateway/fatalerror"
	"go.acqgw.io/gateway/gatewaycore"
	"go.acqgw.io/gateway/input"
	"go.acqgw.io/gateway/logging"
	"go.acqgw.io/gateway/modbus"
	"go.acqgw.io/gateway/sink"
	"go.acqgw.io/gateway/udp"

	log "github.com/sirupsen/logrus"
)

const (
	kafkaClientID       = "acqgw"
	connectMaxElapsed   = 30 * time.Second
	modbusDeviceTimeout = 5 * time.Second
)

var errNoInput = errors.New("no input configured: stdin is disabled and no listener or device is set")

// streams are the process' standard streams, replaced in tests.
type streams struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// run executes the mode selected by opts and returns once it finished.
func run(ctx context.Context, opts options, std streams, trapSignals bool) error {
	if opts.UDPSend != "" {
		return sendTokens(ctx, opts, std.stdin)
	}

	gateway, closeAll, err := buildGateway(ctx, opts, std, trapSignals)
	if err != nil {
		return err
	}
	defer closeAll()

	return gateway.Run(ctx)
}

// sendTokens forwards stdin tokens to a remote gateway.
func sendTokens(ctx context.Context, opts options, stdin io.Reader) error {
	client := udp.NewClient(opts.UDPSend, opts.SendRate, opts.Sentinel)
	sent, err := client.Send(ctx, stdin, opts.Count)
	log.WithField("sent", sent).WithField("to", opts.UDPSend).Info("Finished sending tokens")
	if err != nil {
		return fatalerror.New(fatalerror.ProducerFailure, err)
	}
	return nil
}

// buildGateway creates the sink, opens every configured listener and device
// and registers the producers. The returned function releases listeners and
// devices that the gateway itself does not close.
func buildGateway(ctx context.Context, opts options, std streams, trapSignals bool) (*gatewaycore.Gateway, func(), error) {
	var closers []io.Closer
	closeAll := func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				log.WithError(err).Debug("Failed to close resource")
			}
		}
	}

	out, err := sinkFactory(ctx, opts, std)
	if err != nil {
		return nil, nil, err
	}

	// until Run owns the sink, a failed setup has to release it here
	abort := func(err error) (*gatewaycore.Gateway, func(), error) {
		closeAll()
		if closer, ok := out.(io.Closer); ok {
			if closeErr := closer.Close(); closeErr != nil {
				log.WithError(closeErr).Debug("Failed to close sink")
			}
		}
		return nil, nil, err
	}

	builder := gatewaycore.NewGatewayBuilder(out).
		SetDrainTimeout(opts.DrainTimeout).
		SetSignalHandling(trapSignals)
	queue := builder.Queue()

	finiteSet := false
	if !opts.NoStdin {
		reader := input.NewTokenReader(std.stdin, queue, opts.Count, opts.Sentinel)
		builder.SetFiniteProducer("stdin", func(ctx context.Context) error {
			_, err := reader.Run(ctx)
			if err != nil {
				return fatalerror.New(fatalerror.InputReadError, err)
			}
			return nil
		})
		finiteSet = true
	}

	producers := 0
	if opts.UDPListen != "" {
		server := udp.NewServer(opts.UDPListen, queue, opts.Count, opts.Sentinel)
		if err := server.Listen(); err != nil {
			return abort(fatalerror.New(fatalerror.ListenError, err))
		}
		closers = append(closers, server)
		log.WithField("addr", server.Addr().String()).Info("Receiving datagrams")

		if finiteSet {
			builder.AddProducer("udp", server.Serve)
		} else {
			builder.SetFiniteProducer("udp", server.Serve)
			finiteSet = true
		}
		producers++
	}

	if opts.HTTPListen != "" {
		server := api.NewServer(opts.HTTPListen, &api.Config{
			GatewayID:    builder.GatewayID(),
			Queue:        queue,
			Consumer:     builder.Consumer(),
			Sentinel:     opts.Sentinel,
			DrainTimeout: opts.DrainTimeout,
		})
		if err := server.Listen(); err != nil {
			return abort(fatalerror.New(fatalerror.ListenError, err))
		}
		closers = append(closers, server)
		log.WithField("url", server.URL("/v1/items")).Info("Ingest API listening")
		builder.AddProducer("http", server.Serve)
		producers++
	}

	if opts.ModbusAddress != "" {
		client, device, err := modbus.Dial(ctx, modbus.Config{
			Address:        opts.ModbusAddress,
			SlaveID:        opts.ModbusSlave,
			Timeout:        modbusDeviceTimeout,
			MaxElapsedTime: connectMaxElapsed,
		})
		if err != nil {
			return abort(fatalerror.New(fatalerror.ListenError, err))
		}
		closers = append(closers, device)
		poller := modbus.NewPoller(client, queue, opts.ModbusStart, opts.ModbusQuantity, opts.ModbusInterval)
		builder.AddProducer("modbus", poller.Run)
		producers++
	}

	if !finiteSet && producers == 0 {
		return abort(fatalerror.New(fatalerror.InvalidConfig, errNoInput))
	}

	return builder.Create(), closeAll, nil
}

var sinkFactory = newSink

func newSink(ctx context.Context, opts options, std streams) (sink.Sink, error) {
	if len(opts.KafkaBrokers) > 0 {
		kafka, err := sink.NewKafkaSink(ctx, &sink.KafkaConfig{
			Brokers:        opts.KafkaBrokers,
			Topic:          opts.KafkaTopic,
			ClientID:       kafkaClientID,
			Key:            opts.KafkaTopic,
			MaxElapsedTime: connectMaxElapsed,
		})
		if err != nil {
			return nil, fatalerror.New(fatalerror.SinkUnavailable, err)
		}
		return kafka, nil
	}

	tail := logging.NewTailWriter(std.stderr, logging.DefaultTailTag)
	if opts.TailLog {
		tail.Enable()
	}
	return sink.NewConsoleSink(std.stdout, tail, opts.OutputPrefix), nil
}
