// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jessevdk/go-flags"

	"go.acqgw.io/gateway/fatalerror"
)

// maxRegisterQuantity is the protocol limit for one holding register read.
const maxRegisterQuantity = 125

type options struct {
	ConfigFile   string        `long:"config" description:"INI file providing option values; command line flags take precedence"`
	Count        int           `short:"c" long:"count" default:"-1" env:"GATEWAY_COUNT" description:"number of input items to accept before draining and exiting (-1: unbounded)"`
	Sentinel     string        `long:"sentinel" default:"exit" description:"token that stops producers from accepting input (empty: disabled)"`
	LogLevel     string        `long:"log-level" default:"info" env:"LOG_LEVEL" description:"log level"`
	OutputPrefix string        `long:"output-prefix" default:"Print thread: " description:"prefix of every console output line"`
	TailLog      bool          `long:"tail-log" description:"mirror item output to stderr"`
	NoStdin      bool          `long:"no-stdin" description:"do not read tokens from stdin"`
	DrainTimeout time.Duration `long:"drain-timeout" default:"10s" description:"how long shutdown waits for the queue to drain (0: forever)"`

	UDPListen string  `long:"udp-listen" env:"GATEWAY_UDP_LISTEN" description:"address to receive token datagrams on"`
	UDPSend   string  `long:"udp-send" description:"send stdin tokens to a remote gateway at this address and exit"`
	SendRate  float64 `long:"send-rate" default:"0" description:"datagrams per second when sending (0: unpaced)"`

	HTTPListen string `long:"http-listen" env:"GATEWAY_HTTP_LISTEN" description:"address of the ingest API"`

	ModbusAddress  string        `long:"modbus-address" env:"GATEWAY_MODBUS_ADDRESS" description:"host:port of a Modbus TCP device to poll"`
	ModbusSlave    uint8         `long:"modbus-slave" default:"1" description:"Modbus unit id"`
	ModbusStart    uint16        `long:"modbus-start" default:"0" description:"first holding register to read"`
	ModbusQuantity uint16        `long:"modbus-quantity" default:"1" description:"number of holding registers to read"`
	ModbusInterval time.Duration `long:"modbus-interval" default:"1s" description:"register polling interval"`

	KafkaBrokers []string `long:"kafka-brokers" env:"KAFKA_BROKERS" env-delim:"," description:"publish items to Kafka instead of stdout"`
	KafkaTopic   string   `long:"kafka-topic" default:"gateway-items" env:"KAFKA_TOPIC" description:"Kafka topic for items"`
}

type configFileOption struct {
	ConfigFile string `long:"config"`
}

// ParseCLIArgs parses args (without the program name). Values from the
// --config INI file are applied first, flags and environment override them.
func ParseCLIArgs(args []string) (options, error) {
	var pre configFileOption
	if _, err := flags.NewParser(&pre, flags.IgnoreUnknown).ParseArgs(args); err != nil {
		return options{}, fatalerror.New(fatalerror.InvalidConfig, err)
	}

	var opts options
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)

	if pre.ConfigFile != "" {
		if err := flags.NewIniParser(parser).ParseFile(pre.ConfigFile); err != nil {
			return options{}, fatalerror.New(fatalerror.InvalidConfig, fmt.Errorf("failed to read %s: %w", pre.ConfigFile, err))
		}
	}

	if _, err := parser.ParseArgs(args); err != nil {
		return options{}, err
	}

	if err := opts.validate(); err != nil {
		return options{}, fatalerror.New(fatalerror.InvalidConfig, err)
	}

	return opts, nil
}

func (o *options) validate() error {
	if o.ModbusAddress != "" && (o.ModbusQuantity == 0 || o.ModbusQuantity > maxRegisterQuantity) {
		return fmt.Errorf("--modbus-quantity must be between 1 and %d", maxRegisterQuantity)
	}
	if o.ModbusAddress != "" && int(o.ModbusStart)+int(o.ModbusQuantity) > math.MaxUint16+1 {
		return fmt.Errorf("--modbus-start %d plus --modbus-quantity %d exceeds the register address space", o.ModbusStart, o.ModbusQuantity)
	}
	if o.ModbusAddress != "" && o.ModbusInterval <= 0 {
		return errors.New("--modbus-interval must be positive")
	}
	if o.UDPSend != "" && o.UDPListen != "" {
		return errors.New("--udp-send and --udp-listen are mutually exclusive")
	}
	if o.DrainTimeout < 0 {
		return errors.New("--drain-timeout must not be negative")
	}
	return nil
}

// isHelp reports whether err is go-flags' request to print usage.
func isHelp(err error) bool {
	var flagsErr *flags.Error
	return errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp
}
