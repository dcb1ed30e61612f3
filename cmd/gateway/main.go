// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/automaxprocs/maxprocs"

	"go.acqgw.io/gateway/fatalerror"
	"go.acqgw.io/gateway/gatewaycore"

	log "github.com/sirupsen/logrus"
)

func main() {
	opts, err := ParseCLIArgs(os.Args[1:])
	if err != nil {
		if isHelp(err) {
			fmt.Fprintln(os.Stdout, err)
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	gatewaycore.SetInternalLogOutput(os.Stderr)
	gatewaycore.SetLogLevel(opts.LogLevel)

	if _, err := maxprocs.Set(maxprocs.Logger(log.Debugf)); err != nil {
		log.WithError(err).Warn("Failed to set GOMAXPROCS")
	}

	std := streams{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	if err := run(context.Background(), opts, std, true); err != nil {
		log.WithError(err).WithField("errorType", fatalerror.TypeOf(err)).Fatal("Gateway failed")
	}
}
