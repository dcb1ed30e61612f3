// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"context"
	"time"

	"go.acqgw.io/gateway/consumer"
	"go.acqgw.io/gateway/workqueue"
)

// Queue is the part of the work queue exposed over HTTP.
type Queue interface {
	Enqueue(item string) error
	Drain(ctx context.Context) error
	Stats() workqueue.Stats
}

// ConsumerStatus reports the consumer loop's progress.
type ConsumerStatus interface {
	State() consumer.State
	StateLastModified() time.Time
	Failures() uint64
}
