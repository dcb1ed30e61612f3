// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package model

// StatusResponse is a response returned by the API server,
// providing status information.
type StatusResponse struct {
	Status string `json:"status"`
}

// GatewayStatusResponse describes the queue and the consumer loop.
type GatewayStatusResponse struct {
	GatewayID     string `json:"gatewayId,omitempty"`
	Depth         int    `json:"depth"`
	InFlight      bool   `json:"inFlight"`
	Stopped       bool   `json:"stopped"`
	Enqueued      uint64 `json:"enqueued"`
	Dequeued      uint64 `json:"dequeued"`
	Completed     uint64 `json:"completed"`
	ConsumerState string `json:"consumerState"`
	// ConsumerStateSince is when the consumer entered ConsumerState, RFC 3339.
	ConsumerStateSince string `json:"consumerStateSince"`
	SinkFailures       uint64 `json:"sinkFailures"`
}
