// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package model

// ItemsRequest is the JSON body of an ingest request.
type ItemsRequest struct {
	Items []string `json:"items"`
}

// ItemsResponse reports how many items of an ingest request were enqueued.
type ItemsResponse struct {
	Accepted int `json:"accepted"`
	Skipped  int `json:"skipped,omitempty"`
}
