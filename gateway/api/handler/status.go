// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"net/http"
	"time"

	"go.acqgw.io/gateway/api/model"
	"go.acqgw.io/gateway/api/rendering"

	log "github.com/sirupsen/logrus"
)

type statusHandler struct {
	gatewayID string
	queue     Queue
	consumer  ConsumerStatus
}

func (h *statusHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	stats := h.queue.Stats()
	resp := &model.GatewayStatusResponse{
		GatewayID:     h.gatewayID,
		Depth:         stats.Depth,
		InFlight:      stats.InFlight,
		Stopped:       stats.Stopped,
		Enqueued:      stats.Enqueued,
		Dequeued:      stats.Dequeued,
		Completed:     stats.Completed,
		ConsumerState: h.consumer.State().String(),
		SinkFailures:  h.consumer.Failures(),

		ConsumerStateSince: h.consumer.StateLastModified().UTC().Format(time.RFC3339Nano),
	}

	if err := rendering.RenderJSON(http.StatusOK, writer, request, resp); err != nil {
		log.WithError(err).Error("Failed to render status")
		rendering.RenderInternalServerError(writer, request)
	}
}

// NewStatusHandler returns a new instance of http handler
// for serving /v1/status.
func NewStatusHandler(gatewayID string, queue Queue, consumer ConsumerStatus) http.Handler {
	return &statusHandler{
		gatewayID: gatewayID,
		queue:     queue,
		consumer:  consumer,
	}
}
