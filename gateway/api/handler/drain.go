// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"go.acqgw.io/gateway/api/model"
	"go.acqgw.io/gateway/api/rendering"
)

type drainHandler struct {
	queue   Queue
	timeout time.Duration
}

func (h *drainHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	if err := h.queue.Drain(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			rendering.RenderDrainTimeout(writer, request, err)
			return
		}
		rendering.RenderQueueStopped(writer, request, err)
		return
	}

	render.Status(request, http.StatusOK)
	render.JSON(writer, request, &model.StatusResponse{Status: "drained"})
}

// NewDrainHandler returns a new instance of http handler
// for serving /v1/drain. A zero timeout waits as long as the client does.
func NewDrainHandler(queue Queue, timeout time.Duration) http.Handler {
	return &drainHandler{
		queue:   queue,
		timeout: timeout,
	}
}
