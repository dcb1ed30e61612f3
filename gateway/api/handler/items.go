// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/render"

	"go.acqgw.io/gateway/api/model"
	"go.acqgw.io/gateway/api/rendering"
	"go.acqgw.io/gateway/input"

	log "github.com/sirupsen/logrus"
)

type itemsHandler struct {
	queue    Queue
	sentinel string
}

func (h *itemsHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	body := http.MaxBytesReader(writer, request.Body, rendering.MaxPayloadSize)

	items, err := h.readItems(request, body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			rendering.RenderRequestEntityTooLarge(writer, request)
			return
		}
		rendering.RenderInvalidRequest(writer, request, "Failed to parse items: %s", err)
		return
	}

	resp := model.ItemsResponse{}
	for _, item := range items {
		// the sentinel only has meaning for streaming producers
		if item == "" || (h.sentinel != "" && item == h.sentinel) {
			resp.Skipped++
			continue
		}
		for _, chunk := range input.SplitToken(item) {
			if err := h.queue.Enqueue(chunk); err != nil {
				log.WithError(err).WithField("accepted", resp.Accepted).Warn("Ingest request rejected")
				rendering.RenderQueueStopped(writer, request, err)
				return
			}
			resp.Accepted++
		}
	}

	render.Status(request, http.StatusAccepted)
	render.JSON(writer, request, &resp)
}

func (h *itemsHandler) readItems(request *http.Request, body io.Reader) ([]string, error) {
	mediaType, _, _ := mime.ParseMediaType(request.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		req := model.ItemsRequest{}
		if err := render.DecodeJSON(body, &req); err != nil {
			return nil, err
		}
		return req.Items, nil
	}

	var items []string
	scanner := input.NewTokenScanner(body)
	for scanner.Scan() {
		items = append(items, scanner.Text())
	}
	return items, scanner.Err()
}

// NewItemsHandler returns a new instance of http handler
// for serving /v1/items.
func NewItemsHandler(queue Queue, sentinel string) http.Handler {
	return &itemsHandler{
		queue:    queue,
		sentinel: sentinel,
	}
}
