// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package rendering

import (
	"fmt"
	"net/http"

	"go.acqgw.io/gateway/api/model"

	log "github.com/sirupsen/logrus"
)

const (
	ErrorTypeInternalServerError   = "InternalServerError"
	ErrorTypeInvalidRequest        = "InvalidRequest"
	ErrorTypeRequestEntityTooLarge = "RequestEntityTooLarge"
	ErrorTypeQueueStopped          = "Queue.Stopped"
	ErrorTypeDrainTimeout          = "Queue.DrainTimeout"
)

// MaxPayloadSize bounds the body of an ingest request.
const MaxPayloadSize = 1024 * 1024

func renderError(w http.ResponseWriter, r *http.Request, status int, errorType string, format string, args ...interface{}) {
	if err := RenderJSON(status, w, r, &model.ErrorResponse{
		ErrorType:    errorType,
		ErrorMessage: fmt.Sprintf(format, args...),
	}); err != nil {
		log.WithError(err).Warn("Error while rendering response")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// RenderInvalidRequest renders a malformed request error response
func RenderInvalidRequest(w http.ResponseWriter, r *http.Request, format string, args ...interface{}) {
	renderError(w, r, http.StatusBadRequest, ErrorTypeInvalidRequest, format, args...)
}

// RenderInternalServerError method for rendering error response
func RenderInternalServerError(w http.ResponseWriter, r *http.Request) {
	renderError(w, r, http.StatusInternalServerError, ErrorTypeInternalServerError, "Internal Server Error")
}

// RenderRequestEntityTooLarge method for rendering error response
func RenderRequestEntityTooLarge(w http.ResponseWriter, r *http.Request) {
	renderError(w, r, http.StatusRequestEntityTooLarge, ErrorTypeRequestEntityTooLarge,
		"Exceeded maximum allowed payload size (%d bytes).", MaxPayloadSize)
}

// RenderQueueStopped renders the response for requests arriving after shutdown began
func RenderQueueStopped(w http.ResponseWriter, r *http.Request, err error) {
	renderError(w, r, http.StatusServiceUnavailable, ErrorTypeQueueStopped, "Work queue is stopped: %s", err)
}

// RenderDrainTimeout renders the response for a drain that did not finish in time
func RenderDrainTimeout(w http.ResponseWriter, r *http.Request, err error) {
	renderError(w, r, http.StatusGatewayTimeout, ErrorTypeDrainTimeout, "Work queue did not drain: %s", err)
}
