// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"go.acqgw.io/gateway/api/handler"
	"go.acqgw.io/gateway/api/middleware"
)

const version1 = "/v1"

// Config carries what the ingest API exposes.
type Config struct {
	GatewayID    string
	Queue        handler.Queue
	Consumer     handler.ConsumerStatus
	Sentinel     string
	DrainTimeout time.Duration
}

// NewRouter returns a new instance of chi router implementing
// the gateway ingest API.
func NewRouter(cfg *Config) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.AccessLogMiddleware())

	router.Get("/ping", handler.NewPingHandler().ServeHTTP)

	router.Route(version1, func(r chi.Router) {
		r.Post("/items", handler.NewItemsHandler(cfg.Queue, cfg.Sentinel).ServeHTTP)
		r.Post("/drain", handler.NewDrainHandler(cfg.Queue, cfg.DrainTimeout).ServeHTTP)
		r.Get("/status", handler.NewStatusHandler(cfg.GatewayID, cfg.Queue, cfg.Consumer).ServeHTTP)
	})

	return router
}
