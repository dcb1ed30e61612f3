// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// Server is the ingest API server
type Server struct {
	addr     string
	server   *http.Server
	listener net.Listener
}

// NewServer creates a new ingest API Server
//
// Unlike net/http server's ListenAndServe, we separate Listen()
// and Serve(), this is done to guarantee order: call to Listen()
// should happen before producers report the gateway as ready.
//
// When the port is 0, OS will dynamically allocate the listening port.
func NewServer(addr string, cfg *Config) *Server {
	return &Server{
		addr:   addr,
		server: &http.Server{Handler: NewRouter(cfg)},
	}
}

// Listen on addr
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.listener = ln
	log.WithField("addr", ln.Addr().String()).Info("Ingest API listening")
	return nil
}

// Addr returns the bound address, nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// URL is full server url for specified endpoint
func (s *Server) URL(endpoint string) string {
	return fmt.Sprintf("http://%s%s", s.Addr(), endpoint)
}

// Serve requests until ctx is canceled, then shut down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		return errors.New("ingest API is not listening")
	}

	errs := make(chan error, 1)
	go func() {
		errs <- s.server.Serve(s.listener)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		if err := s.server.Shutdown(context.Background()); err != nil {
			log.WithError(err).Warn("Ingest API shutdown failed")
		}
		<-errs
		log.Info("Ingest API closed")
		return ctx.Err()
	}
}

// Close forcefully closes listeners & connections
func (s *Server) Close() error {
	return s.server.Close()
}
