// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package udp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"go.acqgw.io/gateway/input"

	log "github.com/sirupsen/logrus"
)

const maxDatagramSize = 64 * 1024

// ErrNotListening is returned by Serve before Listen succeeded.
var ErrNotListening = errors.New("udp server is not listening")

// Server enqueues the tokens of every received datagram.
type Server struct {
	addr     string
	queue    input.Enqueuer
	count    int
	sentinel string
	conn     net.PacketConn
}

// NewServer returns a datagram producer bound to addr once Listen is called.
//
// Like the Runtime API server, Listen and Serve are separate so that the
// socket is bound before anyone is told to send to it.
func NewServer(addr string, q input.Enqueuer, count int, sentinel string) *Server {
	return &Server{
		addr:     addr,
		queue:    q,
		count:    count,
		sentinel: sentinel,
	}
}

// Listen binds the UDP socket.
func (s *Server) Listen() error {
	conn, err := net.ListenPacket("udp", s.addr)
	if err != nil {
		return err
	}
	s.conn = conn
	log.WithField("addr", conn.LocalAddr().String()).Info("UDP producer listening")
	return nil
}

// Addr returns the bound address, nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// Serve receives datagrams until the sentinel arrives, the item budget is
// exhausted or ctx is canceled. Every whitespace separated token of a
// datagram is one item. Serve closes the socket on return.
func (s *Server) Serve(ctx context.Context) error {
	if s.conn == nil {
		return ErrNotListening
	}
	defer s.conn.Close()

	stopClose := context.AfterFunc(ctx, func() { s.conn.Close() })
	defer stopClose()

	budget := input.NewBudget(s.count)
	buf := make([]byte, maxDatagramSize)

	for {
		n, from, err := s.conn.ReadFrom(buf)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("failed to receive datagram: %w", err)
		}

		for _, token := range strings.Fields(string(buf[:n])) {
			if s.sentinel != "" && token == s.sentinel {
				log.WithField("from", from.String()).Info("Sentinel received, no longer accepting datagrams")
				return nil
			}

			for _, chunk := range input.SplitToken(token) {
				if err := s.queue.Enqueue(chunk); err != nil {
					return fmt.Errorf("failed to enqueue datagram: %w", err)
				}
				if budget.Take() {
					log.Debug("Datagram budget exhausted")
					return nil
				}
			}
		}
	}
}

// Close closes the socket.
func (s *Server) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
