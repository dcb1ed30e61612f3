// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package udp

import (
	"context"
	"fmt"
	"io"
	"net"

	"golang.org/x/time/rate"

	"go.acqgw.io/gateway/input"

	log "github.com/sirupsen/logrus"
)

// Client sends tokens read from a stream to a remote gateway, one token per
// datagram.
type Client struct {
	addr     string
	limiter  *rate.Limiter
	sentinel string
}

// NewClient returns a client sending to addr at most ratePerSecond
// datagrams per second; zero or negative disables pacing. A non-empty
// sentinel is sent after the last token.
func NewClient(addr string, ratePerSecond float64, sentinel string) *Client {
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	return &Client{
		addr:     addr,
		limiter:  rate.NewLimiter(limit, 1),
		sentinel: sentinel,
	}
}

// Send forwards tokens from r until EOF, the sentinel or the count budget,
// then sends the sentinel. It returns the number of tokens sent, the
// sentinel excluded.
func (c *Client) Send(ctx context.Context, r io.Reader, count int) (int, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", c.addr)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	budget := input.NewBudget(count)
	scanner := input.NewTokenScanner(r)

	sent := 0
	for scanner.Scan() {
		token := scanner.Text()
		if c.sentinel != "" && token == c.sentinel {
			break
		}

		if err := c.send(ctx, conn, token); err != nil {
			return sent, err
		}
		sent++
		if budget.Take() {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		return sent, fmt.Errorf("failed to read input: %w", err)
	}

	if c.sentinel != "" {
		if err := c.send(ctx, conn, c.sentinel); err != nil {
			return sent, err
		}
	}

	log.WithField("sent", sent).WithField("addr", c.addr).Info("Finished sending tokens")
	return sent, nil
}

func (c *Client) send(ctx context.Context, conn net.Conn, token string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := conn.Write([]byte(token)); err != nil {
		return fmt.Errorf("failed to send datagram: %w", err)
	}
	return nil
}
