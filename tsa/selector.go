// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package tsa

import (
	"context"
	"errors"
	"sync"

	"github.com/jarsign/jarsign/jarsignerr"
)

// ErrNoEndpoints is returned by NewSelector when given an empty endpoint list.
var ErrNoEndpoints = errors.New("tsa: selector needs at least one endpoint")

// Selector round-robins over a fixed set of TSA endpoints, rotating away
// from one that just failed a retryable way (TsaRejected, TsaTransport,
// Timeout per jarsignerr.Kind.Retryable) rather than hammering the same
// unreachable TSA.
type Selector struct {
	mu        sync.Mutex
	endpoints []string
	next      int
}

// NewSelector returns a Selector cycling over endpoints in the given order.
func NewSelector(endpoints ...string) (*Selector, error) {
	if len(endpoints) == 0 {
		return nil, ErrNoEndpoints
	}
	return &Selector{endpoints: append([]string(nil), endpoints...)}, nil
}

// current returns the endpoint the next Query should use.
func (s *Selector) current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endpoints[s.next%len(s.endpoints)]
}

// advance rotates to the next endpoint.
func (s *Selector) advance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next = (s.next + 1) % len(s.endpoints)
}

// Query drives c.Query against the Selector's current endpoint, rotating
// and retrying once per remaining endpoint on a jarsignerr-retryable
// failure. It returns the first success, or the last failure once every
// endpoint has been tried.
func (s *Selector) Query(ctx context.Context, c *Client, req *Request) (*Timestamp, error) {
	var lastErr error
	for i := 0; i < len(s.endpoints); i++ {
		endpoint := s.current()
		ts, err := c.Query(ctx, endpoint, req)
		if err == nil {
			return ts, nil
		}
		lastErr = err
		var je *jarsignerr.Error
		if !errors.As(err, &je) || !je.Retryable() {
			return nil, err
		}
		s.advance()
	}
	return nil, lastErr
}
