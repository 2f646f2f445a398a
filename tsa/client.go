// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package tsa

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/jarsign/jarsign/cms"
	"github.com/jarsign/jarsign/jarsignerr"
)

// Defaults
const (
	// DefaultTimeout is the default per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second

	contentTypeQuery = "application/timestamp-query"
	contentTypeReply = "application/timestamp-reply"

	// MaxResponseBytes caps how much of a TSA's HTTP body this client will
	// read before giving up, independent of any Content-Length the server
	// claims.
	MaxResponseBytes = 1 << 20
)

// Client talks RFC 3161's HTTP binding to a timestamp authority.
type Client struct {
	http      *http.Client
	timeout   time.Duration
	userAgent string
}

// Option configures a Client built by NewClient.
type Option func(*Client) error

var (
	// ErrInvalidTimeout is returned by WithTimeout for a non-positive duration.
	ErrInvalidTimeout = errors.New("tsa: timeout must be positive")
	// ErrNoHTTPClient is returned by WithHTTPClient for a nil *http.Client.
	ErrNoHTTPClient = errors.New("tsa: http client cannot be nil")
)

// NewClient returns a Client with sensible defaults, overridden by opts.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		http:      &http.Client{Timeout: DefaultTimeout},
		timeout:   DefaultTimeout,
		userAgent: "jarsign-tsa-client/1",
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return c, nil
}

// WithHTTPClient overrides the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return ErrNoHTTPClient
		}
		c.http = hc
		return nil
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return ErrInvalidTimeout
		}
		c.timeout = d
		return nil
	}
}

// WithUserAgent overrides the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		c.userAgent = ua
		return nil
	}
}

// Timestamp is the result of a successful round trip: the parsed TSTInfo
// alongside the raw TimeStampToken, ready to be embedded as an unsigned
// signatureTimeStampToken attribute on a JAR SignerInfo.
type Timestamp struct {
	Info  *TSTInfo
	Token cms.ContentInfo
	Raw   []byte // the token's raw DER, as received
}

// Query sends req to endpoint and returns the parsed, granted Timestamp.
// A non-granted PKIStatus surfaces as a jarsignerr.Error of Kind
// TsaRejected; any transport-level failure (dial, non-200 status, wrong
// content type, body too large) surfaces as Kind TsaTransport; a context
// deadline surfaces as Kind Timeout.
func (c *Client) Query(ctx context.Context, endpoint string, req *Request) (*Timestamp, error) {
	reqBytes, err := req.Marshal()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBytes))
	if err != nil {
		return nil, jarsignerr.New(jarsignerr.TsaTransport, err)
	}
	httpReq.Header.Set("Content-Type", contentTypeQuery)
	httpReq.Header.Set("User-Agent", c.userAgent)

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, jarsignerr.New(jarsignerr.Timeout, err)
		}
		return nil, jarsignerr.New(jarsignerr.TsaTransport, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, MaxResponseBytes+1))
	if err != nil {
		return nil, jarsignerr.New(jarsignerr.TsaTransport, err)
	}
	if len(body) > MaxResponseBytes {
		return nil, jarsignerr.New(jarsignerr.TsaTransport, fmt.Errorf("response body exceeds %d bytes", MaxResponseBytes))
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, jarsignerr.New(jarsignerr.TsaTransport, fmt.Errorf("HTTP %d from %s", httpResp.StatusCode, endpoint))
	}
	if mt, _, err := mime.ParseMediaType(httpResp.Header.Get("Content-Type")); err != nil || mt != contentTypeReply {
		return nil, jarsignerr.New(jarsignerr.TsaTransport, fmt.Errorf("unexpected Content-Type %q from %s", httpResp.Header.Get("Content-Type"), endpoint))
	}

	resp, err := ParseResponse(body)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	ci, err := resp.Token()
	if err != nil {
		return nil, err
	}
	sd, err := ci.SignedData()
	if err != nil {
		return nil, err
	}
	if sd.EContent == nil {
		return nil, jarsignerr.New(jarsignerr.InvalidEncoding, fmt.Errorf("TimeStampToken carries no eContent"))
	}
	info, err := ParseTSTInfo(sd.EContent)
	if err != nil {
		return nil, err
	}
	if req.Nonce != nil && (info.Nonce == nil || info.Nonce.Cmp(req.Nonce) != 0) {
		return nil, jarsignerr.New(jarsignerr.TsaRejected, fmt.Errorf("response nonce does not match request"))
	}

	return &Timestamp{Info: info, Token: ci, Raw: resp.TokenRaw}, nil
}
