// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

// Package transport is the HTTP client auth operations use to reach the
// remote API.
//
// Do follows one rule callers depend on: a nil *Response means no response
// was received (dial failure, timeout, cancelled context). A non-2xx status
// returns both the response and an error.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultTimeout bounds a whole request when none is configured.
const DefaultTimeout = 15 * time.Second

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 1 << 20

// RequestIDHeader carries the per-request ULID.
const RequestIDHeader = "X-Request-Id"

// TokenSource supplies the bearer token attached to outgoing requests.
type TokenSource interface {
	AccessToken() string
}

// Request describes one remote call.
type Request struct {
	Method string
	Path   string
	// Body is JSON-encoded when non-nil.
	Body any
	// Bearer overrides the TokenSource for this request.
	Bearer string
	Header http.Header
}

// Response is a received HTTP response with its body fully read.
type Response struct {
	Status    int
	Header    http.Header
	Body      []byte
	RequestID string
}

// OK reports whether Status is 2xx.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return oops.Code("RESPONSE_EMPTY").With("status", r.Status).Errorf("response body is empty")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return oops.Code("RESPONSE_DECODE_FAILED").With("status", r.Status).Wrap(err)
	}
	return nil
}

// Client issues JSON requests against a base URL.
type Client struct {
	base    *url.URL
	http    *http.Client
	tokens  TokenSource
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithTokenSource attaches bearer tokens from ts.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHTTPClient replaces the underlying client. Its transport is wrapped
// for tracing.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New creates a Client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, oops.Code("TRANSPORT_BASE_URL_EMPTY").Errorf("base URL is required")
	}
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		if err == nil {
			err = oops.Errorf("missing scheme or host")
		}
		return nil, oops.Code("TRANSPORT_BASE_URL_INVALID").With("base_url", baseURL).Wrap(err)
	}

	c := &Client{
		base:    base,
		http:    &http.Client{},
		logger:  slog.New(slog.DiscardHandler),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	rt := c.http.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	wrapped := *c.http
	wrapped.Transport = otelhttp.NewTransport(rt)
	c.http = &wrapped
	return c, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.base.String() }

// Do performs req. See the package doc for the response/error contract.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	requestID := ulid.Make().String()
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := c.build(ctx, req, requestID)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		c.log(ctx, req, requestID, 0, start, err)
		return nil, oops.Code("TRANSPORT_FAILED").
			With("method", req.Method).
			With("path", req.Path).
			With("request_id", requestID).
			Wrap(err)
	}
	defer func() { _ = httpResp.Body.Close() }() //nolint:errcheck // body fully read

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes+1))
	if err != nil {
		c.log(ctx, req, requestID, httpResp.StatusCode, start, err)
		return nil, oops.Code("TRANSPORT_READ_FAILED").
			With("path", req.Path).
			With("status", httpResp.StatusCode).
			With("request_id", requestID).
			Wrap(err)
	}

	resp := &Response{
		Status:    httpResp.StatusCode,
		Header:    httpResp.Header,
		Body:      body,
		RequestID: requestID,
	}
	if len(body) > maxBodyBytes {
		resp.Body = body[:maxBodyBytes]
		sizeErr := oops.Code("RESPONSE_TOO_LARGE").
			With("path", req.Path).
			With("status", resp.Status).
			With("limit", maxBodyBytes).
			With("request_id", requestID).
			Errorf("%s %s: response body exceeds %d bytes", req.Method, req.Path, maxBodyBytes)
		c.log(ctx, req, requestID, resp.Status, start, sizeErr)
		return resp, sizeErr
	}
	if !resp.OK() {
		statusErr := oops.Code("HTTP_STATUS").
			With("path", req.Path).
			With("status", resp.Status).
			With("request_id", requestID).
			Errorf("%s %s: %s", req.Method, req.Path, http.StatusText(resp.Status))
		c.log(ctx, req, requestID, resp.Status, start, statusErr)
		return resp, statusErr
	}

	c.log(ctx, req, requestID, resp.Status, start, nil)
	return resp, nil
}

func (c *Client) build(ctx context.Context, req Request, requestID string) (*http.Request, error) {
	ref, err := url.Parse(strings.TrimPrefix(req.Path, "/"))
	if err != nil {
		return nil, oops.Code("TRANSPORT_BAD_PATH").With("path", req.Path).Wrap(err)
	}
	target := *c.base
	if !strings.HasSuffix(target.Path, "/") {
		target.Path += "/"
	}
	u := target.ResolveReference(ref)

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, oops.Code("TRANSPORT_ENCODE_FAILED").With("path", req.Path).Wrap(err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, oops.Code("TRANSPORT_BAD_REQUEST").With("path", req.Path).Wrap(err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set(RequestIDHeader, requestID)

	if httpReq.Header.Get("Authorization") == "" {
		token := req.Bearer
		if token == "" && c.tokens != nil {
			token = c.tokens.AccessToken()
		}
		if token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return httpReq, nil
}

func (c *Client) log(ctx context.Context, req Request, requestID string, status int, start time.Time, err error) {
	attrs := []any{
		"event", "http",
		"method", req.Method,
		"path", req.Path,
		"status", status,
		"dur", time.Since(start),
		"request_id", requestID,
	}
	switch {
	case err != nil && status < 300:
		c.logger.WarnContext(ctx, "http", append(attrs, "error", err.Error())...)
	case status >= 500:
		c.logger.WarnContext(ctx, "http", attrs...)
	default:
		c.logger.InfoContext(ctx, "http", attrs...)
	}
}
