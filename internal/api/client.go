/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"forex-portal-go/internal/metrics"
	"forex-portal-go/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

// GenericErrorMessage is shown when the backend reports a failure without a message.
const GenericErrorMessage = "Something went wrong. Please try again."

const (
	headerRequestId      = "X-Request-Id"
	headerIdempotencyKey = "Idempotency-Key"
	maxErrorBodyBytes    = 64 << 10
)

// ErrUnauthorized is returned when the backend rejects the session token.
// The session has already been invalidated when callers see it.
var ErrUnauthorized = errors.New("your session has expired, please log in again")

// APIError is a business failure reported by the backend: a non-2xx status
// or a success:false envelope. Error returns the server message verbatim.
type APIError struct {
	Status  int
	Path    string
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// TransportError wraps failures that happened before a response arrived.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("unable to reach server (%s %s): %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Invalidator is told when the backend answers 401 for an authenticated call.
type Invalidator interface {
	Invalidate(ctx context.Context, reason string) error
}

type Client struct {
	baseURL    string
	httpClient *http.Client

	mu          sync.RWMutex
	invalidator Invalidator
}

// NewClient builds a client with a tuned HTTP/2 capable transport.
func NewClient(cfg models.APIConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("api base url cannot be empty")
	}

	httpClient, err := createCustomHttpClient(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("unable to create custom http client: %w", err)
	}

	return NewClientWithHTTP(cfg.BaseURL, httpClient), nil
}

// NewClientWithHTTP uses the given http.Client as is.
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func createCustomHttpClient(timeout time.Duration) (*http.Client, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	tr := &http.Transport{
		ResponseHeaderTimeout: timeout,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   15 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, err
	}

	return &http.Client{
		Transport: metrics.InstrumentRoundTripper(tr),
		Timeout:   2 * timeout,
	}, nil
}

// SetInvalidator registers who is told about rejected sessions.
func (c *Client) SetInvalidator(inv Invalidator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidator = inv
}

type request struct {
	method         string
	path           string
	query          url.Values
	body           io.Reader
	contentType    string
	accept         string
	idempotencyKey string
	anonymous      bool
}

func (c *Client) newRequest(ctx context.Context, r request) (*http.Request, error) {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, r.body)
	if err != nil {
		return nil, fmt.Errorf("unable to build request: %w", err)
	}

	req.Header.Set(headerRequestId, uuid.New().String())
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	accept := r.accept
	if accept == "" {
		accept = "application/json"
	}
	req.Header.Set("Accept", accept)
	if r.idempotencyKey != "" {
		req.Header.Set(headerIdempotencyKey, r.idempotencyKey)
	}

	if !r.anonymous {
		session := models.GetSession(ctx)
		if !session.Active(time.Now()) {
			return nil, ErrUnauthorized
		}
		req.Header.Set("Authorization", "Bearer "+session.Token)
	}

	return req, nil
}

// send performs the request and handles transport failures and 401s.
// The caller owns the response body on success.
func (c *Client) send(ctx context.Context, r request) (*http.Response, error) {
	req, err := c.newRequest(ctx, r)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		zap.L().Warn("Request failed",
			zap.String("method", r.method),
			zap.String("path", r.path),
			zap.String("request_id", req.Header.Get(headerRequestId)),
			zap.Error(err))
		return nil, &TransportError{Method: r.method, Path: r.path, Err: err}
	}

	zap.L().Debug("Request completed",
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.String("request_id", req.Header.Get(headerRequestId)),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode == http.StatusUnauthorized && !r.anonymous {
		drainAndClose(resp.Body)
		c.invalidate(ctx)
		return nil, ErrUnauthorized
	}

	return resp, nil
}

func (c *Client) invalidate(ctx context.Context) {
	c.mu.RLock()
	inv := c.invalidator
	c.mu.RUnlock()

	if inv == nil {
		return
	}
	if err := inv.Invalidate(ctx, "unauthorized"); err != nil {
		zap.L().Warn("Failed to invalidate session after 401", zap.Error(err))
	}
}

// do sends a JSON request and decodes the envelope's data into out.
func (c *Client) do(ctx context.Context, r request, payload, out any) error {
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("unable to encode request: %w", err)
		}
		r.body = bytes.NewReader(body)
		r.contentType = "application/json"
	}

	resp, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	defer drainAndClose(resp.Body)

	return decodeEnvelope(resp, r.path, out)
}

func decodeEnvelope(resp *http.Response, path string, out any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Method: resp.Request.Method, Path: path, Err: err}
	}

	var env models.Envelope
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &env); err != nil {
			if resp.StatusCode >= 300 {
				return &APIError{Status: resp.StatusCode, Path: path, Message: GenericErrorMessage}
			}
			return fmt.Errorf("unable to decode response from %s: %w", path, err)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Success {
		return &APIError{Status: resp.StatusCode, Path: path, Message: envelopeMessage(env)}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("unable to decode %s data: %w", path, err)
	}
	return nil
}

// envelopeMessage extracts the user-facing message from a failed envelope.
// error may be a plain string or an object carrying a message field.
func envelopeMessage(env models.Envelope) string {
	if len(env.Error) > 0 {
		var s string
		if err := json.Unmarshal(env.Error, &s); err == nil && strings.TrimSpace(s) != "" {
			return s
		}
		var obj struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(env.Error, &obj); err == nil && strings.TrimSpace(obj.Message) != "" {
			return obj.Message
		}
	}
	if strings.TrimSpace(env.Message) != "" {
		return env.Message
	}
	return GenericErrorMessage
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxErrorBodyBytes))
	if err := body.Close(); err != nil {
		zap.L().Debug("Failed to close response body", zap.Error(err))
	}
}
