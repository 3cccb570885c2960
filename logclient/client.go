// Spicelog - Centralized Log Ingestion and Query Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spicelog

// Package logclient is the fire-and-forget client SDK for applications
// shipping structured logs to a Spicelog server.
//
// Delivery is best-effort: when the remote send fails, times out, or is
// short-circuited by the breaker, the same record is emitted once to the
// local console instead. No method returns a delivery error and no
// method panics; logging must never take the calling application down.
package logclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
)

// DefaultTimeout bounds each remote send.
const DefaultTimeout = 2 * time.Second

// Options configures optional client behavior.
type Options struct {
	// Timeout bounds each remote send. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Silent skips remote delivery entirely; records go straight to the
	// local console. Useful in development and tests.
	Silent bool

	// HTTPClient overrides the transport. Its Timeout is ignored; the
	// per-request timeout comes from Timeout above.
	HTTPClient *http.Client

	// FallbackWriter receives local emissions. Defaults to os.Stderr.
	FallbackWriter io.Writer
}

// Client ships structured log records to a Spicelog server.
//
// A circuit breaker wraps remote sends: after five consecutive delivery
// failures the breaker opens and records short-circuit to the local
// fallback without waiting out the timeout, until a probe succeeds.
type Client struct {
	service    string
	endpoint   string
	timeout    time.Duration
	silent     bool
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[struct{}]
	local      zerolog.Logger
}

// New creates a client for the given service name and server base URL.
func New(service, serverURL string, opts Options) (*Client, error) {
	service = strings.TrimSpace(service)
	if service == "" {
		return nil, errors.New("service name is required")
	}

	serverURL = strings.TrimRight(strings.TrimSpace(serverURL), "/")
	if serverURL == "" {
		return nil, errors.New("server URL is required")
	}
	parsed, err := url.Parse(serverURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("invalid server URL %q", serverURL)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.FallbackWriter == nil {
		opts.FallbackWriter = os.Stderr
	}

	local := zerolog.New(zerolog.ConsoleWriter{Out: opts.FallbackWriter}).
		With().
		Timestamp().
		Str("service", service).
		Logger()

	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "logclient-" + service,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		service:    service,
		endpoint:   serverURL + "/api/logs",
		timeout:    opts.Timeout,
		silent:     opts.Silent,
		httpClient: opts.HTTPClient,
		breaker:    breaker,
		local:      local,
	}, nil
}

// Info ships an info-level record.
func (c *Client) Info(ctx context.Context, message string, metadata map[string]any) {
	c.send(ctx, "info", message, metadata, "")
}

// Warn ships a warn-level record.
func (c *Client) Warn(ctx context.Context, message string, metadata map[string]any) {
	c.send(ctx, "warn", message, metadata, "")
}

// Debug ships a debug-level record.
func (c *Client) Debug(ctx context.Context, message string, metadata map[string]any) {
	c.send(ctx, "debug", message, metadata, "")
}

// Error ships an error-level record. When err is non-nil its message is
// added to the metadata and the caller's stack trace is attached.
func (c *Client) Error(ctx context.Context, message string, err error, metadata map[string]any) {
	var stack string
	if err != nil {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata["errorMessage"] = err.Error()
		stack = string(debug.Stack())
	}
	c.send(ctx, "error", message, metadata, stack)
}

type wirePayload struct {
	Service  string         `json:"service"`
	Level    string         `json:"level"`
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Stack    string         `json:"stack,omitempty"`
}

func (c *Client) send(ctx context.Context, level, message string, metadata map[string]any, stack string) {
	defer func() {
		if r := recover(); r != nil {
			c.emitLocal("error", fmt.Sprintf("log delivery panicked: %v", r), nil)
		}
	}()

	if c.silent {
		c.emitLocal(level, message, metadata)
		return
	}

	_, err := c.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, c.post(ctx, wirePayload{
			Service:  c.service,
			Level:    level,
			Message:  message,
			Metadata: metadata,
			Stack:    stack,
		})
	})
	if err != nil {
		// One-shot local duplicate, not a retry.
		c.emitLocal(level, message, metadata)
		c.local.Debug().Err(err).Msg("Failed to send log to remote server")
	}
}

func (c *Client) post(ctx context.Context, payload wirePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) emitLocal(level, message string, metadata map[string]any) {
	var event *zerolog.Event
	switch level {
	case "error":
		event = c.local.Error()
	case "warn":
		event = c.local.Warn()
	case "debug":
		event = c.local.Debug()
	default:
		event = c.local.Info()
	}
	if len(metadata) > 0 {
		event = event.Fields(metadata)
	}
	event.Msg(message)
}
