// Spicelog - Centralized Log Ingestion and Query Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spicelog

package logclient

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Service  string         `json:"service"`
	Level    string         `json:"level"`
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata"`
	Stack    string         `json:"stack"`
}

type captureServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []capturedRequest
}

func newCaptureServer(t *testing.T, status int) *captureServer {
	t.Helper()

	cs := &captureServer{}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req capturedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		cs.mu.Lock()
		cs.requests = append(cs.requests, req)
		cs.mu.Unlock()

		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	t.Cleanup(cs.Close)
	return cs
}

func (cs *captureServer) received() []capturedRequest {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return append([]capturedRequest(nil), cs.requests...)
}

func TestNewValidation(t *testing.T) {
	_, err := New("", "http://localhost:8080", Options{})
	assert.Error(t, err)

	_, err = New("api", "", Options{})
	assert.Error(t, err)

	_, err = New("api", "not a url", Options{})
	assert.Error(t, err)

	c, err := New("  api  ", "http://localhost:8080/", Options{})
	require.NoError(t, err)
	assert.Equal(t, "api", c.service)
	assert.Equal(t, "http://localhost:8080/api/logs", c.endpoint)
}

func TestClientSendsToServer(t *testing.T) {
	srv := newCaptureServer(t, http.StatusCreated)

	var fallback bytes.Buffer
	c, err := New("api", srv.URL, Options{FallbackWriter: &fallback})
	require.NoError(t, err)

	c.Info(context.Background(), "request completed", map[string]any{"requestId": "abc"})

	requests := srv.received()
	require.Len(t, requests, 1)
	assert.Equal(t, "api", requests[0].Service)
	assert.Equal(t, "info", requests[0].Level)
	assert.Equal(t, "request completed", requests[0].Message)
	assert.Equal(t, "abc", requests[0].Metadata["requestId"])
	assert.Empty(t, fallback.String(), "no local fallback expected on success")
}

func TestClientErrorAttachesStack(t *testing.T) {
	srv := newCaptureServer(t, http.StatusCreated)

	c, err := New("api", srv.URL, Options{FallbackWriter: &bytes.Buffer{}})
	require.NoError(t, err)

	c.Error(context.Background(), "operation failed", errors.New("boom"), nil)

	requests := srv.received()
	require.Len(t, requests, 1)
	assert.Equal(t, "error", requests[0].Level)
	assert.Equal(t, "boom", requests[0].Metadata["errorMessage"])
	assert.NotEmpty(t, requests[0].Stack)
}

func TestClientFallsBackLocallyOnFailure(t *testing.T) {
	srv := newCaptureServer(t, http.StatusInternalServerError)

	var fallback bytes.Buffer
	c, err := New("api", srv.URL, Options{FallbackWriter: &fallback})
	require.NoError(t, err)

	c.Warn(context.Background(), "disk almost full", map[string]any{"percent": 93})

	assert.Contains(t, fallback.String(), "disk almost full")
}

func TestClientFallsBackLocallyOnUnreachableServer(t *testing.T) {
	var fallback bytes.Buffer
	c, err := New("api", "http://127.0.0.1:1", Options{
		FallbackWriter: &fallback,
		Timeout:        200 * time.Millisecond,
	})
	require.NoError(t, err)

	// Must not return an error or panic, just emit locally.
	c.Info(context.Background(), "still alive", nil)

	assert.Contains(t, fallback.String(), "still alive")
}

func TestClientSilentModeSkipsRemote(t *testing.T) {
	srv := newCaptureServer(t, http.StatusCreated)

	var fallback bytes.Buffer
	c, err := New("api", srv.URL, Options{Silent: true, FallbackWriter: &fallback})
	require.NoError(t, err)

	c.Info(context.Background(), "local only", nil)

	assert.Empty(t, srv.received())
	assert.Contains(t, fallback.String(), "local only")
}

func TestClientBreakerShortCircuitsAfterConsecutiveFailures(t *testing.T) {
	var fallback bytes.Buffer
	c, err := New("api", "http://127.0.0.1:1", Options{
		FallbackWriter: &fallback,
		Timeout:        100 * time.Millisecond,
	})
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		c.Info(context.Background(), "flood", nil)
	}

	// After five consecutive failures the breaker is open and sends
	// short-circuit immediately.
	start := time.Now()
	c.Info(context.Background(), "short-circuited", nil)
	assert.Less(t, time.Since(start), 50*time.Millisecond)
	assert.Contains(t, fallback.String(), "short-circuited")
}
