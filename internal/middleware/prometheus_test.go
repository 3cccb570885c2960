// Spicelog - Centralized Log Ingestion and Query Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spicelog

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPrometheusMetrics_PassesThrough(t *testing.T) {
	handler := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/logs", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rec.Code)
	}
	if rec.Body.String() != `{"success":true}` {
		t.Errorf("Unexpected body: %s", rec.Body.String())
	}
}

func TestPrometheusMetrics_DefaultsToOK(t *testing.T) {
	handler := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No explicit WriteHeader call
		_, _ = w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
}

func TestMetricsResponseWriter_CapturesStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	wrapper := &metricsResponseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	wrapper.WriteHeader(http.StatusTooManyRequests)

	if wrapper.statusCode != http.StatusTooManyRequests {
		t.Errorf("Expected captured status 429, got %d", wrapper.statusCode)
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("Expected underlying status 429, got %d", rec.Code)
	}
}
