// Spicelog - Centralized Log Ingestion and Query Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spicelog

// Package metrics provides Prometheus instrumentation for the server.
//
// Metrics are exposed at /metrics in Prometheus text format:
//
//	curl http://localhost:8080/metrics
//
// Ingestion:
//   - spicelog_entries_ingested_total{service,level}
//   - spicelog_entries_rejected_total{reason}   reason: validation, rate_limit, storage
//
// HTTP:
//   - spicelog_http_requests_total{method,endpoint,status}
//   - spicelog_http_request_duration_seconds{method,endpoint}
//   - spicelog_http_requests_in_flight
//
// Store:
//   - spicelog_db_query_duration_seconds{operation}
//   - spicelog_entries_purged_total{trigger}    trigger: purge, retention
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics
	EntriesIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spicelog_entries_ingested_total",
			Help: "Total number of log entries accepted and persisted",
		},
		[]string{"service", "level"},
	)

	EntriesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spicelog_entries_rejected_total",
			Help: "Total number of log submissions rejected before persistence",
		},
		[]string{"reason"},
	)

	// HTTP metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spicelog_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spicelog_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spicelog_http_requests_in_flight",
			Help: "Current number of in-flight HTTP requests",
		},
	)

	// Store metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spicelog_db_query_duration_seconds",
			Help:    "Duration of DuckDB operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	EntriesPurged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spicelog_entries_purged_total",
			Help: "Total number of log entries deleted",
		},
		[]string{"trigger"},
	)

	// RateLimitedServices tracks the number of services currently
	// holding an admission window.
	RateLimitedServices = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spicelog_ratelimit_tracked_services",
			Help: "Number of services with an active rate limit window",
		},
	)
)

// Rejection reasons used with EntriesRejected.
const (
	ReasonValidation = "validation"
	ReasonRateLimit  = "rate_limit"
	ReasonStorage    = "storage"
)

// Purge triggers used with EntriesPurged.
const (
	TriggerPurge     = "purge"
	TriggerRetention = "retention"
)

// RecordAPIRequest records one completed HTTP request.
func RecordAPIRequest(method, endpoint, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(active bool) {
	if active {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordDBQuery records the duration of one store operation.
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
