// Spicelog - Centralized Log Ingestion and Query Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spicelog

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/spicelog/internal/config"
	"github.com/tomtom215/spicelog/internal/middleware"
)

// NewRouter builds the full route tree with the global middleware stack.
//
// The per-service admission limiter lives inside the ingestion pipeline,
// not here: it keys on the service field in the request body, which only
// the ingestion path parses. The router-level limiter is a coarser
// per-IP guard in front of everything.
func NewRouter(h *Handler, cfg *config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied in order
	r.Use(middleware.RequestID)     // X-Request-ID header with logging context
	r.Use(chimiddleware.RealIP)     // Extract real IP from X-Forwarded-For
	r.Use(chimiddleware.Recoverer)  // Recover from panics

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if !cfg.IPRateLimitDisabled && cfg.IPRateLimitRequests > 0 {
		r.Use(httprate.LimitByIP(cfg.IPRateLimitRequests, cfg.IPRateLimitWindow))
	}

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)

		r.Get("/health", h.Health)

		r.Route("/logs", func(r chi.Router) {
			r.Post("/", h.CreateLog)
			r.Get("/", h.GetLogs)
			r.Get("/stats", h.GetLogsStats)
			r.Delete("/clear", h.ClearLogs)
		})
	})

	return r
}

// NewServer wraps the router in an http.Server with the configured
// timeouts.
func NewServer(handler http.Handler, cfg *config.ServerConfig) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}
}
