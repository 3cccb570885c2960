// Spicelog - Centralized Log Ingestion and Query Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spicelog

// Package api implements the HTTP surface of the service: ingestion,
// query, aggregation, purge, and health.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/spicelog/internal/database"
	"github.com/tomtom215/spicelog/internal/ingest"
	"github.com/tomtom215/spicelog/internal/logging"
	"github.com/tomtom215/spicelog/internal/metrics"
	"github.com/tomtom215/spicelog/internal/models"
	"github.com/tomtom215/spicelog/internal/ratelimit"
)

const (
	defaultPage          = 1
	defaultLimit         = 50
	maxLimit             = 500
	defaultOlderThanDays = 30
)

// Handler holds the dependencies of all HTTP handlers.
type Handler struct {
	db        *database.DB
	pipeline  *ingest.Pipeline
	startTime time.Time
}

// NewHandler constructs the handler set.
func NewHandler(db *database.DB, pipeline *ingest.Pipeline) *Handler {
	return &Handler{
		db:        db,
		pipeline:  pipeline,
		startTime: time.Now(),
	}
}

// CreateLog handles POST /api/logs.
func (h *Handler) CreateLog(w http.ResponseWriter, r *http.Request) {
	var sub ingest.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	entry, err := h.pipeline.Ingest(r.Context(), sub)
	if err != nil {
		var limitErr *ratelimit.LimitExceededError
		if errors.As(err, &limitErr) {
			respondRateLimited(w, limitErr.Error(), limitErr.RetryAfter)
			return
		}

		var validationErr *ingest.ValidationError
		if errors.As(err, &validationErr) {
			respondError(w, http.StatusBadRequest, validationErr.Message)
			return
		}

		respondError(w, http.StatusInternalServerError, "Internal server error while saving log")
		return
	}

	respondJSON(w, http.StatusCreated, models.CreateLogResponse{
		Success: true,
		Log: models.CreatedLog{
			ID:        entry.ID,
			Timestamp: entry.Timestamp,
			Service:   entry.Service,
			Level:     entry.Level,
			Message:   entry.Message,
		},
	})
}

// GetLogs handles GET /api/logs.
func (h *Handler) GetLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filter models.QueryFilter

	// A service param that trims to nothing filters on the empty name,
	// which no stored entry carries; it must not widen to all services.
	matchNone := false
	if service := q.Get("service"); service != "" {
		filter.Service = strings.TrimSpace(service)
		if filter.Service == "" {
			matchNone = true
		}
	}

	if level := q.Get("level"); level != "" {
		normalized := models.NormalizeLevel(level)
		if !models.IsValidLevel(normalized) {
			respondError(w, http.StatusBadRequest,
				"Invalid level. Must be one of: "+models.ValidLevelsList)
			return
		}
		filter.Level = normalized
	}

	if startDate := q.Get("startDate"); startDate != "" {
		start, err := parseDate(startDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid startDate format. Use ISO 8601 format")
			return
		}
		filter.StartDate = &start
	}

	if endDate := q.Get("endDate"); endDate != "" {
		end, err := parseDate(endDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid endDate format. Use ISO 8601 format")
			return
		}
		filter.EndDate = &end
	}

	if search := q.Get("search"); search != "" {
		filter.Search = strings.TrimSpace(search)
	}

	page := defaultPage
	if raw := q.Get("page"); raw != "" {
		n, ok := parsePositiveInt(raw)
		if !ok {
			respondError(w, http.StatusBadRequest, "Page must be a positive integer")
			return
		}
		page = n
	}

	limit := defaultLimit
	if raw := q.Get("limit"); raw != "" {
		n, ok := parsePositiveInt(raw)
		if !ok || n > maxLimit {
			respondError(w, http.StatusBadRequest, "Limit must be between 1 and 500")
			return
		}
		limit = n
	}

	if matchNone {
		respondJSON(w, http.StatusOK, models.LogsResponse{
			Success: true,
			Data:    []models.LogEntry{},
			Pagination: models.Pagination{
				CurrentPage: page,
				TotalPages:  0,
				TotalLogs:   0,
				LogsPerPage: limit,
				HasNextPage: false,
				HasPrevPage: page > 1,
			},
		})
		return
	}

	result, err := h.db.QueryLogs(r.Context(), filter, models.QueryPage{Page: page, Limit: limit})
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to query logs")
		respondError(w, http.StatusInternalServerError, "Internal server error while fetching logs")
		return
	}

	respondJSON(w, http.StatusOK, models.LogsResponse{
		Success: true,
		Data:    result.Entries,
		Pagination: models.Pagination{
			CurrentPage: page,
			TotalPages:  result.TotalPages,
			TotalLogs:   result.TotalCount,
			LogsPerPage: limit,
			HasNextPage: page < result.TotalPages,
			HasPrevPage: page > 1,
		},
	})
}

// GetLogsStats handles GET /api/logs/stats.
func (h *Handler) GetLogsStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var startDate, endDate *time.Time

	if raw := q.Get("startDate"); raw != "" {
		start, err := parseDate(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid startDate format. Use ISO 8601 format")
			return
		}
		startDate = &start
	}

	if raw := q.Get("endDate"); raw != "" {
		end, err := parseDate(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid endDate format. Use ISO 8601 format")
			return
		}
		endDate = &end
	}

	stats, err := h.db.GetLogStats(r.Context(), startDate, endDate)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to compute log statistics")
		respondError(w, http.StatusInternalServerError, "Internal server error while fetching statistics")
		return
	}

	respondJSON(w, http.StatusOK, models.StatsResponse{
		Success: true,
		Stats:   *stats,
	})
}

// ClearLogs handles DELETE /api/logs/clear.
func (h *Handler) ClearLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	olderThanDays := defaultOlderThanDays
	if raw := q.Get("olderThan"); raw != "" {
		n, ok := parsePositiveInt(raw)
		if !ok {
			respondError(w, http.StatusBadRequest, "olderThan must be a positive integer (days)")
			return
		}
		olderThanDays = n
	}

	service := strings.TrimSpace(q.Get("service"))
	matchNone := q.Get("service") != "" && service == ""

	var level string
	if raw := q.Get("level"); raw != "" {
		level = models.NormalizeLevel(raw)
		if !models.IsValidLevel(level) {
			respondError(w, http.StatusBadRequest,
				"Invalid level. Must be one of: "+models.ValidLevelsList)
			return
		}
	}

	if matchNone {
		// Whitespace-only service names no stored entry; nothing to delete.
		respondJSON(w, http.StatusOK, models.ClearResponse{
			Success:      true,
			DeletedCount: 0,
			Criteria: models.PurgeCriteria{
				OlderThan: fmt.Sprintf("%d days", olderThanDays),
				Level:     level,
			},
		})
		return
	}

	// AddDate rather than a Duration product: multiplying a large day
	// count by 24h overflows int64 and would flip the cutoff into the
	// future, matching everything.
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays)

	deleted, err := h.db.PurgeLogs(r.Context(), cutoff, service, level)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to clear logs")
		respondError(w, http.StatusInternalServerError, "Internal server error while clearing logs")
		return
	}

	metrics.EntriesPurged.WithLabelValues(metrics.TriggerPurge).Add(float64(deleted))

	logging.Ctx(r.Context()).Info().
		Int64("deleted_count", deleted).
		Int("older_than_days", olderThanDays).
		Str("service", service).
		Str("level", level).
		Msg("Purged log entries")

	respondJSON(w, http.StatusOK, models.ClearResponse{
		Success:      true,
		DeletedCount: deleted,
		Criteria: models.PurgeCriteria{
			OlderThan: fmt.Sprintf("%d days", olderThanDays),
			Service:   service,
			Level:     level,
		},
	})
}

// Health handles GET /api/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, models.HealthResponse{
			Success: false,
			Status:  "degraded",
			Uptime:  time.Since(h.startTime).Round(time.Second).String(),
			Time:    time.Now().UTC(),
		})
		return
	}

	respondJSON(w, http.StatusOK, models.HealthResponse{
		Success: true,
		Status:  "ok",
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
		Time:    time.Now().UTC(),
	})
}
