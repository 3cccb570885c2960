// Spicelog - Centralized Log Ingestion and Query Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spicelog

package models

import (
	"time"

	"github.com/google/uuid"
)

// ErrorResponse is the shared shape of every error response.
// RetryAfter is only populated on rate-limit rejections (HTTP 429).
type ErrorResponse struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

// CreatedLog echoes the persisted fields of a newly created entry.
type CreatedLog struct {
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
}

// CreateLogResponse is the 201 body for POST /api/logs.
type CreateLogResponse struct {
	Success bool       `json:"success"`
	Log     CreatedLog `json:"log"`
}

// Pagination describes the position of a result page within the full
// filtered result set.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalLogs   int64 `json:"totalLogs"`
	LogsPerPage int  `json:"logsPerPage"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// LogsResponse is the 200 body for GET /api/logs.
type LogsResponse struct {
	Success    bool       `json:"success"`
	Data       []LogEntry `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// StatsResponse is the 200 body for GET /api/logs/stats.
type StatsResponse struct {
	Success bool     `json:"success"`
	Stats   LogStats `json:"stats"`
}

// ClearResponse is the 200 body for DELETE /api/logs/clear.
type ClearResponse struct {
	Success      bool          `json:"success"`
	DeletedCount int64         `json:"deletedCount"`
	Criteria     PurgeCriteria `json:"criteria"`
}

// HealthResponse is the 200 body for GET /api/health.
type HealthResponse struct {
	Success bool      `json:"success"`
	Status  string    `json:"status"`
	Uptime  string    `json:"uptime"`
	Time    time.Time `json:"time"`
}
