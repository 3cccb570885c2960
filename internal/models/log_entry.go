// Spicelog - Centralized Log Ingestion and Query Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spicelog

// Package models defines the data structures shared between the API,
// ingestion, and storage layers.
package models

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Log levels accepted by the service. Input is case-insensitive and
// normalized to these lowercase values before persistence.
const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
	LevelDebug = "debug"
)

// ValidLevels lists the accepted log levels in canonical order.
var ValidLevels = []string{LevelInfo, LevelWarn, LevelError, LevelDebug}

// ValidLevelsList is the comma-separated form used in error messages.
var ValidLevelsList = strings.Join(ValidLevels, ", ")

// IsValidLevel reports whether level is one of the accepted values.
// The input must already be trimmed and lowercased.
func IsValidLevel(level string) bool {
	switch level {
	case LevelInfo, LevelWarn, LevelError, LevelDebug:
		return true
	}
	return false
}

// NormalizeLevel trims and lowercases a raw level value.
func NormalizeLevel(level string) string {
	return strings.ToLower(strings.TrimSpace(level))
}

// Field length bounds enforced by the entry validator.
const (
	MaxServiceLength = 100
	MaxMessageLength = 10000
)

// LogEntry is the sole persisted entity: one structured log record.
//
// Entries are immutable once persisted; the only mutation is deletion
// through the purge engine or the retention sweep. Metadata is always
// present (possibly empty) and never null. Stack is null when absent.
type LogEntry struct {
	ID        uuid.UUID      `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Service   string         `json:"service"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata"`
	Stack     *string        `json:"stack"`
}

// QueryFilter holds the filter criteria accepted by the query engine.
// All fields are optional and combined with AND semantics. Zero values
// mean "no constraint".
type QueryFilter struct {
	Service   string
	Level     string
	StartDate *time.Time
	EndDate   *time.Time
	Search    string
}

// QueryPage holds validated pagination parameters.
type QueryPage struct {
	Page  int
	Limit int
}

// Offset returns the number of entries to skip for this page. The
// product saturates rather than overflows, so an absurdly large page
// yields an offset past every stored entry (an empty page), never a
// negative one.
func (p QueryPage) Offset() int64 {
	if p.Limit > 0 && int64(p.Page-1) > math.MaxInt64/int64(p.Limit) {
		return math.MaxInt64
	}
	return int64(p.Page-1) * int64(p.Limit)
}

// QueryResult is a page of matching entries plus pagination metadata.
type QueryResult struct {
	Entries    []LogEntry
	TotalCount int64
	TotalPages int
}

// ServiceCount is one by-service aggregation row.
type ServiceCount struct {
	Service string `json:"service"`
	Count   int64  `json:"count"`
}

// LevelCounts holds per-level totals. All four levels are always
// present in the output, zero-filled when no entries exist for a level.
type LevelCounts struct {
	Info  int64 `json:"info"`
	Warn  int64 `json:"warn"`
	Error int64 `json:"error"`
	Debug int64 `json:"debug"`
}

// ServiceLevelCount is one (service, level) aggregation row.
type ServiceLevelCount struct {
	Service string `json:"service"`
	Level   string `json:"level"`
	Count   int64  `json:"count"`
}

// LogStats bundles the four aggregation facets computed over a shared
// match criterion.
type LogStats struct {
	TotalLogs         int64               `json:"totalLogs"`
	ByService         []ServiceCount      `json:"byService"`
	ByLevel           LevelCounts         `json:"byLevel"`
	ByServiceAndLevel []ServiceLevelCount `json:"byServiceAndLevel"`
}

// PurgeCriteria echoes the effective criteria used by a purge call.
type PurgeCriteria struct {
	OlderThan string `json:"olderThan"`
	Service   string `json:"service,omitempty"`
	Level     string `json:"level,omitempty"`
}
