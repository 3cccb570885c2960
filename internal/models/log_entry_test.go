// Spicelog - Centralized Log Ingestion and Query Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spicelog

package models

import (
	"math"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidLevel(t *testing.T) {
	for _, level := range ValidLevels {
		assert.True(t, IsValidLevel(level), "level %q should be valid", level)
	}

	assert.False(t, IsValidLevel("INFO"), "validation expects pre-normalized input")
	assert.False(t, IsValidLevel("fatal"))
	assert.False(t, IsValidLevel(""))
	assert.False(t, IsValidLevel("warning"))
}

func TestNormalizeLevel(t *testing.T) {
	assert.Equal(t, "info", NormalizeLevel("  INFO "))
	assert.Equal(t, "error", NormalizeLevel("Error"))
	assert.Equal(t, "", NormalizeLevel("   "))
}

func TestQueryPageOffset(t *testing.T) {
	assert.Equal(t, int64(0), QueryPage{Page: 1, Limit: 50}.Offset())
	assert.Equal(t, int64(50), QueryPage{Page: 2, Limit: 50}.Offset())
	assert.Equal(t, int64(990), QueryPage{Page: 100, Limit: 10}.Offset())
}

func TestQueryPageOffsetSaturatesOnHugePage(t *testing.T) {
	offset := QueryPage{Page: math.MaxInt, Limit: 500}.Offset()
	assert.Equal(t, int64(math.MaxInt64), offset)
	assert.GreaterOrEqual(t, offset, int64(0), "offset must never go negative")
}

func TestLogEntryJSONShape(t *testing.T) {
	stack := "goroutine 1 [running]"
	entry := LogEntry{
		ID:        uuid.New(),
		Timestamp: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Service:   "billing",
		Level:     LevelError,
		Message:   "charge failed",
		Metadata:  map[string]any{"orderId": "o-1"},
		Stack:     &stack,
	}

	data, err := json.Marshal(entry)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "billing", decoded["service"])
	assert.Equal(t, "error", decoded["level"])
	assert.Equal(t, "charge failed", decoded["message"])
	assert.Equal(t, "goroutine 1 [running]", decoded["stack"])
	assert.Contains(t, decoded, "timestamp")
	assert.Contains(t, decoded, "id")
}

func TestLogEntryNullStack(t *testing.T) {
	entry := LogEntry{
		ID:       uuid.New(),
		Service:  "api",
		Level:    LevelInfo,
		Message:  "ok",
		Metadata: map[string]any{},
	}

	data, err := json.Marshal(entry)
	require.NoError(t, err)

	// Absent stack must serialize as JSON null, not be omitted.
	assert.Contains(t, string(data), `"stack":null`)
	assert.Contains(t, string(data), `"metadata":{}`)
}

func TestErrorResponseOmitsZeroRetryAfter(t *testing.T) {
	data, err := json.Marshal(ErrorResponse{Success: false, Error: "bad input"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "retryAfter")

	data, err = json.Marshal(ErrorResponse{Success: false, Error: "slow down", RetryAfter: 42})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"retryAfter":42`)
}

func TestLevelCountsJSONKeys(t *testing.T) {
	data, err := json.Marshal(LevelCounts{Info: 3})
	require.NoError(t, err)

	// All four levels must be present even when zero.
	s := string(data)
	assert.Contains(t, s, `"info":3`)
	assert.Contains(t, s, `"warn":0`)
	assert.Contains(t, s, `"error":0`)
	assert.Contains(t, s, `"debug":0`)
}

func TestPurgeCriteriaOmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(PurgeCriteria{OlderThan: "30 days"})
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"olderThan":"30 days"`)
	assert.NotContains(t, s, "service")
	assert.NotContains(t, s, "level")
}
