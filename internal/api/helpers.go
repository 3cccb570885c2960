// Spicelog - Centralized Log Ingestion and Query Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spicelog

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/spicelog/internal/logging"
	"github.com/tomtom215/spicelog/internal/models"
)

// respondJSON writes v as a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// respondError writes the shared error shape with the given status code.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, models.ErrorResponse{
		Success: false,
		Error:   message,
	})
}

// respondRateLimited writes the 429 shape with the retry-after hint,
// both in the body and in the standard Retry-After header.
func respondRateLimited(w http.ResponseWriter, message string, retryAfter int) {
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	respondJSON(w, http.StatusTooManyRequests, models.ErrorResponse{
		Success:    false,
		Error:      message,
		RetryAfter: retryAfter,
	})
}

// dateLayouts are the timestamp formats accepted for startDate/endDate
// query parameters, tried in order.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseDate parses an ISO 8601 date or date-time string.
func parseDate(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// parsePositiveInt parses a decimal integer that must be >= 1.
func parsePositiveInt(value string) (int, bool) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
