// Spicelog - Centralized Log Ingestion and Query Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spicelog

// Package ingest validates and persists submitted log entries.
//
// The validation rules mirror the write path of the HTTP API: the three
// required fields are checked before trimming, so a value of "   " is
// reported as too short rather than missing, and metadata is coerced to
// an empty object when absent.
package ingest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tomtom215/spicelog/internal/models"
)

// Submission is a raw, untrusted log entry as received on the wire.
// Metadata is kept as raw JSON so that non-object payloads can be
// rejected with a precise error instead of silently decoding.
type Submission struct {
	Service  string          `json:"service"`
	Level    string          `json:"level"`
	Message  string          `json:"message"`
	Metadata json.RawMessage `json:"metadata"`
	Stack    string          `json:"stack"`
}

// ValidationError describes a rejected submission. The message is
// returned verbatim to the client.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Validate checks a submission against the ingestion rules and returns
// a normalized entry ready for storage. The returned entry has no ID or
// timestamp assigned; the store fills those in.
func Validate(sub Submission) (*models.LogEntry, error) {
	if sub.Service == "" || sub.Level == "" || sub.Message == "" {
		return nil, &ValidationError{
			Message: "Missing required fields: service, level, and message are required",
		}
	}

	service := strings.TrimSpace(sub.Service)
	if len(service) < 1 || len(service) > models.MaxServiceLength {
		return nil, validationErrorf("Service name must be between 1 and %d characters",
			models.MaxServiceLength)
	}

	level := models.NormalizeLevel(sub.Level)
	if !models.IsValidLevel(level) {
		return nil, validationErrorf("Invalid level. Must be one of: %s",
			models.ValidLevelsList)
	}

	message := strings.TrimSpace(sub.Message)
	if len(message) < 1 || len(message) > models.MaxMessageLength {
		return nil, validationErrorf("Message must be between 1 and %d characters",
			models.MaxMessageLength)
	}

	metadata, err := normalizeMetadata(sub.Metadata)
	if err != nil {
		return nil, err
	}

	entry := &models.LogEntry{
		Service:  service,
		Level:    level,
		Message:  message,
		Metadata: metadata,
	}

	if stack := strings.TrimSpace(sub.Stack); stack != "" {
		entry.Stack = &stack
	}

	return entry, nil
}

// normalizeMetadata coerces the raw metadata payload to a JSON object.
// Absent and null metadata become an empty object; arrays, strings, and
// numbers are rejected.
func normalizeMetadata(raw json.RawMessage) (map[string]any, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return map[string]any{}, nil
	}

	var metadata map[string]any
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return nil, &ValidationError{Message: "Metadata must be an object"}
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	return metadata, nil
}
