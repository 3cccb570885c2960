// Spicelog - Centralized Log Ingestion and Query Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spicelog

package ingest

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSubmission() Submission {
	return Submission{
		Service: "api",
		Level:   "info",
		Message: "request completed",
	}
}

func TestValidateAcceptsMinimalSubmission(t *testing.T) {
	entry, err := Validate(validSubmission())
	require.NoError(t, err)

	assert.Equal(t, "api", entry.Service)
	assert.Equal(t, "info", entry.Level)
	assert.Equal(t, "request completed", entry.Message)
	assert.Equal(t, map[string]any{}, entry.Metadata)
	assert.Nil(t, entry.Stack)
}

func TestValidateMissingFields(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Submission)
	}{
		{"missing service", func(s *Submission) { s.Service = "" }},
		{"missing level", func(s *Submission) { s.Level = "" }},
		{"missing message", func(s *Submission) { s.Message = "" }},
		{"all missing", func(s *Submission) { *s = Submission{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := validSubmission()
			tt.mut(&sub)

			_, err := Validate(sub)
			require.Error(t, err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t,
				"Missing required fields: service, level, and message are required",
				verr.Message)
		})
	}
}

func TestValidateServiceLength(t *testing.T) {
	sub := validSubmission()
	sub.Service = strings.Repeat("a", 101)

	_, err := Validate(sub)
	require.Error(t, err)
	assert.Equal(t, "Service name must be between 1 and 100 characters", err.Error())

	// Whitespace-only service is present but trims to nothing.
	sub.Service = "   "
	_, err = Validate(sub)
	require.Error(t, err)
	assert.Equal(t, "Service name must be between 1 and 100 characters", err.Error())

	sub.Service = strings.Repeat("a", 100)
	_, err = Validate(sub)
	assert.NoError(t, err)
}

func TestValidateLevelNormalization(t *testing.T) {
	for _, raw := range []string{"INFO", "Info", " info ", "info"} {
		sub := validSubmission()
		sub.Level = raw

		entry, err := Validate(sub)
		require.NoError(t, err, "level %q", raw)
		assert.Equal(t, "info", entry.Level)
	}

	sub := validSubmission()
	sub.Level = "critical"
	_, err := Validate(sub)
	require.Error(t, err)
	assert.Equal(t, "Invalid level. Must be one of: info, warn, error, debug", err.Error())
}

func TestValidateMessageLength(t *testing.T) {
	sub := validSubmission()
	sub.Message = strings.Repeat("x", 10001)

	_, err := Validate(sub)
	require.Error(t, err)
	assert.Equal(t, "Message must be between 1 and 10000 characters", err.Error())

	sub.Message = strings.Repeat("x", 10000)
	_, err = Validate(sub)
	assert.NoError(t, err)
}

func TestValidateMetadata(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    map[string]any
		wantErr bool
	}{
		{"absent", "", map[string]any{}, false},
		{"null", "null", map[string]any{}, false},
		{"empty object", "{}", map[string]any{}, false},
		{"object", `{"requestId":"abc","durationMs":12}`,
			map[string]any{"requestId": "abc", "durationMs": float64(12)}, false},
		{"array", `[1,2]`, nil, true},
		{"string", `"oops"`, nil, true},
		{"number", `42`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := validSubmission()
			sub.Metadata = json.RawMessage(tt.raw)

			entry, err := Validate(sub)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, "Metadata must be an object", err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, entry.Metadata)
		})
	}
}

func TestValidateStack(t *testing.T) {
	sub := validSubmission()
	sub.Stack = "Error: boom\n    at main.go:10"

	entry, err := Validate(sub)
	require.NoError(t, err)
	require.NotNil(t, entry.Stack)
	assert.Equal(t, "Error: boom\n    at main.go:10", *entry.Stack)

	sub.Stack = "   "
	entry, err = Validate(sub)
	require.NoError(t, err)
	assert.Nil(t, entry.Stack)
}

func TestValidateTrimsFields(t *testing.T) {
	sub := Submission{
		Service: "  api  ",
		Level:   "info",
		Message: "  hello  ",
	}

	entry, err := Validate(sub)
	require.NoError(t, err)
	assert.Equal(t, "api", entry.Service)
	assert.Equal(t, "hello", entry.Message)
}
