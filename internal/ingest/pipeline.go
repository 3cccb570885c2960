// Spicelog - Centralized Log Ingestion and Query Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spicelog

package ingest

import (
	"context"
	"fmt"

	"github.com/tomtom215/spicelog/internal/database"
	"github.com/tomtom215/spicelog/internal/logging"
	"github.com/tomtom215/spicelog/internal/metrics"
	"github.com/tomtom215/spicelog/internal/models"
	"github.com/tomtom215/spicelog/internal/ratelimit"
)

// Pipeline runs a submission through admission control, validation, and
// persistence, in that order. Rate limiting is applied before validation
// so that a flooding service is throttled even when its payloads are
// malformed.
type Pipeline struct {
	limiter *ratelimit.Limiter
	db      *database.DB
}

// NewPipeline wires the ingestion pipeline.
func NewPipeline(limiter *ratelimit.Limiter, db *database.DB) *Pipeline {
	return &Pipeline{limiter: limiter, db: db}
}

// Ingest admits, validates, and persists one submission.
//
// The error type distinguishes the rejection class: a
// *ratelimit.LimitExceededError means the service is over its window
// budget, a *ValidationError means the payload is malformed, and any
// other error is a storage failure.
func (p *Pipeline) Ingest(ctx context.Context, sub Submission) (*models.LogEntry, error) {
	if err := p.limiter.Allow(sub.Service); err != nil {
		metrics.EntriesRejected.WithLabelValues(metrics.ReasonRateLimit).Inc()
		return nil, err
	}

	entry, err := Validate(sub)
	if err != nil {
		metrics.EntriesRejected.WithLabelValues(metrics.ReasonValidation).Inc()
		return nil, err
	}

	if err := p.db.InsertLogEntry(ctx, entry); err != nil {
		metrics.EntriesRejected.WithLabelValues(metrics.ReasonStorage).Inc()
		logging.Ctx(ctx).Error().
			Err(err).
			Str("service", entry.Service).
			Str("level", entry.Level).
			Msg("Failed to persist log entry")
		return nil, fmt.Errorf("insert log entry: %w", err)
	}

	metrics.EntriesIngested.WithLabelValues(entry.Service, entry.Level).Inc()
	return entry, nil
}
