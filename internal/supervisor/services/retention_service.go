// Spicelog - Centralized Log Ingestion and Query Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spicelog

package services

import (
	"context"
	"time"

	"github.com/tomtom215/spicelog/internal/logging"
	"github.com/tomtom215/spicelog/internal/metrics"
)

// Purger deletes entries older than the cutoff, optionally narrowed by
// service and level. Satisfied by *database.DB.
type Purger interface {
	PurgeLogs(ctx context.Context, cutoff time.Time, service, level string) (int64, error)
}

// RetentionService periodically deletes entries older than the
// configured retention horizon. It is a best-effort background sweep:
// the explicit clear endpoint remains the authoritative purge path, and
// a failed sweep is logged and retried on the next tick.
type RetentionService struct {
	store    Purger
	days     int
	interval time.Duration
	now      func() time.Time
}

// NewRetentionService creates the retention sweep.
func NewRetentionService(store Purger, days int, interval time.Duration) *RetentionService {
	if days <= 0 {
		days = 30
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &RetentionService{
		store:    store,
		days:     days,
		interval: interval,
		now:      time.Now,
	}
}

// Serve implements suture.Service. One sweep runs immediately on start
// so that a long-stopped server catches up without waiting a full
// interval.
func (s *RetentionService) Serve(ctx context.Context) error {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *RetentionService) sweep(ctx context.Context) {
	// AddDate avoids the int64 overflow of a days*24h Duration product.
	cutoff := s.now().UTC().AddDate(0, 0, -s.days)

	deleted, err := s.store.PurgeLogs(ctx, cutoff, "", "")
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logging.Error().Err(err).Msg("Retention sweep failed")
		return
	}

	if deleted > 0 {
		metrics.EntriesPurged.WithLabelValues(metrics.TriggerRetention).Add(float64(deleted))
		logging.Info().
			Int64("deleted_count", deleted).
			Int("retention_days", s.days).
			Msg("Retention sweep removed expired entries")
	}
}

// String implements fmt.Stringer for supervisor logging.
func (s *RetentionService) String() string {
	return "retention-sweep"
}
