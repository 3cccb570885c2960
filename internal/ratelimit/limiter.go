// Spicelog - Centralized Log Ingestion and Query Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spicelog

// Package ratelimit implements fixed-window admission control for log
// ingestion, counted independently per emitting service.
//
// Each service gets a counter that resets at the end of its 60-second
// window. Admission is a single read-check-increment step under the
// limiter's mutex, so two concurrent requests can never both claim the
// last slot. A background sweep drops expired windows to bound memory
// to the number of distinct active services; correctness does not
// depend on it, since an expired window self-corrects on next access.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/tomtom215/spicelog/internal/logging"
	"github.com/tomtom215/spicelog/internal/metrics"
)

// LimitExceededError is returned by Allow when a service has exhausted
// its window capacity. RetryAfter is the number of whole seconds until
// the window resets, rounded up.
type LimitExceededError struct {
	Service    string
	Capacity   int
	RetryAfter int
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("Rate limit exceeded for service '%s'. Maximum %d requests per minute.",
		e.Service, e.Capacity)
}

// Config holds limiter settings.
type Config struct {
	// Capacity is the number of admissions per window per service.
	Capacity int

	// Window is the fixed window length.
	Window time.Duration

	// SweepInterval is how often expired windows are removed.
	SweepInterval time.Duration

	// Disabled admits everything unconditionally.
	Disabled bool
}

// DefaultConfig returns the production admission policy: 1000 entries
// per service per minute.
func DefaultConfig() Config {
	return Config{
		Capacity:      1000,
		Window:        time.Minute,
		SweepInterval: time.Minute,
	}
}

// window tracks one service's admissions within the current fixed window.
type window struct {
	count   int
	resetAt time.Time
}

// Limiter is a fixed-window per-service admission controller.
//
// It is an explicitly owned component: construct one with New and hand
// it to the ingestion pipeline. Tests can run any number of isolated
// instances.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window

	capacity      int
	window        time.Duration
	sweepInterval time.Duration
	disabled      bool

	// now is replaceable in tests.
	now func() time.Time
}

// New creates a limiter with the given configuration. Zero values fall
// back to DefaultConfig.
func New(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.Capacity <= 0 {
		cfg.Capacity = def.Capacity
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = def.SweepInterval
	}

	return &Limiter{
		windows:       make(map[string]*window),
		capacity:      cfg.Capacity,
		window:        cfg.Window,
		sweepInterval: cfg.SweepInterval,
		disabled:      cfg.Disabled,
		now:           time.Now,
	}
}

// Allow records one ingestion attempt for the given service and reports
// whether it is admitted. A nil return means admitted.
//
// Requests without an identifiable service bypass limiting entirely;
// malformed submissions are caught downstream by the entry validator.
func (l *Limiter) Allow(service string) error {
	if l.disabled || service == "" {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	w, ok := l.windows[service]
	if !ok || now.After(w.resetAt) {
		l.windows[service] = &window{count: 1, resetAt: now.Add(l.window)}
		return nil
	}

	if w.count < l.capacity {
		w.count++
		return nil
	}

	return &LimitExceededError{
		Service:    service,
		Capacity:   l.capacity,
		RetryAfter: retryAfterSeconds(w.resetAt.Sub(now)),
	}
}

// retryAfterSeconds converts the remaining window duration to whole
// seconds, rounded up, never less than 1.
func retryAfterSeconds(remaining time.Duration) int {
	secs := int(math.Ceil(remaining.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Sweep removes windows that have already expired and returns the
// number removed. Holding the lock for the full pass is acceptable: the
// map is bounded by the number of distinct active services and each
// removal is a single map delete.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for service, w := range l.windows {
		if now.After(w.resetAt) {
			delete(l.windows, service)
			removed++
		}
	}
	return removed
}

// TrackedServices returns the number of services currently holding a window.
func (l *Limiter) TrackedServices() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Serve runs the periodic sweep until the context is canceled. It
// implements suture.Service so the sweep can run supervised, fully
// decoupled from request handling.
func (l *Limiter) Serve(ctx context.Context) error {
	ticker := time.NewTicker(l.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if removed := l.Sweep(); removed > 0 {
				logging.Debug().Int("removed", removed).Msg("swept expired rate limit windows")
			}
			metrics.RateLimitedServices.Set(float64(l.TrackedServices()))
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (l *Limiter) String() string {
	return "ratelimit-sweep"
}
