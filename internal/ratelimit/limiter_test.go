// Spicelog - Centralized Log Ingestion and Query Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spicelog

package ratelimit

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestLimiter returns a limiter with a controllable clock.
func newTestLimiter(cfg Config) (*Limiter, *time.Time) {
	l := New(cfg)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestAllowUnderCapacity(t *testing.T) {
	l, _ := newTestLimiter(Config{Capacity: 3, Window: time.Minute})

	for i := 0; i < 3; i++ {
		assert.NoError(t, l.Allow("billing"), "attempt %d", i+1)
	}
}

func TestAllowRejectsAtCapacity(t *testing.T) {
	l, _ := newTestLimiter(Config{Capacity: 1000, Window: time.Minute})

	for i := 0; i < 1000; i++ {
		require.NoError(t, l.Allow("billing"))
	}

	err := l.Allow("billing")
	require.Error(t, err)

	var limitErr *LimitExceededError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, "billing", limitErr.Service)
	assert.LessOrEqual(t, limitErr.RetryAfter, 60)
	assert.GreaterOrEqual(t, limitErr.RetryAfter, 1)
	assert.Contains(t, limitErr.Error(), "Rate limit exceeded for service 'billing'")
	assert.Contains(t, limitErr.Error(), "Maximum 1000 requests per minute")
}

func TestAllowIndependentPerService(t *testing.T) {
	l, _ := newTestLimiter(Config{Capacity: 1, Window: time.Minute})

	require.NoError(t, l.Allow("svc-a"))
	require.Error(t, l.Allow("svc-a"))

	// A different service has its own window.
	assert.NoError(t, l.Allow("svc-b"))
}

func TestAllowWindowReset(t *testing.T) {
	l, now := newTestLimiter(Config{Capacity: 1, Window: time.Minute})

	require.NoError(t, l.Allow("svc"))
	require.Error(t, l.Allow("svc"))

	*now = now.Add(61 * time.Second)

	assert.NoError(t, l.Allow("svc"), "expired window must reset on next access")
}

func TestAllowRetryAfterCountsDown(t *testing.T) {
	l, now := newTestLimiter(Config{Capacity: 1, Window: time.Minute})

	require.NoError(t, l.Allow("svc"))

	*now = now.Add(45 * time.Second)
	err := l.Allow("svc")

	var limitErr *LimitExceededError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, 15, limitErr.RetryAfter)
}

func TestAllowRetryAfterRoundsUp(t *testing.T) {
	l, now := newTestLimiter(Config{Capacity: 1, Window: time.Minute})

	require.NoError(t, l.Allow("svc"))

	*now = now.Add(59*time.Second + 500*time.Millisecond)
	err := l.Allow("svc")

	var limitErr *LimitExceededError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, 1, limitErr.RetryAfter)
}

func TestAllowEmptyServiceBypasses(t *testing.T) {
	l, _ := newTestLimiter(Config{Capacity: 1, Window: time.Minute})

	// Unlabeled traffic is never throttled; the entry validator rejects
	// it downstream.
	for i := 0; i < 10; i++ {
		assert.NoError(t, l.Allow(""))
	}
	assert.Equal(t, 0, l.TrackedServices())
}

func TestAllowDisabled(t *testing.T) {
	l := New(Config{Capacity: 1, Window: time.Minute, Disabled: true})

	for i := 0; i < 10; i++ {
		assert.NoError(t, l.Allow("svc"))
	}
}

func TestSweepRemovesExpiredOnly(t *testing.T) {
	l, now := newTestLimiter(Config{Capacity: 10, Window: time.Minute})

	require.NoError(t, l.Allow("old"))

	*now = now.Add(30 * time.Second)
	require.NoError(t, l.Allow("fresh"))

	*now = now.Add(45 * time.Second) // "old" expired at +60s, "fresh" at +90s

	assert.Equal(t, 1, l.Sweep())
	assert.Equal(t, 1, l.TrackedServices())

	// The fresh window still counts admissions.
	require.NoError(t, l.Allow("fresh"))
}

func TestAllowConcurrentAdmissionsNeverExceedCapacity(t *testing.T) {
	const capacity = 100
	l := New(Config{Capacity: capacity, Window: time.Minute})

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < 4*capacity; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Allow("svc"); err == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, capacity, admitted)
}

func TestNewAppliesDefaults(t *testing.T) {
	l := New(Config{})
	assert.Equal(t, 1000, l.capacity)
	assert.Equal(t, time.Minute, l.window)
	assert.Equal(t, time.Minute, l.sweepInterval)
}
