// Spicelog - Centralized Log Ingestion and Query Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spicelog

package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/spicelog/internal/metrics"
	"github.com/tomtom215/spicelog/internal/models"
)

// GetLogStats computes all four aggregation facets over an optional
// time window: grand total, counts by service, counts by level, and
// counts by (service, level) pair.
//
// All facets come from one GROUPING SETS statement, so they share a
// single statement-level snapshot and cannot diverge under concurrent
// writes. service and level are NOT NULL columns, which makes a NULL in
// the result the unambiguous marker of an aggregated-away dimension.
func (db *DB) GetLogStats(ctx context.Context, startDate, endDate *time.Time) (*models.LogStats, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { metrics.RecordDBQuery("stats", time.Since(start)) }()

	conditions, args := buildFilterConditions(models.QueryFilter{
		StartDate: startDate,
		EndDate:   endDate,
	})

	query := `SELECT service, level, COUNT(*) AS cnt
		FROM log_entries WHERE 1=1` + conditions + `
		GROUP BY GROUPING SETS ((), (service), (level), (service, level))`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query log stats: %w", err)
	}
	defer rows.Close()

	stats := &models.LogStats{
		ByService:         []models.ServiceCount{},
		ByServiceAndLevel: []models.ServiceLevelCount{},
	}

	for rows.Next() {
		var service, level sql.NullString
		var count int64
		if err := rows.Scan(&service, &level, &count); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}

		switch {
		case !service.Valid && !level.Valid:
			stats.TotalLogs = count
		case service.Valid && !level.Valid:
			stats.ByService = append(stats.ByService, models.ServiceCount{
				Service: service.String,
				Count:   count,
			})
		case !service.Valid && level.Valid:
			setLevelCount(&stats.ByLevel, level.String, count)
		default:
			stats.ByServiceAndLevel = append(stats.ByServiceAndLevel, models.ServiceLevelCount{
				Service: service.String,
				Level:   level.String,
				Count:   count,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stats rows: %w", err)
	}

	sortFacets(stats)

	return stats, nil
}

// setLevelCount assigns a by-level count to its field. Levels outside
// the fixed set cannot occur: the validator rejects them at ingestion.
func setLevelCount(counts *models.LevelCounts, level string, count int64) {
	switch level {
	case models.LevelInfo:
		counts.Info = count
	case models.LevelWarn:
		counts.Warn = count
	case models.LevelError:
		counts.Error = count
	case models.LevelDebug:
		counts.Debug = count
	}
}

// sortFacets orders the grouped facets descending by count, with name
// fields as deterministic tiebreaks.
func sortFacets(stats *models.LogStats) {
	sort.SliceStable(stats.ByService, func(i, j int) bool {
		a, b := stats.ByService[i], stats.ByService[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Service < b.Service
	})

	sort.SliceStable(stats.ByServiceAndLevel, func(i, j int) bool {
		a, b := stats.ByServiceAndLevel[i], stats.ByServiceAndLevel[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.Service != b.Service {
			return a.Service < b.Service
		}
		return a.Level < b.Level
	})
}
