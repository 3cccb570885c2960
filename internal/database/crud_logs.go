// Spicelog - Centralized Log Ingestion and Query Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spicelog

package database

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/spicelog/internal/metrics"
	"github.com/tomtom215/spicelog/internal/models"
)

// InsertLogEntry persists a validated log entry. The caller supplies the
// normalized fields; the store assigns the id (if unset) and the
// insertion sequence number. Timestamp defaults to the current time.
func (db *DB) InsertLogEntry(ctx context.Context, entry *models.LogEntry) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.Metadata == nil {
		entry.Metadata = map[string]any{}
	}

	metadataJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	var stack sql.NullString
	if entry.Stack != nil {
		stack = sql.NullString{String: *entry.Stack, Valid: true}
	}

	start := time.Now()
	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO log_entries (id, ts, service, level, message, metadata, stack)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID.String(), entry.Timestamp.UTC(), entry.Service, entry.Level,
		entry.Message, string(metadataJSON), stack,
	)
	metrics.RecordDBQuery("insert", time.Since(start))

	if err != nil {
		return fmt.Errorf("failed to insert log entry: %w", err)
	}

	return nil
}

// QueryLogs returns one page of entries matching the filter, newest
// first, plus the total match count ignoring pagination.
//
// Both statements run inside one read transaction so the page and the
// count reflect the same snapshot; repeating an identical query with no
// intervening writes returns identical results.
func (db *DB) QueryLogs(ctx context.Context, filter models.QueryFilter, page models.QueryPage) (*models.QueryResult, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { metrics.RecordDBQuery("query", time.Since(start)) }()

	tx, err := db.conn.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin query transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	conditions, args := buildFilterConditions(filter)

	var totalCount int64
	countQuery := `SELECT COUNT(*) FROM log_entries WHERE 1=1` + conditions
	if err := tx.QueryRowContext(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to count log entries: %w", err)
	}

	pageQuery := `SELECT id, ts, service, level, message, metadata, stack
		FROM log_entries WHERE 1=1` + conditions + `
		ORDER BY ts DESC, seq DESC
		LIMIT ? OFFSET ?`
	pageArgs := append(append([]any{}, args...), page.Limit, page.Offset())

	rows, err := tx.QueryContext(ctx, pageQuery, pageArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to query log entries: %w", err)
	}
	defer rows.Close()

	entries := make([]models.LogEntry, 0, page.Limit)
	for rows.Next() {
		entry, err := scanLogEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log entries: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit query transaction: %w", err)
	}

	return &models.QueryResult{
		Entries:    entries,
		TotalCount: totalCount,
		TotalPages: int(math.Ceil(float64(totalCount) / float64(page.Limit))),
	}, nil
}

// PurgeLogs deletes all entries with ts strictly before cutoff, further
// narrowed by service and level when non-empty. Returns the number of
// entries deleted. This is unconditional bulk deletion with no recovery.
func (db *DB) PurgeLogs(ctx context.Context, cutoff time.Time, service, level string) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `DELETE FROM log_entries WHERE ts < ?`
	args := []any{cutoff.UTC()}

	if service != "" {
		query += ` AND service = ?`
		args = append(args, service)
	}
	if level != "" {
		query += ` AND level = ?`
		args = append(args, level)
	}

	start := time.Now()
	res, err := db.conn.ExecContext(ctx, query, args...)
	metrics.RecordDBQuery("purge", time.Since(start))

	if err != nil {
		return 0, fmt.Errorf("failed to purge log entries: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read purge result: %w", err)
	}

	return deleted, nil
}

// buildFilterConditions translates a QueryFilter into SQL conditions
// and their arguments. The returned string starts with " AND" and is
// appended to a "WHERE 1=1" base.
func buildFilterConditions(filter models.QueryFilter) (string, []any) {
	var sb strings.Builder
	var args []any

	if filter.Service != "" {
		sb.WriteString(` AND service = ?`)
		args = append(args, filter.Service)
	}
	if filter.Level != "" {
		sb.WriteString(` AND level = ?`)
		args = append(args, filter.Level)
	}
	if filter.StartDate != nil {
		sb.WriteString(` AND ts >= ?`)
		args = append(args, filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		sb.WriteString(` AND ts <= ?`)
		args = append(args, filter.EndDate.UTC())
	}
	if filter.Search != "" {
		// Case-insensitive substring containment is the only guaranteed
		// search semantic. User input is escaped so it can never act as
		// a pattern.
		sb.WriteString(` AND message ILIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLikePattern(filter.Search)+"%")
	}

	return sb.String(), args
}

// escapeLikePattern escapes LIKE metacharacters in user-supplied search text.
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// scanLogEntry reads one row into a LogEntry.
func scanLogEntry(rows *sql.Rows) (models.LogEntry, error) {
	var entry models.LogEntry
	var id string
	var metadataJSON string
	var stack sql.NullString

	if err := rows.Scan(&id, &entry.Timestamp, &entry.Service, &entry.Level,
		&entry.Message, &metadataJSON, &stack); err != nil {
		return entry, fmt.Errorf("failed to scan log entry: %w", err)
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return entry, fmt.Errorf("failed to parse entry id %q: %w", id, err)
	}
	entry.ID = parsed

	entry.Metadata = map[string]any{}
	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &entry.Metadata); err != nil {
			return entry, fmt.Errorf("failed to decode metadata for entry %s: %w", id, err)
		}
	}

	if stack.Valid {
		entry.Stack = &stack.String
	}

	return entry, nil
}
