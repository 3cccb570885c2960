// Spicelog - Centralized Log Ingestion and Query Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spicelog

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createSchema creates the log_entries table and its indexes.
//
// seq is assigned from a monotonic sequence at insert time and breaks
// timestamp ties, giving queries a deterministic newest-first order.
// metadata is stored as JSON text; the validator guarantees it is
// always a JSON object (possibly empty), never null.
func (db *DB) createSchema() error {
	ctx, cancel := schemaContext()
	defer cancel()

	statements := []string{
		`CREATE SEQUENCE IF NOT EXISTS log_entries_seq START 1`,
		`CREATE TABLE IF NOT EXISTS log_entries (
			id       UUID PRIMARY KEY,
			seq      BIGINT NOT NULL DEFAULT nextval('log_entries_seq'),
			ts       TIMESTAMP NOT NULL,
			service  VARCHAR NOT NULL,
			level    VARCHAR NOT NULL,
			message  VARCHAR NOT NULL,
			metadata VARCHAR NOT NULL DEFAULT '{}',
			stack    VARCHAR
		)`,
		`CREATE INDEX IF NOT EXISTS idx_log_entries_ts ON log_entries (ts)`,
		`CREATE INDEX IF NOT EXISTS idx_log_entries_service ON log_entries (service)`,
		`CREATE INDEX IF NOT EXISTS idx_log_entries_level ON log_entries (level)`,
		`CREATE INDEX IF NOT EXISTS idx_log_entries_ts_service_level ON log_entries (ts, service, level)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}

	return nil
}
