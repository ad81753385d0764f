// Package store persists generation traces in SQLite
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/dan-solli/gencall/pkg/trace"
)

// timeLayout is fixed-width so started_at sorts chronologically as text
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrLogClosed is returned by Export after Close
var ErrLogClosed = errors.New("generation log closed")

// SQLiteLog records one row per generation. It never stores prompt or
// completion text, only the sanitized trace record.
type SQLiteLog struct {
	db     *sql.DB
	closed atomic.Bool
}

var _ trace.Exporter = (*SQLiteLog)(nil)

// NewSQLiteLog opens (or creates) the generation log.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewSQLiteLog(dbPath string) (*SQLiteLog, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	log := &SQLiteLog{db: db}
	if err := log.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return log, nil
}

// initSchema creates the database schema if it doesn't exist.
func (l *SQLiteLog) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS generations (
		id TEXT PRIMARY KEY,
		operation_id TEXT NOT NULL UNIQUE,
		operation TEXT NOT NULL,
		model TEXT,
		mode TEXT,
		status TEXT NOT NULL,
		error_type TEXT,
		attempts INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		spans TEXT,
		ids TEXT,
		started_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_generations_operation ON generations(operation);
	CREATE INDEX IF NOT EXISTS idx_generations_started ON generations(started_at);
	`

	_, err := l.db.Exec(schema)
	return err
}

// Export stores the record. Exporting the same operation ID twice keeps the first row.
func (l *SQLiteLog) Export(ctx context.Context, record *trace.TraceRecord) error {
	if l.closed.Load() {
		return ErrLogClosed
	}

	spans, err := json.Marshal(record.Spans)
	if err != nil {
		return fmt.Errorf("failed to encode spans: %w", err)
	}

	var ids sql.NullString
	if len(record.IDs) > 0 {
		raw, err := json.Marshal(record.IDs)
		if err != nil {
			return fmt.Errorf("failed to encode ids: %w", err)
		}
		ids = sql.NullString{String: string(raw), Valid: true}
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO generations (id, operation_id, operation, model, mode, status, error_type, attempts, duration_ms, spans, ids, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(operation_id) DO NOTHING
	`,
		uuid.New().String(),
		record.OperationID,
		record.Operation,
		record.Model,
		record.Mode,
		record.Status,
		record.ErrorType,
		record.Attempts,
		record.DurationMs,
		string(spans),
		ids,
		record.Timestamp.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert generation: %w", err)
	}

	return nil
}

// Count returns the number of logged generations. An empty operation counts all of them.
func (l *SQLiteLog) Count(ctx context.Context, operation string) (int, error) {
	query := "SELECT COUNT(*) FROM generations"
	args := []any{}
	if operation != "" {
		query += " WHERE operation = ?"
		args = append(args, operation)
	}

	var count int
	if err := l.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count generations: %w", err)
	}
	return count, nil
}

// CountByStatus returns generation counts keyed by status for one operation (or all when empty).
func (l *SQLiteLog) CountByStatus(ctx context.Context, operation string) (map[string]int, error) {
	query := "SELECT status, COUNT(*) FROM generations"
	args := []any{}
	if operation != "" {
		query += " WHERE operation = ?"
		args = append(args, operation)
	}
	query += " GROUP BY status"

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// Recent returns up to limit records, newest first.
func (l *SQLiteLog) Recent(ctx context.Context, limit int) ([]trace.TraceRecord, error) {
	if limit <= 0 {
		return []trace.TraceRecord{}, nil
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT operation_id, operation, model, mode, status, error_type, attempts, duration_ms, spans, ids, started_at
		FROM generations
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query generations: %w", err)
	}
	defer rows.Close()

	records := make([]trace.TraceRecord, 0, limit)
	for rows.Next() {
		var (
			rec       trace.TraceRecord
			model     sql.NullString
			mode      sql.NullString
			errorType sql.NullString
			spans     sql.NullString
			ids       sql.NullString
			startedAt string
		)
		if err := rows.Scan(&rec.OperationID, &rec.Operation, &model, &mode, &rec.Status, &errorType,
			&rec.Attempts, &rec.DurationMs, &spans, &ids, &startedAt); err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}

		rec.Model = model.String
		rec.Mode = mode.String
		rec.ErrorType = errorType.String
		if rec.Timestamp, err = time.Parse(timeLayout, startedAt); err != nil {
			return nil, fmt.Errorf("failed to parse started_at %q: %w", startedAt, err)
		}
		if spans.Valid && spans.String != "" {
			if err := json.Unmarshal([]byte(spans.String), &rec.Spans); err != nil {
				return nil, fmt.Errorf("failed to decode spans: %w", err)
			}
		}
		if ids.Valid && ids.String != "" {
			if err := json.Unmarshal([]byte(ids.String), &rec.IDs); err != nil {
				return nil, fmt.Errorf("failed to decode ids: %w", err)
			}
		}

		records = append(records, rec)
	}

	return records, rows.Err()
}

// Close closes the database connection. Calling it twice is harmless.
func (l *SQLiteLog) Close() error {
	if l.closed.Swap(true) {
		return nil
	}
	return l.db.Close()
}
