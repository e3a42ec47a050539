package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/chimera/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS executions (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id    TEXT,
    mode        TEXT     NOT NULL,
    symbol      TEXT     NOT NULL,
    side        TEXT     NOT NULL,
    quantity    REAL     NOT NULL DEFAULT 0,
    price       REAL     NOT NULL DEFAULT 0,
    status      TEXT     NOT NULL,
    error       TEXT     NOT NULL DEFAULT '',
    executed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_exec_at     ON executions(executed_at DESC);
CREATE INDEX IF NOT EXISTS idx_exec_status ON executions(status);
`

// SQLiteJournal implements ports.Journal using SQLite (pure Go, no CGo).
// Strictly append-only: rows are inserted once and never updated, so the file
// is a faithful audit trail of every execution attempt the process made.
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLiteJournal opens (or creates) the journal database at the given DSN
// and applies the schema. ":memory:" gives a process-lifetime journal.
func NewSQLiteJournal(dsn string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteJournal: open %q: %w", dsn, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteJournal: apply schema: %w", err)
	}
	return &SQLiteJournal{db: db}, nil
}

// Append inserts one execution record.
func (s *SQLiteJournal) Append(ctx context.Context, rec domain.ExecutionRecord) error {
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO executions (order_id, mode, symbol, side, quantity, price, status, error, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.OrderID,
		string(rec.Mode),
		rec.Symbol,
		string(rec.Side),
		rec.Quantity,
		rec.Price,
		string(rec.Status),
		rec.Error,
		ts.UTC(),
	); err != nil {
		return fmt.Errorf("storage.Append: insert execution: %w", err)
	}
	return nil
}

// Records returns the most recent records, newest first. limit <= 0 means all.
func (s *SQLiteJournal) Records(ctx context.Context, limit int) ([]domain.ExecutionRecord, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT order_id, mode, symbol, side, quantity, price, status, error, executed_at
		FROM executions
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.Records: query: %w", err)
	}
	defer rows.Close()

	var recs []domain.ExecutionRecord
	for rows.Next() {
		var rec domain.ExecutionRecord
		var mode, side, status, executedAt string
		if err := rows.Scan(
			&rec.OrderID,
			&mode,
			&rec.Symbol,
			&side,
			&rec.Quantity,
			&rec.Price,
			&status,
			&rec.Error,
			&executedAt,
		); err != nil {
			return nil, fmt.Errorf("storage.Records: scan row: %w", err)
		}
		rec.Mode = domain.Mode(mode)
		rec.Side = domain.Action(side)
		rec.Status = domain.OrderStatus(status)
		rec.Timestamp, _ = time.Parse(time.RFC3339, executedAt)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteJournal) Close() error {
	return s.db.Close()
}
