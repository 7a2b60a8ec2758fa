// Package audit writes the final account snapshot to Postgres for
// after-the-fact review. It is write-only and best-effort: a database
// outage must never fail or block a run that otherwise completed correctly.
package audit

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/terminal-bench/txshard/internal/shard"
)

// Sink persists finalized snapshot rows to a Postgres table.
type Sink struct {
	db *sql.DB
}

// Open connects to dbURL and verifies the connection with a ping.
func Open(dbURL string) (*Sink, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("audit: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: ping: %w", err)
	}
	return &Sink{db: db}, nil
}

// EnsureSchema creates the audit table if it does not already exist.
func (s *Sink) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS txshard_snapshots (
			run_id    TEXT NOT NULL,
			client_id INTEGER NOT NULL,
			available TEXT NOT NULL,
			held      TEXT NOT NULL,
			total     TEXT NOT NULL,
			locked    BOOLEAN NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (run_id, client_id)
		)
	`)
	return err
}

// WriteSnapshot persists every row of a finished run under runID. Rows are
// inserted in a single transaction; a failure rolls back the whole batch but
// never affects the run's own exit status — the caller treats this sink as
// best-effort.
func (s *Sink) WriteSnapshot(ctx context.Context, runID string, rows []shard.SnapshotRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("audit: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO txshard_snapshots (run_id, client_id, available, held, total, locked)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (run_id, client_id) DO UPDATE SET
			available = EXCLUDED.available,
			held = EXCLUDED.held,
			total = EXCLUDED.total,
			locked = EXCLUDED.locked,
			recorded_at = now()
	`)
	if err != nil {
		return fmt.Errorf("audit: prepare: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, runID, row.Client, row.Available, row.Held, row.Total, row.Locked); err != nil {
			return fmt.Errorf("audit: insert client %d: %w", row.Client, err)
		}
	}

	return tx.Commit()
}

// Close closes the underlying database handle.
func (s *Sink) Close() error {
	return s.db.Close()
}
