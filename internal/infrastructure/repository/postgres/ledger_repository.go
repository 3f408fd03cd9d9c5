package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/report-etl/internal/core/domain"
)

// LedgerRepository is the durable ingest ledger. Uniqueness of fingerprints
// is enforced by the primary key, not by application-level check-then-act,
// so concurrent recorders of the same payload cannot race into duplicates.
type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *LedgerRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082401)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS ingest_ledger (
	fingerprint TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	stored_path TEXT NOT NULL,
	received_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ingest_ledger_received_at ON ingest_ledger(received_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *LedgerRepository) Seen(ctx context.Context, fingerprint string) (bool, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT 1 FROM ingest_ledger WHERE fingerprint = $1
`, fingerprint)

	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query ledger: %w", err)
	}
	return true, nil
}

// Record inserts a ledger entry. A duplicate fingerprint is a no-op: the
// ON CONFLICT clause makes the insert idempotent under concurrency.
func (r *LedgerRepository) Record(ctx context.Context, entry domain.LedgerEntry) error {
	receivedAt := entry.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO ingest_ledger (fingerprint, filename, stored_path, received_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (fingerprint) DO NOTHING
`, entry.Fingerprint, entry.Filename, entry.StoredPath, receivedAt)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}
