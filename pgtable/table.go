// Package pgtable implements Component J (spec.md §4.J): the optional
// Postgres-backed persistent table for the server backend, grounded on
// the teacher's pkg/storage/postgres package.
package pgtable

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hubert-project/hubert/serverkv/service"
)

const schema = `
CREATE TABLE IF NOT EXISTS hubert_store (
	arid TEXT PRIMARY KEY,
	envelope TEXT NOT NULL,
	expires_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS hubert_store_expires_at_idx ON hubert_store (expires_at);
`

// Table implements service.Table over a Postgres connection pool.
type Table struct {
	pool *pgxpool.Pool
}

// Open connects to dsn and idempotently creates the schema and its
// expiry index. Unlike a file-based store, a Postgres database has no
// parent directory to create — the schema-creation statement below plays
// that role (spec.md §4.J's "parent directory must be created if
// absent" is reinterpreted here as "schema must be created if absent",
// since the directory-creation concern doesn't exist against a network
// database; see DESIGN.md).
func Open(ctx context.Context, dsn string) (*Table, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgtable: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgtable: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgtable: create schema: %w", err)
	}
	return &Table{pool: pool}, nil
}

// Close closes the underlying connection pool.
func (t *Table) Close() {
	t.pool.Close()
}

var _ service.Table = (*Table)(nil)

// Insert adds a new row; a primary-key collision reports
// service.ErrAlreadyExists.
func (t *Table) Insert(ctx context.Context, aridText, envelopeText string, expiresAt int64) error {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pgtable: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM hubert_store WHERE arid = $1)`, aridText).Scan(&exists); err != nil {
		return fmt.Errorf("pgtable: check existing: %w", err)
	}
	if exists {
		return service.ErrAlreadyExists
	}

	tag, err := tx.Exec(ctx,
		`INSERT INTO hubert_store (arid, envelope, expires_at) VALUES ($1, $2, $3) ON CONFLICT (arid) DO NOTHING`,
		aridText, envelopeText, expiresAt)
	if err != nil {
		return fmt.Errorf("pgtable: insert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrAlreadyExists
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("pgtable: commit: %w", err)
	}
	return nil
}

// Get returns the row for aridText, if any, regardless of expiry.
func (t *Table) Get(ctx context.Context, aridText string) (string, int64, bool, error) {
	var envelopeText string
	var expiresAt int64
	err := t.pool.QueryRow(ctx,
		`SELECT envelope, expires_at FROM hubert_store WHERE arid = $1`, aridText,
	).Scan(&envelopeText, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", 0, false, nil
	}
	if err != nil {
		return "", 0, false, fmt.Errorf("pgtable: get: %w", err)
	}
	return envelopeText, expiresAt, true, nil
}

// Delete removes the row for aridText, if present.
func (t *Table) Delete(ctx context.Context, aridText string) error {
	if _, err := t.pool.Exec(ctx, `DELETE FROM hubert_store WHERE arid = $1`, aridText); err != nil {
		return fmt.Errorf("pgtable: delete: %w", err)
	}
	return nil
}

// DeleteExpired removes every row whose expires_at <= now, returning the
// pruned ARID texts. The select-then-delete pair runs inside a single
// transaction so the reported keys match what was actually removed.
func (t *Table) DeleteExpired(ctx context.Context, now int64) ([]string, error) {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("pgtable: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `SELECT arid FROM hubert_store WHERE expires_at <= $1`, now)
	if err != nil {
		return nil, fmt.Errorf("pgtable: select expired: %w", err)
	}
	var pruned []string
	for rows.Next() {
		var arid string
		if err := rows.Scan(&arid); err != nil {
			rows.Close()
			return nil, fmt.Errorf("pgtable: scan expired: %w", err)
		}
		pruned = append(pruned, arid)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgtable: iterate expired: %w", err)
	}

	if len(pruned) > 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM hubert_store WHERE expires_at <= $1`, now); err != nil {
			return nil, fmt.Errorf("pgtable: delete expired: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("pgtable: commit: %w", err)
	}
	return pruned, nil
}
