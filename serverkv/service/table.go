// Package service implements Component E (spec.md §4.E): the in-process
// loopback HTTP service fronting an ARID-keyed table with TTL expiry.
package service

import (
	"context"
	"errors"
	"sync"
)

// ErrAlreadyExists is returned by Table.Insert on a primary-key collision.
var ErrAlreadyExists = errors.New("service: arid already exists")

// Table is the storage selector spec.md §4.E describes: an in-process
// hash map or a persistent tabular store (pgtable.Table satisfies this
// interface too), keyed by ARID textual form.
type Table interface {
	// Insert adds a new row. It must be atomic with respect to concurrent
	// Inserts of the same aridText: exactly one caller observes success,
	// the rest observe ErrAlreadyExists.
	Insert(ctx context.Context, aridText, envelopeText string, expiresAt int64) error

	// Get returns the row for aridText, if any, regardless of expiry;
	// the Service layer applies the expiry check so the same logic
	// governs both storage backends identically.
	Get(ctx context.Context, aridText string) (envelopeText string, expiresAt int64, ok bool, err error)

	// Delete removes the row for aridText, if present.
	Delete(ctx context.Context, aridText string) error

	// DeleteExpired removes every row whose expiresAt <= now, returning
	// the pruned ARID texts for observability.
	DeleteExpired(ctx context.Context, now int64) ([]string, error)
}

// MemoryTable is an in-process Table guarded by a single exclusive lock,
// matching spec.md §5's shared-resource policy for the server's map.
type MemoryTable struct {
	mu   sync.Mutex
	rows map[string]memoryRow
}

type memoryRow struct {
	envelopeText string
	expiresAt    int64
}

// NewMemoryTable creates an empty in-memory Table.
func NewMemoryTable() *MemoryTable {
	return &MemoryTable{rows: make(map[string]memoryRow)}
}

func (t *MemoryTable) Insert(_ context.Context, aridText, envelopeText string, expiresAt int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.rows[aridText]; exists {
		return ErrAlreadyExists
	}
	t.rows[aridText] = memoryRow{envelopeText: envelopeText, expiresAt: expiresAt}
	return nil
}

func (t *MemoryTable) Get(_ context.Context, aridText string) (string, int64, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	row, ok := t.rows[aridText]
	if !ok {
		return "", 0, false, nil
	}
	return row.envelopeText, row.expiresAt, true, nil
}

func (t *MemoryTable) Delete(_ context.Context, aridText string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.rows, aridText)
	return nil
}

func (t *MemoryTable) DeleteExpired(_ context.Context, now int64) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var pruned []string
	for arid, row := range t.rows {
		if row.expiresAt <= now {
			pruned = append(pruned, arid)
			delete(t.rows, arid)
		}
	}
	return pruned, nil
}
