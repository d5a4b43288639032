package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/mff-uk/dataspecer-sub018/internal/ir"
	"github.com/mff-uk/dataspecer-sub018/internal/memstore"
)

// Synced is a MemoryStore whose applied changes are written through to the
// database. Reads are served from memory. Changes reach the database in the
// order they were applied.
type Synced struct {
	*memstore.MemoryStore
	db *Store

	mu sync.Mutex // spans apply and persist
}

// NewSynced wraps ms. Changes applied before wrapping are not written; use
// SaveEnvelope first when ms already holds data.
func NewSynced(db *Store, ms *memstore.MemoryStore) *Synced {
	return &Synced{MemoryStore: ms, db: db}
}

// OpenSynced loads a stored schema into a new MemoryStore and wraps it.
func OpenSynced(ctx context.Context, db *Store, schemaIRI string, opts ...memstore.Option) (*Synced, error) {
	env, err := db.LoadEnvelope(ctx, schemaIRI)
	if err != nil {
		return nil, err
	}
	ms, err := memstore.FromEnvelope(env, opts...)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", schemaIRI, err)
	}
	return NewSynced(db, ms), nil
}

// ApplyOperation applies op in memory and persists the change. A refused
// operation writes nothing. If persisting fails the in-memory change stays
// applied and the error is returned together with the change.
func (s *Synced) ApplyOperation(ctx context.Context, op ir.Operation) (*memstore.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	change, err := s.MemoryStore.ApplyOperation(ctx, op)
	if err != nil || !change.OK() {
		return change, err
	}
	if err := s.db.AppendChange(ctx, s.SchemaIRI(), s.BaseIRI(), change); err != nil {
		return change, fmt.Errorf("persist %s: %w", change.Operation.Header().IRI, err)
	}
	return change, nil
}
