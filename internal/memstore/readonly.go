package memstore

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/mff-uk/dataspecer-sub018/internal/ir"
)

// ReadOnlyMemoryStore serves a fixed snapshot. It answers reads only; there
// is no way to apply an operation to it.
type ReadOnlyMemoryStore struct {
	env       *Envelope
	schemaIRI string
}

// NewReadOnly wraps a validated envelope.
func NewReadOnly(env *Envelope) (*ReadOnlyMemoryStore, error) {
	if err := env.Validate(); err != nil {
		return nil, fmt.Errorf("read-only store: %w", err)
	}
	return &ReadOnlyMemoryStore{env: env, schemaIRI: env.SchemaIRI()}, nil
}

// ReadResource returns the snapshot value of iri, or nil.
func (s *ReadOnlyMemoryStore) ReadResource(_ context.Context, iri string) (*ir.Resource, error) {
	return s.env.Resources[iri], nil
}

// ListResources returns every resource IRI in sorted order.
func (s *ReadOnlyMemoryStore) ListResources(context.Context) ([]string, error) {
	return slices.Sorted(maps.Keys(s.env.Resources)), nil
}

// SchemaIRI returns the IRI of the snapshot's schema.
func (s *ReadOnlyMemoryStore) SchemaIRI() string {
	return s.schemaIRI
}

// BaseIRI returns the snapshot's base IRI.
func (s *ReadOnlyMemoryStore) BaseIRI() string {
	return s.env.BaseIRI
}

// Export returns the wrapped envelope.
func (s *ReadOnlyMemoryStore) Export() (*Envelope, error) {
	return s.env, nil
}
