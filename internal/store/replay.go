package store

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/mff-uk/dataspecer-sub018/internal/ir"
	"github.com/mff-uk/dataspecer-sub018/internal/memstore"
)

// Mismatch describes a resource whose replayed value differs from the stored
// one. Missing or Extra is set when the resource exists on one side only.
type Mismatch struct {
	IRI     string
	Missing bool // stored but not produced by replay
	Extra   bool // produced by replay but not stored
}

// Replay re-executes the stored operation log of schemaIRI in a fresh
// MemoryStore and compares the result with the stored resources.
//
// Replay only reproduces identifiers minted by the counter scheme. A log
// written with uuid identifiers replays into different IRIs: they are
// reported as mismatches, and an operation referring to one of them is
// refused, which Replay returns as an error.
func (s *Store) Replay(ctx context.Context, schemaIRI string, opts ...memstore.Option) (*memstore.MemoryStore, []Mismatch, error) {
	env, err := s.LoadEnvelope(ctx, schemaIRI)
	if err != nil {
		return nil, nil, fmt.Errorf("replay: %w", err)
	}

	ms := memstore.New(opts...)
	for i, op := range env.Operations {
		replayed, err := ir.CloneOperation(op)
		if err != nil {
			return nil, nil, fmt.Errorf("replay %s: operation %d: %w", schemaIRI, i+1, err)
		}
		replayed.Header().IRI = ""
		change, err := ms.ApplyOperation(ctx, replayed)
		if err != nil {
			return nil, nil, fmt.Errorf("replay %s: operation %d: %w", schemaIRI, i+1, err)
		}
		if !change.OK() {
			return nil, nil, fmt.Errorf("replay %s: operation %d refused: %w", schemaIRI, i+1, change.Failure)
		}
	}

	replayedIRIs, err := ms.ListResources(ctx)
	if err != nil {
		return nil, nil, err
	}
	var mismatches []Mismatch
	seen := make(map[string]bool, len(replayedIRIs))
	for _, iri := range replayedIRIs {
		seen[iri] = true
		got, err := ms.ReadResource(ctx, iri)
		if err != nil {
			return nil, nil, err
		}
		want, ok := env.Resources[iri]
		switch {
		case !ok:
			mismatches = append(mismatches, Mismatch{IRI: iri, Extra: true})
		case !want.Equal(got):
			mismatches = append(mismatches, Mismatch{IRI: iri})
		}
	}
	for _, iri := range sortedKeys(env.Resources) {
		if !seen[iri] {
			mismatches = append(mismatches, Mismatch{IRI: iri, Missing: true})
		}
	}
	return ms, mismatches, nil
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
