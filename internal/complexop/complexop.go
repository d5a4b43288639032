// Package complexop implements multi-step operations that read the current
// model through a federation and apply a derived sequence of primitive
// operations to it.
//
// A complex operation is constructed with its arguments, bound to exactly one
// federated store and then executed. Primitive operations are applied in a
// documented order; a step that fails stops the sequence and the steps
// already applied stay applied.
package complexop

import (
	"context"

	"github.com/mff-uk/dataspecer-sub018/internal/federated"
	"github.com/mff-uk/dataspecer-sub018/internal/ir"
	"github.com/mff-uk/dataspecer-sub018/internal/memstore"
)

// Operation is a complex operation.
type Operation interface {
	// Bind attaches the operation to a federation. Binding to a second,
	// different federation panics.
	Bind(store *federated.Store)

	// Execute runs the operation. It panics if the operation is unbound.
	Execute(ctx context.Context) (*Outcome, error)
}

// Outcome lists the primitive changes applied, in order. Failure is the
// failure that stopped the sequence, if any.
type Outcome struct {
	Changes []*memstore.Change
	Failure *ir.Failure
}

// OK reports whether every step was applied.
func (o *Outcome) OK() bool { return o.Failure == nil }

func failed(f *ir.Failure) *Outcome {
	return &Outcome{Failure: f}
}

// binding is embedded by every complex operation.
type binding struct {
	store *federated.Store
}

// Bind implements Operation.
func (b *binding) Bind(store *federated.Store) {
	if store == nil {
		panic("complexop: bind to nil store")
	}
	if b.store != nil && b.store != store {
		panic("complexop: operation is already bound to another store")
	}
	b.store = store
}

func (b *binding) bound() *federated.Store {
	if b.store == nil {
		panic("complexop: execute called before Bind")
	}
	return b.store
}

// apply runs one step and records it. It returns false when the step was
// refused; out.Failure is then set.
func (b *binding) apply(ctx context.Context, out *Outcome, schema string, op ir.Operation) (bool, error) {
	change, err := b.store.ApplyOperation(ctx, schema, op)
	if err != nil {
		return false, err
	}
	if !change.OK() {
		out.Failure = change.Failure
		return false, nil
	}
	out.Changes = append(out.Changes, change)
	return true, nil
}

// locate reads iri through the federation, checks its type and returns it
// with the schema that owns it.
func (b *binding) locate(ctx context.Context, iri, typ string) (*ir.Resource, string, *ir.Failure, error) {
	res, err := b.store.ReadResource(ctx, iri)
	if err != nil {
		return nil, "", nil, err
	}
	if res == nil {
		return nil, "", ir.NewMissingResource(iri), nil
	}
	if !res.HasType(typ) {
		return nil, "", ir.NewInvalidType(iri, typ), nil
	}
	schema, err := b.store.GetSchemaForResource(ctx, iri)
	if err != nil {
		return nil, "", nil, err
	}
	if schema == "" {
		return nil, "", ir.NewSchemaNotFound(iri), nil
	}
	return res, schema, nil, nil
}
