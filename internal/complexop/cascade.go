package complexop

import (
	"context"
	"fmt"

	"github.com/mff-uk/dataspecer-sub018/internal/ir"
)

// DeletePimClassCascade deletes a PIM class along with what keeps it in use.
//
// Steps, in order: every attribute owned by the class (schema manifest
// order), every association with an end on the class (manifest order), then
// the class.
type DeletePimClassCascade struct {
	binding

	Class string
}

// NewDeletePimClassCascade returns an unbound operation.
func NewDeletePimClassCascade(class string) *DeletePimClassCascade {
	return &DeletePimClassCascade{Class: class}
}

// Execute implements Operation.
func (d *DeletePimClassCascade) Execute(ctx context.Context) (*Outcome, error) {
	store := d.bound()

	_, schemaIRI, fail, err := d.locate(ctx, d.Class, ir.TypePimClass)
	if err != nil {
		return nil, fmt.Errorf("delete class cascade: %w", err)
	}
	if fail != nil {
		return failed(fail), nil
	}
	schema, err := store.ReadResource(ctx, schemaIRI)
	if err != nil {
		return nil, fmt.Errorf("delete class cascade: %w", err)
	}

	var steps []ir.Operation
	var associations []ir.Operation
	for _, iri := range schema.StringList(ir.FieldPimParts) {
		m, err := store.ReadResource(ctx, iri)
		if err != nil {
			return nil, fmt.Errorf("delete class cascade: %w", err)
		}
		switch {
		case m == nil:
		case m.HasType(ir.TypePimAttribute) && m.String(ir.FieldPimOwnerClass) == d.Class:
			steps = append(steps, &ir.PimDeleteAttribute{PimAttribute: iri})
		case m.HasType(ir.TypePimAssociation):
			touches, err := d.touches(ctx, m)
			if err != nil {
				return nil, fmt.Errorf("delete class cascade: %w", err)
			}
			if touches {
				associations = append(associations, &ir.PimDeleteAssociation{PimAssociation: iri})
			}
		}
	}
	steps = append(steps, associations...)
	steps = append(steps, &ir.PimDeleteClass{PimClass: d.Class})

	out := &Outcome{}
	for _, op := range steps {
		ok, err := d.apply(ctx, out, schemaIRI, op)
		if err != nil || !ok {
			return out, err
		}
	}
	return out, nil
}

func (d *DeletePimClassCascade) touches(ctx context.Context, association *ir.Resource) (bool, error) {
	for _, end := range association.StringList(ir.FieldPimEnd) {
		e, err := d.store.ReadResource(ctx, end)
		if err != nil {
			return false, err
		}
		if e != nil && e.String(ir.FieldPimPart) == d.Class {
			return true, nil
		}
	}
	return false, nil
}
