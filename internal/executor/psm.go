package executor

import (
	"context"
	"slices"

	"github.com/mff-uk/dataspecer-sub018/internal/ir"
)

func registerPsm(r *Registry) {
	r.mustRegister(ir.KindPsmCreateSchema, typed(psmCreateSchema))
	r.mustRegister(ir.KindPsmCreateClass, typed(psmCreateClass))
	r.mustRegister(ir.KindPsmCreateAttribute, typed(psmCreateAttribute))
	r.mustRegister(ir.KindPsmCreateAssociationEnd, typed(psmCreateAssociationEnd))
	r.mustRegister(ir.KindPsmCreateInclude, typed(psmCreateInclude))
	r.mustRegister(ir.KindPsmCreateOr, typed(psmCreateOr))
	r.mustRegister(ir.KindPsmDeleteClass, typed(psmDeleteClass))
	r.mustRegister(ir.KindPsmDeleteAttribute, typed(psmDeleteAttribute))
	r.mustRegister(ir.KindPsmDeleteAssociationEnd, typed(psmDeleteAssociationEnd))
	r.mustRegister(ir.KindPsmDeleteInclude, typed(psmDeleteInclude))
	r.mustRegister(ir.KindPsmDeleteOr, typed(psmDeleteOr))
	r.mustRegister(ir.KindPsmSetRoots, typed(psmSetRoots))
	r.mustRegister(ir.KindPsmSetOrder, typed(psmSetOrder))
	r.mustRegister(ir.KindPsmSetChoice, typed(psmSetChoice))
	r.mustRegister(ir.KindPsmUnsetChoice, typed(psmUnsetChoice))
	r.mustRegister(ir.KindPsmUnwrapOr, typed(psmUnwrapOr))
	r.mustRegister(ir.KindPsmSetHumanLabel, typed(psmSetHumanLabel))
	r.mustRegister(ir.KindPsmSetTechnicalLabel, typed(psmSetTechnicalLabel))
}

func psmCreateSchema(ctx context.Context, x *execContext, op *ir.PsmCreateSchema) (*ir.ExecutorResult, error) {
	existing, err := x.findSchema(ctx)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ir.NewPreconditionFailed(existing.IRI, "store already has a schema")
	}

	iri, err := x.newIRI(ctx, op.DataPsmNewIRI, ir.KindSegmentSchema)
	if err != nil {
		return nil, err
	}
	schema := ir.NewResource(iri, ir.TypePsmSchema).
		WithStrings(ir.FieldPsmRoots, nil).
		WithStrings(ir.FieldPsmParts, nil)
	schema = setString(schema, ir.FieldPsmTechnicalLabel, op.DataPsmTechnicalLabel)
	if schema, err = setLabels(schema, ir.FieldPsmHumanLabel, op.DataPsmHumanLabel); err != nil {
		return nil, err
	}
	if schema, err = setLabels(schema, ir.FieldPsmHumanDescription, op.DataPsmHumanDescription); err != nil {
		return nil, err
	}

	return ir.NewExecutorResult().
		Create(schema).
		WithResult(ir.CreatedResult{IRI: iri}), nil
}

func psmCreateClass(ctx context.Context, x *execContext, op *ir.PsmCreateClass) (*ir.ExecutorResult, error) {
	schema, err := x.schema(ctx, ir.TypePsmSchema)
	if err != nil {
		return nil, err
	}
	for _, parent := range op.DataPsmExtends {
		if _, err := x.expect(ctx, parent, ir.TypePsmClass); err != nil {
			return nil, err
		}
	}

	iri, err := x.newIRI(ctx, op.DataPsmNewIRI, ir.KindSegmentClass)
	if err != nil {
		return nil, err
	}
	class := ir.NewResource(iri, ir.TypePsmClass).
		WithStrings(ir.FieldPsmParts, nil).
		WithStrings(ir.FieldPsmExtends, op.DataPsmExtends)
	class = setString(class, ir.FieldPsmInterpretation, op.DataPsmInterpretation)
	class = setString(class, ir.FieldPsmTechnicalLabel, op.DataPsmTechnicalLabel)
	if class, err = setLabels(class, ir.FieldPsmHumanLabel, op.DataPsmHumanLabel); err != nil {
		return nil, err
	}

	return ir.NewExecutorResult().
		Create(class).
		Change(withAppended(schema, ir.FieldPsmParts, iri)).
		WithResult(ir.CreatedResult{IRI: iri}), nil
}

// createPart is the shared tail of the create operations that add a part to
// an owning class: it appends the part to the owner and the manifest.
func createPart(ctx context.Context, x *execContext, ownerIRI string, part *ir.Resource) (*ir.ExecutorResult, error) {
	schema, err := x.schema(ctx, ir.TypePsmSchema)
	if err != nil {
		return nil, err
	}
	owner, err := x.expect(ctx, ownerIRI, ir.TypePsmClass)
	if err != nil {
		return nil, err
	}
	return ir.NewExecutorResult().
		Create(part).
		Change(withAppended(owner, ir.FieldPsmParts, part.IRI)).
		Change(withAppended(schema, ir.FieldPsmParts, part.IRI)).
		WithResult(ir.CreatedResult{IRI: part.IRI}), nil
}

func psmCreateAttribute(ctx context.Context, x *execContext, op *ir.PsmCreateAttribute) (*ir.ExecutorResult, error) {
	if _, err := x.expect(ctx, op.DataPsmOwner, ir.TypePsmClass); err != nil {
		return nil, err
	}
	iri, err := x.newIRI(ctx, op.DataPsmNewIRI, ir.KindSegmentAttribute)
	if err != nil {
		return nil, err
	}

	attr := ir.NewResource(iri, ir.TypePsmAttribute)
	attr = setString(attr, ir.FieldPsmInterpretation, op.DataPsmInterpretation)
	attr = setString(attr, ir.FieldPsmTechnicalLabel, op.DataPsmTechnicalLabel)
	attr = setString(attr, ir.FieldPsmDatatype, op.DataPsmDatatype)
	if attr, err = setLabels(attr, ir.FieldPsmHumanLabel, op.DataPsmHumanLabel); err != nil {
		return nil, err
	}
	return createPart(ctx, x, op.DataPsmOwner, attr)
}

func psmCreateAssociationEnd(ctx context.Context, x *execContext, op *ir.PsmCreateAssociationEnd) (*ir.ExecutorResult, error) {
	if _, err := x.expect(ctx, op.DataPsmOwner, ir.TypePsmClass); err != nil {
		return nil, err
	}
	if _, err := x.expect(ctx, op.DataPsmPart, ir.TypePsmClass, ir.TypePsmOr); err != nil {
		return nil, err
	}
	iri, err := x.newIRI(ctx, op.DataPsmNewIRI, ir.KindSegmentAssociationEnd)
	if err != nil {
		return nil, err
	}

	end := ir.NewResource(iri, ir.TypePsmAssociationEnd).
		With(ir.FieldPsmPart, ir.String(op.DataPsmPart))
	end = setString(end, ir.FieldPsmInterpretation, op.DataPsmInterpretation)
	end = setString(end, ir.FieldPsmTechnicalLabel, op.DataPsmTechnicalLabel)
	if end, err = setLabels(end, ir.FieldPsmHumanLabel, op.DataPsmHumanLabel); err != nil {
		return nil, err
	}
	return createPart(ctx, x, op.DataPsmOwner, end)
}

func psmCreateInclude(ctx context.Context, x *execContext, op *ir.PsmCreateInclude) (*ir.ExecutorResult, error) {
	if _, err := x.expect(ctx, op.DataPsmOwner, ir.TypePsmClass); err != nil {
		return nil, err
	}
	if _, err := x.expect(ctx, op.DataPsmIncludes, ir.TypePsmClass); err != nil {
		return nil, err
	}
	if op.DataPsmIncludes == op.DataPsmOwner {
		return nil, ir.NewPreconditionFailed(op.DataPsmOwner, "class cannot include itself")
	}
	iri, err := x.newIRI(ctx, op.DataPsmNewIRI, ir.KindSegmentInclude)
	if err != nil {
		return nil, err
	}

	include := ir.NewResource(iri, ir.TypePsmInclude).
		With(ir.FieldPsmIncludes, ir.String(op.DataPsmIncludes))
	return createPart(ctx, x, op.DataPsmOwner, include)
}

func psmCreateOr(ctx context.Context, x *execContext, op *ir.PsmCreateOr) (*ir.ExecutorResult, error) {
	schema, err := x.schema(ctx, ir.TypePsmSchema)
	if err != nil {
		return nil, err
	}
	for i, choice := range op.DataPsmChoices {
		if slices.Contains(op.DataPsmChoices[:i], choice) {
			return nil, ir.NewInvalidShape("duplicate choice %s", choice)
		}
		if _, err := x.expect(ctx, choice, ir.TypePsmClass); err != nil {
			return nil, err
		}
	}
	iri, err := x.newIRI(ctx, op.DataPsmNewIRI, ir.KindSegmentOr)
	if err != nil {
		return nil, err
	}

	or := ir.NewResource(iri, ir.TypePsmOr).WithStrings(ir.FieldPsmChoices, op.DataPsmChoices)
	return ir.NewExecutorResult().
		Create(or).
		Change(withAppended(schema, ir.FieldPsmParts, iri)).
		WithResult(ir.CreatedResult{IRI: iri}), nil
}

// referrer returns the IRI of the first resource that points at target
// through roots, parts, association end targets, choices, includes or
// extends, or "" when nothing does.
func referrer(schema *ir.Resource, members []*ir.Resource, target string) string {
	if slices.Contains(schema.StringList(ir.FieldPsmRoots), target) {
		return schema.IRI
	}
	for _, m := range members {
		if m.IRI == target {
			continue
		}
		switch {
		case m.HasType(ir.TypePsmClass):
			if slices.Contains(m.StringList(ir.FieldPsmParts), target) ||
				slices.Contains(m.StringList(ir.FieldPsmExtends), target) {
				return m.IRI
			}
		case m.HasType(ir.TypePsmAssociationEnd):
			if m.String(ir.FieldPsmPart) == target {
				return m.IRI
			}
		case m.HasType(ir.TypePsmOr):
			if slices.Contains(m.StringList(ir.FieldPsmChoices), target) {
				return m.IRI
			}
		case m.HasType(ir.TypePsmInclude):
			if m.String(ir.FieldPsmIncludes) == target {
				return m.IRI
			}
		}
	}
	return ""
}

func psmDeleteClass(ctx context.Context, x *execContext, op *ir.PsmDeleteClass) (*ir.ExecutorResult, error) {
	schema, err := x.schema(ctx, ir.TypePsmSchema)
	if err != nil {
		return nil, err
	}
	class, err := x.expect(ctx, op.DataPsmClass, ir.TypePsmClass)
	if err != nil {
		return nil, err
	}
	if parts := class.StringList(ir.FieldPsmParts); len(parts) > 0 {
		return nil, ir.NewPreconditionFailed(class.IRI, "class still has %d parts", len(parts))
	}
	members, err := x.members(ctx, schema)
	if err != nil {
		return nil, err
	}
	if by := referrer(schema, members, class.IRI); by != "" {
		return nil, ir.NewPreconditionFailed(class.IRI, "class is used by %s", by)
	}

	return ir.NewExecutorResult().
		Delete(class.IRI).
		Change(withRemoved(schema, ir.FieldPsmParts, class.IRI)), nil
}

// deletePart removes a part of the given type from its owner and the store.
func deletePart(ctx context.Context, x *execContext, ownerIRI, partIRI, partType string) (*ir.ExecutorResult, error) {
	schema, err := x.schema(ctx, ir.TypePsmSchema)
	if err != nil {
		return nil, err
	}
	owner, err := x.expect(ctx, ownerIRI, ir.TypePsmClass)
	if err != nil {
		return nil, err
	}
	if _, err := x.expect(ctx, partIRI, partType); err != nil {
		return nil, err
	}
	if !slices.Contains(owner.StringList(ir.FieldPsmParts), partIRI) {
		return nil, ir.NewPreconditionFailed(partIRI, "not a part of %s", ownerIRI)
	}

	return ir.NewExecutorResult().
		Delete(partIRI).
		Change(withRemoved(owner, ir.FieldPsmParts, partIRI)).
		Change(withRemoved(schema, ir.FieldPsmParts, partIRI)), nil
}

func psmDeleteAttribute(ctx context.Context, x *execContext, op *ir.PsmDeleteAttribute) (*ir.ExecutorResult, error) {
	return deletePart(ctx, x, op.DataPsmOwner, op.DataPsmAttribute, ir.TypePsmAttribute)
}

func psmDeleteAssociationEnd(ctx context.Context, x *execContext, op *ir.PsmDeleteAssociationEnd) (*ir.ExecutorResult, error) {
	return deletePart(ctx, x, op.DataPsmOwner, op.DataPsmAssociationEnd, ir.TypePsmAssociationEnd)
}

func psmDeleteInclude(ctx context.Context, x *execContext, op *ir.PsmDeleteInclude) (*ir.ExecutorResult, error) {
	return deletePart(ctx, x, op.DataPsmOwner, op.DataPsmInclude, ir.TypePsmInclude)
}

func psmDeleteOr(ctx context.Context, x *execContext, op *ir.PsmDeleteOr) (*ir.ExecutorResult, error) {
	schema, err := x.schema(ctx, ir.TypePsmSchema)
	if err != nil {
		return nil, err
	}
	or, err := x.expect(ctx, op.DataPsmOr, ir.TypePsmOr)
	if err != nil {
		return nil, err
	}
	members, err := x.members(ctx, schema)
	if err != nil {
		return nil, err
	}
	if by := referrer(schema, members, or.IRI); by != "" {
		return nil, ir.NewPreconditionFailed(or.IRI, "or is used by %s", by)
	}

	return ir.NewExecutorResult().
		Delete(or.IRI).
		Change(withRemoved(schema, ir.FieldPsmParts, or.IRI)), nil
}

func psmSetRoots(ctx context.Context, x *execContext, op *ir.PsmSetRoots) (*ir.ExecutorResult, error) {
	schema, err := x.schema(ctx, ir.TypePsmSchema)
	if err != nil {
		return nil, err
	}
	for i, root := range op.DataPsmRoots {
		if slices.Contains(op.DataPsmRoots[:i], root) {
			return nil, ir.NewInvalidShape("duplicate root %s", root)
		}
		if _, err := x.expect(ctx, root, ir.TypePsmClass, ir.TypePsmOr); err != nil {
			return nil, err
		}
	}
	return ir.NewExecutorResult().Change(schema.WithStrings(ir.FieldPsmRoots, op.DataPsmRoots)), nil
}

func psmSetOrder(ctx context.Context, x *execContext, op *ir.PsmSetOrder) (*ir.ExecutorResult, error) {
	owner, err := x.expect(ctx, op.DataPsmOwnerClass, ir.TypePsmClass)
	if err != nil {
		return nil, err
	}
	parts := owner.StringList(ir.FieldPsmParts)
	if !slices.Contains(parts, op.DataPsmResourceToMove) {
		return nil, ir.NewPreconditionFailed(op.DataPsmResourceToMove, "not a part of %s", owner.IRI)
	}
	anchor := op.DataPsmNewPositionAfter
	if anchor != nil && !slices.Contains(parts, *anchor) {
		return nil, ir.NewPreconditionFailed(*anchor, "not a part of %s", owner.IRI)
	}
	if anchor != nil && *anchor == op.DataPsmResourceToMove {
		return ir.NewExecutorResult(), nil
	}

	reordered := moveAfter(parts, op.DataPsmResourceToMove, anchor)
	return ir.NewExecutorResult().Change(owner.WithStrings(ir.FieldPsmParts, reordered)), nil
}

func psmSetChoice(ctx context.Context, x *execContext, op *ir.PsmSetChoice) (*ir.ExecutorResult, error) {
	or, err := x.expect(ctx, op.DataPsmOr, ir.TypePsmOr)
	if err != nil {
		return nil, err
	}
	if _, err := x.expect(ctx, op.DataPsmChoice, ir.TypePsmClass); err != nil {
		return nil, err
	}
	if slices.Contains(or.StringList(ir.FieldPsmChoices), op.DataPsmChoice) {
		return ir.NewExecutorResult(), nil
	}
	return ir.NewExecutorResult().Change(withAppended(or, ir.FieldPsmChoices, op.DataPsmChoice)), nil
}

func psmUnsetChoice(ctx context.Context, x *execContext, op *ir.PsmUnsetChoice) (*ir.ExecutorResult, error) {
	or, err := x.expect(ctx, op.DataPsmOr, ir.TypePsmOr)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(or.StringList(ir.FieldPsmChoices), op.DataPsmChoice) {
		return nil, ir.NewPreconditionFailed(op.DataPsmChoice, "not a choice of %s", or.IRI)
	}
	return ir.NewExecutorResult().Change(withRemoved(or, ir.FieldPsmChoices, op.DataPsmChoice)), nil
}

func psmUnwrapOr(ctx context.Context, x *execContext, op *ir.PsmUnwrapOr) (*ir.ExecutorResult, error) {
	schema, err := x.schema(ctx, ir.TypePsmSchema)
	if err != nil {
		return nil, err
	}
	or, err := x.expect(ctx, op.DataPsmOr, ir.TypePsmOr)
	if err != nil {
		return nil, err
	}
	choices := or.StringList(ir.FieldPsmChoices)
	if len(choices) != 1 {
		return nil, ir.NewPreconditionFailed(or.IRI, "or has %d choices, unwrap needs exactly 1", len(choices))
	}
	replacement := choices[0]

	members, err := x.members(ctx, schema)
	if err != nil {
		return nil, err
	}
	result := ir.NewExecutorResult()
	for _, m := range members {
		if m.HasType(ir.TypePsmAssociationEnd) && m.String(ir.FieldPsmPart) == or.IRI {
			result.Change(m.With(ir.FieldPsmPart, ir.String(replacement)))
		}
	}

	var roots []string
	for _, root := range schema.StringList(ir.FieldPsmRoots) {
		if root == or.IRI {
			root = replacement
		}
		if !slices.Contains(roots, root) {
			roots = append(roots, root)
		}
	}
	schema = schema.WithStrings(ir.FieldPsmRoots, roots)

	return result.
		Delete(or.IRI).
		Change(withRemoved(schema, ir.FieldPsmParts, or.IRI)), nil
}

var psmLabelled = []string{
	ir.TypePsmSchema,
	ir.TypePsmClass,
	ir.TypePsmAttribute,
	ir.TypePsmAssociationEnd,
	ir.TypePsmOr,
}

func psmSetHumanLabel(ctx context.Context, x *execContext, op *ir.PsmSetHumanLabel) (*ir.ExecutorResult, error) {
	res, err := x.expect(ctx, op.DataPsmResource, psmLabelled...)
	if err != nil {
		return nil, err
	}
	if res, err = setLabels(res, ir.FieldPsmHumanLabel, op.DataPsmHumanLabel); err != nil {
		return nil, err
	}
	return ir.NewExecutorResult().Change(res), nil
}

func psmSetTechnicalLabel(ctx context.Context, x *execContext, op *ir.PsmSetTechnicalLabel) (*ir.ExecutorResult, error) {
	res, err := x.expect(ctx, op.DataPsmResource, ir.TypePsmClass, ir.TypePsmAttribute, ir.TypePsmAssociationEnd)
	if err != nil {
		return nil, err
	}
	return ir.NewExecutorResult().Change(setString(res, ir.FieldPsmTechnicalLabel, op.DataPsmTechnicalLabel)), nil
}
