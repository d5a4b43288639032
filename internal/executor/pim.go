package executor

import (
	"context"
	"slices"

	"github.com/mff-uk/dataspecer-sub018/internal/ir"
)

func registerPim(r *Registry) {
	r.mustRegister(ir.KindPimCreateSchema, typed(pimCreateSchema))
	r.mustRegister(ir.KindPimCreateClass, typed(pimCreateClass))
	r.mustRegister(ir.KindPimCreateAttribute, typed(pimCreateAttribute))
	r.mustRegister(ir.KindPimCreateAssociation, typed(pimCreateAssociation))
	r.mustRegister(ir.KindPimDeleteClass, typed(pimDeleteClass))
	r.mustRegister(ir.KindPimDeleteAttribute, typed(pimDeleteAttribute))
	r.mustRegister(ir.KindPimDeleteAssociation, typed(pimDeleteAssociation))
	r.mustRegister(ir.KindPimSetCardinality, typed(pimSetCardinality))
	r.mustRegister(ir.KindPimSetDatatype, typed(pimSetDatatype))
	r.mustRegister(ir.KindPimSetHumanLabel, typed(pimSetHumanLabel))
	r.mustRegister(ir.KindPimSetHumanDescription, typed(pimSetHumanDescription))
	r.mustRegister(ir.KindPimSetTechnicalLabel, typed(pimSetTechnicalLabel))
	r.mustRegister(ir.KindPimSetClassCodelist, typed(pimSetClassCodelist))
	r.mustRegister(ir.KindPimSetExtends, typed(pimSetExtends))
}

var pimLabelled = []string{
	ir.TypePimSchema,
	ir.TypePimClass,
	ir.TypePimAttribute,
	ir.TypePimAssociation,
	ir.TypePimAssociationEnd,
}

func pimCreateSchema(ctx context.Context, x *execContext, op *ir.PimCreateSchema) (*ir.ExecutorResult, error) {
	existing, err := x.findSchema(ctx)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ir.NewPreconditionFailed(existing.IRI, "store already has a schema")
	}

	iri, err := x.newIRI(ctx, op.PimNewIRI, ir.KindSegmentSchema)
	if err != nil {
		return nil, err
	}
	schema := ir.NewResource(iri, ir.TypePimSchema).WithStrings(ir.FieldPimParts, nil)
	if schema, err = setLabels(schema, ir.FieldPimHumanLabel, op.PimHumanLabel); err != nil {
		return nil, err
	}
	if schema, err = setLabels(schema, ir.FieldPimHumanDescription, op.PimHumanDescription); err != nil {
		return nil, err
	}

	return ir.NewExecutorResult().
		Create(schema).
		WithResult(ir.CreatedResult{IRI: iri}), nil
}

func pimCreateClass(ctx context.Context, x *execContext, op *ir.PimCreateClass) (*ir.ExecutorResult, error) {
	schema, err := x.schema(ctx, ir.TypePimSchema)
	if err != nil {
		return nil, err
	}
	for _, parent := range op.PimExtends {
		if _, err := x.expect(ctx, parent, ir.TypePimClass); err != nil {
			return nil, err
		}
	}

	iri, err := x.newIRI(ctx, op.PimNewIRI, ir.KindSegmentClass)
	if err != nil {
		return nil, err
	}

	types := []string{ir.TypePimClass}
	if op.PimIsCodelist {
		types = append(types, ir.TypePimCodelist)
	}
	class := ir.NewResource(iri, types...).
		WithStrings(ir.FieldPimExtends, op.PimExtends)
	class = setString(class, ir.FieldPimInterpretation, op.PimInterpretation)
	class = setString(class, ir.FieldPimTechnicalLabel, op.PimTechnicalLabel)
	if op.PimIsCodelist {
		class = class.WithStrings(ir.FieldPimCodelistURL, op.PimCodelistURL)
	}
	if class, err = setLabels(class, ir.FieldPimHumanLabel, op.PimHumanLabel); err != nil {
		return nil, err
	}
	if class, err = setLabels(class, ir.FieldPimHumanDescription, op.PimHumanDescription); err != nil {
		return nil, err
	}

	return ir.NewExecutorResult().
		Create(class).
		Change(withAppended(schema, ir.FieldPimParts, iri)).
		WithResult(ir.CreatedResult{IRI: iri}), nil
}

func pimCreateAttribute(ctx context.Context, x *execContext, op *ir.PimCreateAttribute) (*ir.ExecutorResult, error) {
	schema, err := x.schema(ctx, ir.TypePimSchema)
	if err != nil {
		return nil, err
	}
	if _, err := x.expect(ctx, op.PimOwnerClass, ir.TypePimClass); err != nil {
		return nil, err
	}
	if err := checkCardinality(op.PimCardinalityMin, op.PimCardinalityMax); err != nil {
		return nil, err
	}

	iri, err := x.newIRI(ctx, op.PimNewIRI, ir.KindSegmentAttribute)
	if err != nil {
		return nil, err
	}

	attr := ir.NewResource(iri, ir.TypePimAttribute).
		With(ir.FieldPimOwnerClass, ir.String(op.PimOwnerClass))
	attr = setString(attr, ir.FieldPimInterpretation, op.PimInterpretation)
	attr = setString(attr, ir.FieldPimTechnicalLabel, op.PimTechnicalLabel)
	attr = setString(attr, ir.FieldPimDatatype, op.PimDatatype)
	if op.PimCardinalityMin != nil {
		attr = attr.With(ir.FieldPimCardinalityMin, ir.Int(*op.PimCardinalityMin))
	}
	if op.PimCardinalityMax != nil {
		attr = attr.With(ir.FieldPimCardinalityMax, ir.Int(*op.PimCardinalityMax))
	}
	if attr, err = setLabels(attr, ir.FieldPimHumanLabel, op.PimHumanLabel); err != nil {
		return nil, err
	}
	if attr, err = setLabels(attr, ir.FieldPimHumanDescription, op.PimHumanDescription); err != nil {
		return nil, err
	}

	return ir.NewExecutorResult().
		Create(attr).
		Change(withAppended(schema, ir.FieldPimParts, iri)).
		WithResult(ir.CreatedResult{IRI: iri}), nil
}

func pimCreateAssociation(ctx context.Context, x *execContext, op *ir.PimCreateAssociation) (*ir.ExecutorResult, error) {
	if len(op.PimAssociationEnds) != 2 {
		return nil, ir.NewInvalidShape("association needs exactly 2 ends, got %d", len(op.PimAssociationEnds))
	}
	if len(op.PimNewEndIRIs) != 0 && len(op.PimNewEndIRIs) != 2 {
		return nil, ir.NewInvalidShape("association needs exactly 2 new end iris, got %d", len(op.PimNewEndIRIs))
	}
	schema, err := x.schema(ctx, ir.TypePimSchema)
	if err != nil {
		return nil, err
	}
	for _, class := range op.PimAssociationEnds {
		if _, err := x.expect(ctx, class, ir.TypePimClass); err != nil {
			return nil, err
		}
	}

	requested := []string(nil)
	if op.PimNewIRI != "" || len(op.PimNewEndIRIs) != 0 {
		requested = []string{op.PimNewIRI, "", ""}
		if len(op.PimNewEndIRIs) == 2 {
			requested[1], requested[2] = op.PimNewEndIRIs[0], op.PimNewEndIRIs[1]
		}
	}
	iris, err := x.newIRIs(ctx, requested,
		ir.KindSegmentAssociation, ir.KindSegmentAssociationEnd, ir.KindSegmentAssociationEnd)
	if err != nil {
		return nil, err
	}
	assocIRI, endIRIs := iris[0], [2]string{iris[1], iris[2]}

	assoc := ir.NewResource(assocIRI, ir.TypePimAssociation).
		WithStrings(ir.FieldPimEnd, endIRIs[:]).
		With(ir.FieldPimIsOriented, ir.Bool(op.PimIsOriented))
	assoc = setString(assoc, ir.FieldPimInterpretation, op.PimInterpretation)
	assoc = setString(assoc, ir.FieldPimTechnicalLabel, op.PimTechnicalLabel)
	if assoc, err = setLabels(assoc, ir.FieldPimHumanLabel, op.PimHumanLabel); err != nil {
		return nil, err
	}
	if assoc, err = setLabels(assoc, ir.FieldPimHumanDescription, op.PimHumanDescription); err != nil {
		return nil, err
	}

	result := ir.NewExecutorResult().Create(assoc)
	for i, endIRI := range endIRIs {
		result.Create(ir.NewResource(endIRI, ir.TypePimAssociationEnd).
			With(ir.FieldPimPart, ir.String(op.PimAssociationEnds[i])))
	}

	return result.
		Change(withAppended(schema, ir.FieldPimParts, assocIRI, endIRIs[0], endIRIs[1])).
		WithResult(ir.CreatedAssociationResult{AssociationIRI: assocIRI, EndIRIs: endIRIs}), nil
}

func pimDeleteClass(ctx context.Context, x *execContext, op *ir.PimDeleteClass) (*ir.ExecutorResult, error) {
	schema, err := x.schema(ctx, ir.TypePimSchema)
	if err != nil {
		return nil, err
	}
	if _, err := x.expect(ctx, op.PimClass, ir.TypePimClass); err != nil {
		return nil, err
	}

	members, err := x.members(ctx, schema)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		switch {
		case m.HasType(ir.TypePimAttribute) && m.String(ir.FieldPimOwnerClass) == op.PimClass:
			return nil, ir.NewPreconditionFailed(op.PimClass, "class is used by attribute %s", m.IRI)
		case m.HasType(ir.TypePimAssociationEnd) && m.String(ir.FieldPimPart) == op.PimClass:
			return nil, ir.NewPreconditionFailed(op.PimClass, "class is used by association end %s", m.IRI)
		}
	}

	return ir.NewExecutorResult().
		Delete(op.PimClass).
		Change(withRemoved(schema, ir.FieldPimParts, op.PimClass)), nil
}

func pimDeleteAttribute(ctx context.Context, x *execContext, op *ir.PimDeleteAttribute) (*ir.ExecutorResult, error) {
	schema, err := x.schema(ctx, ir.TypePimSchema)
	if err != nil {
		return nil, err
	}
	if _, err := x.expect(ctx, op.PimAttribute, ir.TypePimAttribute); err != nil {
		return nil, err
	}

	return ir.NewExecutorResult().
		Delete(op.PimAttribute).
		Change(withRemoved(schema, ir.FieldPimParts, op.PimAttribute)), nil
}

func pimDeleteAssociation(ctx context.Context, x *execContext, op *ir.PimDeleteAssociation) (*ir.ExecutorResult, error) {
	schema, err := x.schema(ctx, ir.TypePimSchema)
	if err != nil {
		return nil, err
	}
	assoc, err := x.expect(ctx, op.PimAssociation, ir.TypePimAssociation)
	if err != nil {
		return nil, err
	}

	removed := append([]string{assoc.IRI}, assoc.StringList(ir.FieldPimEnd)...)
	result := ir.NewExecutorResult()
	for _, iri := range removed {
		result.Delete(iri)
	}
	return result.Change(withRemoved(schema, ir.FieldPimParts, removed...)), nil
}

func pimSetCardinality(ctx context.Context, x *execContext, op *ir.PimSetCardinality) (*ir.ExecutorResult, error) {
	res, err := x.expect(ctx, op.PimResource, ir.TypePimAttribute, ir.TypePimAssociationEnd)
	if err != nil {
		return nil, err
	}
	if err := checkCardinality(&op.PimCardinalityMin, op.PimCardinalityMax); err != nil {
		return nil, err
	}

	res = res.
		With(ir.FieldPimCardinalityMin, ir.Int(op.PimCardinalityMin)).
		With(ir.FieldPimCardinalityMax, cardinalityMax(op.PimCardinalityMax))
	return ir.NewExecutorResult().Change(res), nil
}

func pimSetDatatype(ctx context.Context, x *execContext, op *ir.PimSetDatatype) (*ir.ExecutorResult, error) {
	attr, err := x.expect(ctx, op.PimAttribute, ir.TypePimAttribute)
	if err != nil {
		return nil, err
	}
	return ir.NewExecutorResult().Change(setString(attr, ir.FieldPimDatatype, op.PimDatatype)), nil
}

func pimSetHumanLabel(ctx context.Context, x *execContext, op *ir.PimSetHumanLabel) (*ir.ExecutorResult, error) {
	res, err := x.expect(ctx, op.PimResource, pimLabelled...)
	if err != nil {
		return nil, err
	}
	if res, err = setLabels(res, ir.FieldPimHumanLabel, op.PimHumanLabel); err != nil {
		return nil, err
	}
	return ir.NewExecutorResult().Change(res), nil
}

func pimSetHumanDescription(ctx context.Context, x *execContext, op *ir.PimSetHumanDescription) (*ir.ExecutorResult, error) {
	res, err := x.expect(ctx, op.PimResource, pimLabelled...)
	if err != nil {
		return nil, err
	}
	if res, err = setLabels(res, ir.FieldPimHumanDescription, op.PimHumanDescription); err != nil {
		return nil, err
	}
	return ir.NewExecutorResult().Change(res), nil
}

func pimSetTechnicalLabel(ctx context.Context, x *execContext, op *ir.PimSetTechnicalLabel) (*ir.ExecutorResult, error) {
	res, err := x.expect(ctx, op.PimResource, ir.TypePimClass, ir.TypePimAttribute, ir.TypePimAssociation)
	if err != nil {
		return nil, err
	}
	return ir.NewExecutorResult().Change(setString(res, ir.FieldPimTechnicalLabel, op.PimTechnicalLabel)), nil
}

func pimSetClassCodelist(ctx context.Context, x *execContext, op *ir.PimSetClassCodelist) (*ir.ExecutorResult, error) {
	class, err := x.expect(ctx, op.PimClass, ir.TypePimClass)
	if err != nil {
		return nil, err
	}

	types := slices.DeleteFunc(slices.Clone(class.Types), func(t string) bool { return t == ir.TypePimCodelist })
	if op.PimIsCodelist {
		types = append(types, ir.TypePimCodelist)
		class = class.WithTypes(types...).WithStrings(ir.FieldPimCodelistURL, op.PimCodelistURL)
	} else {
		class = class.WithTypes(types...).Without(ir.FieldPimCodelistURL)
	}
	return ir.NewExecutorResult().Change(class), nil
}

func pimSetExtends(ctx context.Context, x *execContext, op *ir.PimSetExtends) (*ir.ExecutorResult, error) {
	class, err := x.expect(ctx, op.PimClass, ir.TypePimClass)
	if err != nil {
		return nil, err
	}
	for _, parent := range op.PimExtends {
		if parent == op.PimClass {
			return nil, ir.NewPreconditionFailed(op.PimClass, "class cannot extend itself")
		}
		if _, err := x.expect(ctx, parent, ir.TypePimClass); err != nil {
			return nil, err
		}
	}
	return ir.NewExecutorResult().Change(class.WithStrings(ir.FieldPimExtends, op.PimExtends)), nil
}
