package executor

import (
	"context"
	"fmt"
	"slices"

	"github.com/mff-uk/dataspecer-sub018/internal/ir"
)

// execContext bundles the inputs of one executor call with lookup helpers.
// Helpers report domain problems as *ir.Failure errors; typed converts them
// into failed results.
type execContext struct {
	reader Reader
	gen    IdentifierGenerator
}

func (x *execContext) read(ctx context.Context, iri string) (*ir.Resource, error) {
	res, err := x.reader.ReadResource(ctx, iri)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", iri, err)
	}
	return res, nil
}

// expect reads iri and checks that it carries at least one of types.
func (x *execContext) expect(ctx context.Context, iri string, types ...string) (*ir.Resource, error) {
	if iri == "" {
		return nil, ir.NewInvalidShape("missing resource reference")
	}
	res, err := x.read(ctx, iri)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, ir.NewMissingResource(iri)
	}
	if !res.HasAnyType(types...) {
		return nil, ir.NewInvalidType(iri, types[0])
	}
	return res, nil
}

// findSchema returns the schema resource of the store, or nil if the store
// has none yet.
func (x *execContext) findSchema(ctx context.Context) (*ir.Resource, error) {
	if loc, ok := x.reader.(SchemaLocator); ok {
		iri := loc.SchemaIRI()
		if iri == "" {
			return nil, nil
		}
		return x.read(ctx, iri)
	}

	iris, err := x.reader.ListResources(ctx)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	for _, iri := range iris {
		res, err := x.read(ctx, iri)
		if err != nil {
			return nil, err
		}
		if res.IsSchema() {
			return res, nil
		}
	}
	return nil, nil
}

// schema returns the store's schema resource and checks its layer.
func (x *execContext) schema(ctx context.Context, schemaType string) (*ir.Resource, error) {
	schema, err := x.findSchema(ctx)
	if err != nil {
		return nil, err
	}
	if schema == nil {
		return nil, ir.NewSchemaNotFound("")
	}
	if !schema.HasType(schemaType) {
		return nil, ir.NewInvalidType(schema.IRI, schemaType)
	}
	return schema, nil
}

// members reads every resource listed in the schema manifest, in order.
func (x *execContext) members(ctx context.Context, schema *ir.Resource) ([]*ir.Resource, error) {
	iris := schema.StringList(ir.ManifestField(schema))
	out := make([]*ir.Resource, 0, len(iris))
	for _, iri := range iris {
		res, err := x.read(ctx, iri)
		if err != nil {
			return nil, err
		}
		if res != nil {
			out = append(out, res)
		}
	}
	return out, nil
}

// newIRI returns requested when set and unused, otherwise a generated IRI.
func (x *execContext) newIRI(ctx context.Context, requested, kind string) (string, error) {
	if requested == "" {
		return x.gen.NewIRI(kind), nil
	}
	existing, err := x.read(ctx, requested)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", ir.NewPreconditionFailed(requested, "iri is already in use")
	}
	return requested, nil
}

// newIRIs is newIRI for several resources minted by one operation. Explicit
// IRIs must be distinct.
func (x *execContext) newIRIs(ctx context.Context, requested []string, kinds ...string) ([]string, error) {
	if len(requested) != 0 && len(requested) != len(kinds) {
		return nil, ir.NewInvalidShape("expected %d new iris, got %d", len(kinds), len(requested))
	}
	out := make([]string, len(kinds))
	for i, kind := range kinds {
		want := ""
		if len(requested) != 0 {
			want = requested[i]
		}
		iri, err := x.newIRI(ctx, want, kind)
		if err != nil {
			return nil, err
		}
		if slices.Contains(out[:i], iri) {
			return nil, ir.NewInvalidShape("duplicate new iri %s", iri)
		}
		out[i] = iri
	}
	return out, nil
}

// withAppended returns res with iris appended to field.
func withAppended(res *ir.Resource, field string, iris ...string) *ir.Resource {
	return res.WithStrings(field, append(res.StringList(field), iris...))
}

// withRemoved returns res with every occurrence of iris dropped from field.
func withRemoved(res *ir.Resource, field string, iris ...string) *ir.Resource {
	list := slices.DeleteFunc(res.StringList(field), func(s string) bool {
		return slices.Contains(iris, s)
	})
	return res.WithStrings(field, list)
}

// setLabels writes a language map field, dropping it when empty.
func setLabels(res *ir.Resource, field string, ls ir.LanguageString) (*ir.Resource, error) {
	if err := ls.Validate(); err != nil {
		return nil, ir.NewInvalidShape("%s: %v", field, err)
	}
	if len(ls) == 0 {
		return res.Without(field), nil
	}
	return res.With(field, ls.ToValue()), nil
}

// setString writes a string field, dropping it when empty.
func setString(res *ir.Resource, field, value string) *ir.Resource {
	if value == "" {
		return res.Without(field)
	}
	return res.With(field, ir.String(value))
}

func checkCardinality(lo *int64, hi *int64) error {
	if lo != nil && *lo < 0 {
		return ir.NewInvalidShape("cardinality minimum %d is negative", *lo)
	}
	if hi != nil && *hi < 0 {
		return ir.NewInvalidShape("cardinality maximum %d is negative", *hi)
	}
	if lo != nil && hi != nil && *hi < *lo {
		return ir.NewInvalidShape("cardinality maximum %d is below minimum %d", *hi, *lo)
	}
	return nil
}

func cardinalityMax(hi *int64) ir.Value {
	if hi == nil {
		return ir.Null{}
	}
	return ir.Int(*hi)
}
