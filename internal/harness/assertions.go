package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/mff-uk/dataspecer-sub018/internal/compiler"
	"github.com/mff-uk/dataspecer-sub018/internal/federated"
	"github.com/mff-uk/dataspecer-sub018/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for i, ev := range e.Trace {
		if ev.Failure != "" {
			fmt.Fprintf(&buf, "  [%d] step %d %s refused: %s\n", i+1, ev.Step, ev.Kind, ev.Failure)
			continue
		}
		fmt.Fprintf(&buf, "  [%d] step %d %s %s\n", i+1, ev.Step, ev.Kind, ev.Operation)
	}
	return buf.String()
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store    *federated.Store
	Bindings compiler.Bindings
	Ctx      context.Context
}

func (actx *AssertionContext) read(iri string) (string, *ir.Resource, error) {
	resolved, err := actx.Bindings.Resolve(iri)
	if err != nil {
		return "", nil, err
	}
	res, err := actx.Store.ReadResource(actx.Ctx, resolved)
	return resolved, res, err
}

func assertExists(actx *AssertionContext, result *Result, a Assertion) error {
	iri, res, err := actx.read(a.IRI)
	if err != nil {
		return err
	}
	if res == nil {
		return &AssertionError{
			Type:     AssertExists,
			Expected: fmt.Sprintf("%s resolves", iri),
			Actual:   "not found",
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertAbsent(actx *AssertionContext, result *Result, a Assertion) error {
	iri, res, err := actx.read(a.IRI)
	if err != nil {
		return err
	}
	if res != nil {
		return &AssertionError{
			Type:     AssertAbsent,
			Expected: fmt.Sprintf("%s does not resolve", iri),
			Actual:   fmt.Sprintf("resource with types %v", res.Types),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertFields checks a subset of the resource's fields. The key "types"
// compares the type list; a null expectation matches a missing field.
func assertFields(actx *AssertionContext, result *Result, a Assertion) error {
	iri, res, err := actx.read(a.IRI)
	if err != nil {
		return err
	}
	if res == nil {
		return &AssertionError{
			Type:     AssertFields,
			Expected: fmt.Sprintf("%s resolves", iri),
			Actual:   "not found",
			Trace:    result.Trace,
		}
	}

	raw, err := ir.FromAny(a.Expect)
	if err != nil {
		return fmt.Errorf("expect: %w", err)
	}
	expected, err := actx.Bindings.Substitute(raw)
	if err != nil {
		return fmt.Errorf("expect: %w", err)
	}

	obj := expected.(ir.Object)
	for _, field := range obj.SortedKeys() {
		want := obj[field]
		var got ir.Value
		if field == "types" {
			got = ir.Strings(res.Types...)
		} else if v, ok := res.Get(field); ok {
			got = v
		}

		if _, null := want.(ir.Null); null && got == nil {
			continue
		}
		if got == nil || !ir.EqualValues(want, got) {
			return &AssertionError{
				Type:     AssertFields,
				Expected: fmt.Sprintf("%s.%s = %s", iri, field, render(want)),
				Actual:   render(got),
				Trace:    result.Trace,
			}
		}
	}
	return nil
}

func assertOwner(actx *AssertionContext, result *Result, a Assertion) error {
	iri, err := actx.Bindings.Resolve(a.IRI)
	if err != nil {
		return err
	}
	schema, err := actx.Bindings.Resolve(a.Schema)
	if err != nil {
		return err
	}
	owner, err := actx.Store.GetSchemaForResource(actx.Ctx, iri)
	if err != nil {
		return err
	}
	if owner != schema {
		return &AssertionError{
			Type:     AssertOwner,
			Expected: fmt.Sprintf("%s owned by %s", iri, schema),
			Actual:   fmt.Sprintf("owned by %q", owner),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertResourceCount(actx *AssertionContext, result *Result, a Assertion) error {
	iris, err := actx.Store.ListResources(actx.Ctx)
	if err != nil {
		return err
	}
	if len(iris) != a.Count {
		return &AssertionError{
			Type:     AssertResourceCount,
			Expected: fmt.Sprintf("%d resources", a.Count),
			Actual:   fmt.Sprintf("%d resources: %v", len(iris), iris),
			Trace:    result.Trace,
		}
	}
	return nil
}

func render(v ir.Value) string {
	if v == nil {
		return "<missing>"
	}
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// EvaluateAssertions evaluates all assertions against the final state.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertExists:
			err = assertExists(actx, result, assertion)
		case AssertAbsent:
			err = assertAbsent(actx, result, assertion)
		case AssertFields:
			err = assertFields(actx, result, assertion)
		case AssertOwner:
			err = assertOwner(actx, result, assertion)
		case AssertResourceCount:
			err = assertResourceCount(actx, result, assertion)
		default:
			err = fmt.Errorf("unknown assertion type %q", assertion.Type)
		}

		if err != nil {
			errors = append(errors, fmt.Sprintf("assertion[%d]: %v", i, err))
		}
	}

	return errors
}
