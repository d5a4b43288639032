package compiler

import (
	"fmt"

	"github.com/mff-uk/dataspecer-sub018/internal/ir"
)

// Bindings maps names bound by earlier steps to IRIs.
type Bindings map[string]string

// Record binds the names of step from a successful result. Steps without a
// name, and results that created nothing, bind nothing.
func (b Bindings) Record(step *Step, result ir.OperationResult) {
	if step.Bind == "" {
		return
	}
	switch r := result.(type) {
	case ir.CreatedResult:
		b[step.Bind] = r.IRI
	case ir.CreatedAssociationResult:
		b[step.Bind] = r.AssociationIRI
		b[step.Bind+".end1"] = r.EndIRIs[0]
		b[step.Bind+".end2"] = r.EndIRIs[1]
	}
}

// Resolve returns s with a reference replaced by its IRI. "$$x" yields the
// literal "$x".
func (b Bindings) Resolve(s string) (string, error) {
	if name, ok := refName(s); ok {
		iri, ok := b[name]
		if !ok {
			return "", fmt.Errorf("$%s is not bound", name)
		}
		return iri, nil
	}
	if len(s) >= 2 && s[:2] == "$$" {
		return s[1:], nil
	}
	return s, nil
}

// Substitute resolves every string in v.
func (b Bindings) Substitute(v ir.Value) (ir.Value, error) {
	switch val := v.(type) {
	case ir.String:
		s, err := b.Resolve(string(val))
		return ir.String(s), err
	case ir.List:
		out := make(ir.List, len(val))
		for i, item := range val {
			conv, err := b.Substitute(item)
			if err != nil {
				return nil, err
			}
			out[i] = conv
		}
		return out, nil
	case ir.Object:
		out := make(ir.Object, len(val))
		for k, item := range val {
			conv, err := b.Substitute(item)
			if err != nil {
				return nil, err
			}
			out[k] = conv
		}
		return out, nil
	default:
		return v, nil
	}
}

// SchemaIRI returns the resolved target schema of the step, or "".
func (s *Step) SchemaIRI(b Bindings) (string, error) {
	return b.Resolve(s.Schema)
}

// Operation returns the primitive operation of the step with references
// resolved. It panics on a complex step.
func (s *Step) Operation(b Bindings) (ir.Operation, error) {
	if s.Complex != "" {
		panic(fmt.Sprintf("compiler: step %d is the complex operation %s", s.Index, s.Complex))
	}
	args, err := b.Substitute(s.Args)
	if err != nil {
		return nil, fmt.Errorf("steps[%d]: %w", s.Index, err)
	}
	obj := args.(ir.Object)
	obj["types"] = ir.Strings(s.Kind.Tag())
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return nil, fmt.Errorf("steps[%d]: %w", s.Index, err)
	}
	op, err := ir.UnmarshalOperation(data)
	if err != nil {
		return nil, fmt.Errorf("steps[%d]: %w", s.Index, err)
	}
	return op, nil
}

// ComplexArgs returns the resolved string arguments of a complex step.
func (s *Step) ComplexArgs(b Bindings) (map[string]string, error) {
	out := make(map[string]string, len(complexArgs[s.Complex]))
	for _, name := range complexArgs[s.Complex] {
		raw, _ := s.Args[name].(ir.String)
		v, err := b.Resolve(string(raw))
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", s.Index, err)
		}
		out[name] = v
	}
	return out, nil
}
