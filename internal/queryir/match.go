package queryir

import "github.com/mff-uk/dataspecer-sub018/internal/ir"

// Match evaluates p against r, which belongs to schemaIRI. A nil predicate
// matches. The query must be valid.
func Match(p Predicate, schemaIRI string, r *ir.Resource) bool {
	switch pred := p.(type) {
	case nil:
		return true
	case Equals:
		return matchEquals(pred, r)
	case Contains:
		list, ok := r.Fields[pred.Field].(ir.List)
		if !ok {
			return false
		}
		for _, item := range list {
			if s, ok := item.(ir.String); ok && string(s) == pred.Value {
				return true
			}
		}
		return false
	case HasType:
		return r.HasType(pred.Type)
	case InSchema:
		return schemaIRI == pred.IRI
	case And:
		for _, sub := range pred.Predicates {
			if !Match(sub, schemaIRI, r) {
				return false
			}
		}
		return true
	}
	return false
}

func matchEquals(eq Equals, r *ir.Resource) bool {
	if eq.Field == FieldIRI {
		s, ok := eq.Value.(ir.String)
		return ok && string(s) == r.IRI
	}
	got, ok := r.Fields[eq.Field]
	if _, null := eq.Value.(ir.Null); null {
		if !ok {
			return true
		}
		_, isNull := got.(ir.Null)
		return isNull
	}
	if !ok {
		return false
	}
	if want, ok := eq.Value.(ir.Number); ok {
		n, isNum := got.(ir.Number)
		if !isNum {
			return false
		}
		a, errA := want.Int64()
		b, errB := n.Int64()
		return errA == nil && errB == nil && a == b
	}
	return ir.EqualValues(got, eq.Value)
}
