package queryir

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/mff-uk/dataspecer-sub018/internal/ir"
)

// fieldName is the shape of every resource field. It keeps field names safe
// to embed in a JSON path.
var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// ErrInvalidQuery wraps every validation failure.
var ErrInvalidQuery = errors.New("invalid query")

// Validate reports every problem with q. A valid query can be compiled by
// every backend.
func Validate(q Query) error {
	v := &validator{}
	if q.Limit < 0 {
		v.addProblem("limit must be non-negative, got %d", q.Limit)
	}
	if q.Filter != nil {
		v.validatePredicate("filter", q.Filter)
	}
	if len(v.problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidQuery, strings.Join(v.problems, "; "))
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validatePredicate(path string, p Predicate) {
	switch pred := p.(type) {
	case Equals:
		v.validateField(path, pred.Field)
		v.validateValue(path, pred.Value)
		if _, ok := pred.Value.(ir.String); pred.Field == FieldIRI && !ok {
			v.addProblem("%s: iri compares to strings only", path)
		}
	case Contains:
		v.validateField(path, pred.Field)
		if pred.Field == FieldIRI {
			v.addProblem("%s: iri is not a list", path)
		}
		if pred.Value == "" {
			v.addProblem("%s: value is required", path)
		}
	case HasType:
		if pred.Type == "" {
			v.addProblem("%s: type is required", path)
		}
	case InSchema:
		if pred.IRI == "" {
			v.addProblem("%s: schema iri is required", path)
		}
	case And:
		for i, sub := range pred.Predicates {
			v.validatePredicate(fmt.Sprintf("%s.and[%d]", path, i), sub)
		}
	case nil:
		v.addProblem("%s: nil predicate", path)
	default:
		v.addProblem("%s: unknown predicate type %T", path, p)
	}
}

func (v *validator) validateField(path, field string) {
	switch {
	case field == "":
		v.addProblem("%s: field is required", path)
	case field == "types":
		v.addProblem("%s: use a type predicate for types", path)
	case !fieldName.MatchString(field):
		v.addProblem("%s: invalid field name %q", path, field)
	}
}

func (v *validator) validateValue(path string, value ir.Value) {
	switch val := value.(type) {
	case ir.String, ir.Bool, ir.Null:
	case ir.Number:
		if _, err := val.Int64(); err != nil {
			v.addProblem("%s: only integer numbers can be compared, got %s", path, val)
		}
	case nil:
		v.addProblem("%s: value is required", path)
	default:
		v.addProblem("%s: %T values cannot be compared", path, value)
	}
}
