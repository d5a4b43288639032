package queryir

import "github.com/mff-uk/dataspecer-sub018/internal/ir"

// FieldIRI addresses the resource IRI in Equals.
const FieldIRI = "iri"

// Query selects resources. Results are ordered by schema IRI, then resource
// IRI.
type Query struct {
	Filter Predicate // nil matches every resource
	Limit  int       // 0 means no limit
}

// Predicate is a filter condition over one resource and its owning schema.
//
// This is a sealed interface; only types in this package implement it.
type Predicate interface {
	predicateNode()
}

// Equals holds when the field has exactly Value.
//
// Value is a String, an integer Number, a Bool or Null. Null matches a field
// that is unset or explicitly null. Field may be FieldIRI.
type Equals struct {
	Field string
	Value ir.Value
}

func (Equals) predicateNode() {}

// Contains holds when the field is a list that includes the string Value,
// for example dataPsmParts containing a given part.
type Contains struct {
	Field string
	Value string
}

func (Contains) predicateNode() {}

// HasType holds when the resource carries the type tag.
type HasType struct {
	Type string
}

func (HasType) predicateNode() {}

// InSchema holds when the resource belongs to the schema.
type InSchema struct {
	IRI string
}

func (InSchema) predicateNode() {}

// And holds when every predicate holds. An empty And always holds.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// AllOf returns the conjunction of preds, or nil when preds is empty.
func AllOf(preds ...Predicate) Predicate {
	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	}
	return And{Predicates: preds}
}
