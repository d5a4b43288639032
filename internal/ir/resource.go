package ir

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Reserved wire keys of a resource record. Everything else lives in Fields.
const (
	keyIRI   = "iri"
	keyTypes = "types"
)

// Resource is one node of the model graph.
//
// Resources are values: every mutation produces a new *Resource through
// With/Without/WithTypes and the receiver is never modified. Callers must
// treat Fields (and the lists inside it) as read-only.
type Resource struct {
	IRI    string
	Types  []string
	Fields Object
}

// NewResource creates a resource with the given types and no fields.
func NewResource(iri string, types ...string) *Resource {
	return &Resource{
		IRI:    iri,
		Types:  slices.Clone(types),
		Fields: Object{},
	}
}

// HasType reports whether the resource carries the given type tag.
func (r *Resource) HasType(t string) bool {
	return r != nil && slices.Contains(r.Types, t)
}

// HasAnyType reports whether the resource carries at least one of the tags.
func (r *Resource) HasAnyType(types ...string) bool {
	for _, t := range types {
		if r.HasType(t) {
			return true
		}
	}
	return false
}

// IsSchema reports whether the resource is a PIM or PSM schema.
func (r *Resource) IsSchema() bool {
	return r.HasAnyType(SchemaTypes...)
}

// Get returns the raw field value.
func (r *Resource) Get(field string) (Value, bool) {
	v, ok := r.Fields[field]
	return v, ok
}

// String returns a string field, or "" if missing or not a string.
func (r *Resource) String(field string) string {
	if s, ok := r.Fields[field].(String); ok {
		return string(s)
	}
	return ""
}

// StringList returns a list-of-strings field. Non-string members are skipped.
// The returned slice is a fresh copy.
func (r *Resource) StringList(field string) []string {
	l, ok := r.Fields[field].(List)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(l))
	for _, v := range l {
		if s, ok := v.(String); ok {
			out = append(out, string(s))
		}
	}
	return out
}

// Int returns an integer field. ok is false when the field is missing, null
// or not an integer literal.
func (r *Resource) Int(field string) (n int64, ok bool) {
	num, isNum := r.Fields[field].(Number)
	if !isNum {
		return 0, false
	}
	n, err := num.Int64()
	return n, err == nil
}

// Bool returns a boolean field, false when missing.
func (r *Resource) Bool(field string) bool {
	b, _ := r.Fields[field].(Bool)
	return bool(b)
}

// Labels returns a language-tagged label field.
func (r *Resource) Labels(field string) LanguageString {
	return LanguageStringFromValue(r.Fields[field])
}

// Clone returns a deep copy.
func (r *Resource) Clone() *Resource {
	if r == nil {
		return nil
	}
	return &Resource{
		IRI:    r.IRI,
		Types:  slices.Clone(r.Types),
		Fields: r.Fields.Clone(),
	}
}

// With returns a copy of the resource with field set to v.
func (r *Resource) With(field string, v Value) *Resource {
	out := r.shallowCopy()
	out.Fields[field] = v
	return out
}

// WithStrings returns a copy with field set to a list of strings.
func (r *Resource) WithStrings(field string, items []string) *Resource {
	return r.With(field, Strings(items...))
}

// Without returns a copy of the resource lacking field.
func (r *Resource) Without(field string) *Resource {
	out := r.shallowCopy()
	delete(out.Fields, field)
	return out
}

// WithTypes returns a copy with the type tags replaced.
func (r *Resource) WithTypes(types ...string) *Resource {
	out := r.shallowCopy()
	out.Types = slices.Clone(types)
	return out
}

func (r *Resource) shallowCopy() *Resource {
	fields := make(Object, len(r.Fields)+1)
	for k, v := range r.Fields {
		fields[k] = v
	}
	return &Resource{
		IRI:    r.IRI,
		Types:  slices.Clone(r.Types),
		Fields: fields,
	}
}

// Validate checks the structural rules of the wire format: a non-empty IRI
// and a non-empty, duplicate-free types list.
func (r *Resource) Validate() error {
	if r.IRI == "" {
		return fmt.Errorf("resource has empty iri")
	}
	if len(r.Types) == 0 {
		return fmt.Errorf("resource %s has no types", r.IRI)
	}
	seen := make(map[string]bool, len(r.Types))
	for _, t := range r.Types {
		if seen[t] {
			return fmt.Errorf("resource %s has duplicate type %s", r.IRI, t)
		}
		seen[t] = true
	}
	for k := range r.Fields {
		if k == keyIRI || k == keyTypes {
			return fmt.Errorf("resource %s uses reserved field %q", r.IRI, k)
		}
	}
	return nil
}

// Equal reports whether two resources are structurally identical, including
// type order.
func (r *Resource) Equal(other *Resource) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.IRI == other.IRI &&
		slices.Equal(r.Types, other.Types) &&
		EqualValues(r.Fields, other.Fields)
}

// ToObject flattens the resource into its wire record.
func (r *Resource) ToObject() Object {
	obj := make(Object, len(r.Fields)+2)
	for k, v := range r.Fields {
		obj[k] = v
	}
	obj[keyIRI] = String(r.IRI)
	obj[keyTypes] = Strings(r.Types...)
	return obj
}

// MarshalJSON writes the canonical wire record.
func (r *Resource) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(r.ToObject())
}

// UnmarshalJSON reads a wire record. Fields other than iri and types are kept
// verbatim in Fields.
func (r *Resource) UnmarshalJSON(data []byte) error {
	var obj Object
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decode resource: %w", err)
	}
	res, err := ResourceFromObject(obj)
	if err != nil {
		return err
	}
	*r = *res
	return nil
}

// ResourceFromObject builds a resource from a decoded wire record.
func ResourceFromObject(obj Object) (*Resource, error) {
	iri, ok := obj[keyIRI].(String)
	if !ok {
		return nil, fmt.Errorf("decode resource: missing iri")
	}
	rawTypes, ok := obj[keyTypes].(List)
	if !ok {
		return nil, fmt.Errorf("decode resource %s: missing types", iri)
	}

	res := &Resource{
		IRI:    string(iri),
		Types:  make([]string, 0, len(rawTypes)),
		Fields: make(Object, len(obj)),
	}
	for _, t := range rawTypes {
		s, ok := t.(String)
		if !ok {
			return nil, fmt.Errorf("decode resource %s: non-string type tag", iri)
		}
		res.Types = append(res.Types, string(s))
	}
	for k, v := range obj {
		if k == keyIRI || k == keyTypes {
			continue
		}
		res.Fields[k] = v
	}
	if err := res.Validate(); err != nil {
		return nil, fmt.Errorf("decode resource: %w", err)
	}
	return res, nil
}
