// Package queryir is the query representation used to find resources across
// stored schemas.
//
// A Query is a filter over resources plus an optional limit. Filters are
// built from a small sealed set of predicates:
//
//	Equals    field = value (string, integer, bool, or null for unset)
//	Contains  a list field holds a string
//	HasType   the resource carries a type tag
//	InSchema  the resource belongs to a schema
//	And       every predicate holds
//
// Two backends evaluate the same query: package querysql compiles it to
// parameterized SQLite over the persisted resources, and Match evaluates it
// against resources in memory, which is how read-only remote stores are
// searched. Both backends must agree on every query that passes Validate.
//
// Predicate is a sealed interface so backends can switch over it
// exhaustively:
//
//	switch p := pred.(type) {
//	case Equals:
//	case Contains:
//	case HasType:
//	case InSchema:
//	case And:
//	}
package queryir
