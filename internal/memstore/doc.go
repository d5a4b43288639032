// Package memstore implements the single-schema stores.
//
// A MemoryStore holds the resources of one PIM or PSM schema and the log of
// operations applied to it. Mutations go through ApplyOperation, which runs
// the registered executor, validates its result and installs it. The very
// first operation must create the schema; it also fixes the base IRI that
// identifiers are minted under.
//
// Resources live in an arena of slots keyed by IRI. Each install replaces the
// slot's value wholesale and bumps its version, so readers always see a
// complete resource.
//
// A ReadOnlyMemoryStore wraps an exported snapshot and only answers reads.
package memstore
