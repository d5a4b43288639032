// Package harness runs operation scripts against a federation and provides
// a conformance testing framework on top of them.
//
// The Runner executes compiled scripts (package compiler). Schema-creating
// steps obtain a fresh store from a StoreFactory; every other step is routed
// through the federation, so subscribers and metrics see script changes the
// same way they see any other change. The CLI `apply` command is a Runner
// over the workspace database.
//
// Scenarios add assertions and golden traces:
//
//	name: unwrap_or
//	description: deleting all but one branch unwraps the Or
//	steps:
//	  - op: psm-create-schema
//	    args: {dataPsmBaseIri: "https://example.com/s"}
//	  - ...
//	assertions:
//	  - type: absent
//	    iri: $or
//
// Each scenario runs against write-through stores in a fresh in-memory
// SQLite database with counter identifiers, so traces are reproducible and
// the persisted state is checked against memory after every run.
package harness
