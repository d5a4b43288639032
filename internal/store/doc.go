// Package store provides SQLite-backed durable storage for single stores.
//
// Each persisted store is one row in schemas plus its operation log and the
// current value of every resource:
//   - operations: the stamped log, ordered by seq
//   - resources: canonical JSON bodies with content digests
//
// Envelopes can be saved and loaded whole, and Synced writes every applied
// change through to the database in one transaction.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Deleting a schema row cascades to its log and resources
//
// All reads order deterministically: operations by seq, resources by IRI
// with binary collation.
package store
