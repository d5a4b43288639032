// Package executor implements the operation executors and the registry that
// dispatches to them.
//
// An executor is a pure function of (reader, identifier generator,
// operation). It reads the current state through the reader, mints any new
// identifiers through the generator, and describes the outcome as an
// ir.ExecutorResult. Executors never write; the single store installs the
// result.
//
// Expected domain errors (missing resource, wrong type, malformed operation,
// violated precondition) are reported as a failed result, never as a Go
// error. A Go error means the reader itself failed. Dispatching an operation
// to an executor registered for a different kind is a programmer error and
// panics.
package executor
