package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mff-uk/dataspecer-sub018/internal/ir"
)

// Reader is the read-only view of a store that executors work against.
// ReadResource returns (nil, nil) for an unknown IRI.
type Reader interface {
	ReadResource(ctx context.Context, iri string) (*ir.Resource, error)
	ListResources(ctx context.Context) ([]string, error)
}

// SchemaLocator is optionally implemented by readers that know the IRI of
// their schema resource. Without it executors scan ListResources.
type SchemaLocator interface {
	SchemaIRI() string
}

// IdentifierGenerator mints fresh IRIs for a kind segment such as
// ir.KindSegmentClass. Returned IRIs never collide within the store.
type IdentifierGenerator interface {
	NewIRI(kind string) string
}

// Executor applies one operation kind.
type Executor func(ctx context.Context, r Reader, gen IdentifierGenerator, op ir.Operation) (*ir.ExecutorResult, error)

// Registry maps operation kinds to executors.
//
// Thread-safety: Registry is safe for concurrent use. Registration normally
// happens once at startup.
type Registry struct {
	mu        sync.RWMutex
	executors map[ir.OperationKind]Executor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[ir.OperationKind]Executor)}
}

// Default returns a registry holding an executor for every built-in kind.
func Default() *Registry {
	r := NewRegistry()
	registerPim(r)
	registerPsm(r)
	return r
}

// Register binds exec to kind. Registering a kind twice is an error.
func (r *Registry) Register(kind ir.OperationKind, exec Executor) error {
	if exec == nil {
		return fmt.Errorf("register %s: nil executor", kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.executors[kind]; exists {
		return fmt.Errorf("register %s: executor already registered", kind)
	}
	r.executors[kind] = exec
	return nil
}

func (r *Registry) mustRegister(kind ir.OperationKind, exec Executor) {
	if err := r.Register(kind, exec); err != nil {
		panic(err)
	}
}

// Lookup returns the executor for kind.
func (r *Registry) Lookup(kind ir.OperationKind) (Executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exec, ok := r.executors[kind]
	return exec, ok
}

// Missing returns the kinds in ks that have no executor.
func (r *Registry) Missing(ks []ir.OperationKind) []ir.OperationKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var missing []ir.OperationKind
	for _, k := range ks {
		if _, ok := r.executors[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}

// Execute dispatches op to its executor. An operation with no registered
// executor is a programmer error and panics.
func (r *Registry) Execute(ctx context.Context, reader Reader, gen IdentifierGenerator, op ir.Operation) (*ir.ExecutorResult, error) {
	exec, ok := r.Lookup(op.Kind())
	if !ok {
		panic(fmt.Sprintf("executor: no executor registered for %s", op.Kind()))
	}
	return exec(ctx, reader, gen, op)
}

// typed adapts a kind-specific function into an Executor. Failures returned
// as errors by fn become failed results; other errors pass through.
func typed[T ir.Operation](fn func(ctx context.Context, x *execContext, op T) (*ir.ExecutorResult, error)) Executor {
	return func(ctx context.Context, r Reader, gen IdentifierGenerator, op ir.Operation) (*ir.ExecutorResult, error) {
		concrete, ok := op.(T)
		if !ok {
			var want T
			panic(fmt.Sprintf("executor: expected %T, got %T", want, op))
		}
		res, err := fn(ctx, &execContext{reader: r, gen: gen}, concrete)
		var f *ir.Failure
		if errors.As(err, &f) {
			return ir.Failed(f), nil
		}
		if err != nil {
			return nil, err
		}
		return res, nil
	}
}
