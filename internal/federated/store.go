package federated

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mff-uk/dataspecer-sub018/internal/executor"
	"github.com/mff-uk/dataspecer-sub018/internal/ir"
	"github.com/mff-uk/dataspecer-sub018/internal/memstore"
)

var (
	// ErrNoStoreForSchema is returned when a mutation names a schema IRI no
	// participating store owns.
	ErrNoStoreForSchema = errors.New("no store owns the schema")

	// ErrSchemaNotFound is returned when the owning schema of a resource
	// cannot be resolved.
	ErrSchemaNotFound = errors.New("owning schema not found")

	// ErrStoreExists is returned when adding a store whose schema is already
	// served by a participating store.
	ErrStoreExists = errors.New("a store for the schema is already registered")
)

// Backend is a store that can participate in a federation.
type Backend interface {
	executor.Reader
	SchemaIRI() string
	Export() (*memstore.Envelope, error)
}

// WritableBackend is a Backend that accepts operations.
type WritableBackend interface {
	Backend
	ApplyOperation(ctx context.Context, op ir.Operation) (*memstore.Change, error)
}

// Store aggregates backends and dispatches change notifications.
//
// Thread-safety: Store is safe for concurrent use. Mutations routed through
// the federation are serialized so that notifications follow application
// order.
type Store struct {
	applyMu sync.Mutex // serializes mutations and their notification enqueue

	mu       sync.RWMutex
	backends []Backend
	entries  map[string]*entry
	nextID   SubscriberID

	queue    *dispatchQueue
	draining atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics *Metrics
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithMetrics registers federation metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(s *Store) { s.metrics = NewMetrics(reg) }
}

// New creates a federation with no backends. Call Close to stop pending
// subscription resolutions.
func New(opts ...Option) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		entries: make(map[string]*entry),
		queue:   newDispatchQueue(),
		ctx:     ctx,
		cancel:  cancel,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close cancels pending resolutions, waits for them and drops undelivered
// notifications.
func (s *Store) Close() {
	s.cancel()
	s.wg.Wait()
	s.queue.Close()
}

// Stores returns the backends in registration order.
func (s *Store) Stores() []Backend {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.backends)
}

// StoreForSchema returns the backend whose schema is schemaIRI.
func (s *Store) StoreForSchema(schemaIRI string) (Backend, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.backends {
		if b.SchemaIRI() == schemaIRI {
			return b, true
		}
	}
	return nil, false
}

// ReadResource returns the first non-nil value any backend holds for iri,
// trying backends in registration order.
func (s *Store) ReadResource(ctx context.Context, iri string) (*ir.Resource, error) {
	for _, b := range s.Stores() {
		res, err := b.ReadResource(ctx, iri)
		if err != nil {
			return nil, fmt.Errorf("read %s from %s: %w", iri, b.SchemaIRI(), err)
		}
		if res != nil {
			return res, nil
		}
	}
	return nil, nil
}

// ListResources returns the sorted union of every backend's IRIs.
func (s *Store) ListResources(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	for _, b := range s.Stores() {
		iris, err := b.ListResources(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", b.SchemaIRI(), err)
		}
		for _, iri := range iris {
			seen[iri] = true
		}
	}
	return slices.Sorted(maps.Keys(seen)), nil
}

// GetSchemaForResource returns the schema IRI of the first backend holding
// iri, or "" when no backend knows it.
func (s *Store) GetSchemaForResource(ctx context.Context, iri string) (string, error) {
	for _, b := range s.Stores() {
		res, err := b.ReadResource(ctx, iri)
		if err != nil {
			return "", fmt.Errorf("resolve schema of %s: %w", iri, err)
		}
		if res != nil {
			return b.SchemaIRI(), nil
		}
	}
	return "", nil
}

// ApplyOperation forwards op to the backend owning schemaIRI and notifies
// subscribers of every IRI the change touches.
//
// Returns ErrNoStoreForSchema if no backend owns schemaIRI and
// memstore.ErrReadOnly if the owning backend accepts no operations. Executor
// failures are reported in Change.Failure unchanged.
//
// A backend may return a change together with an error, as a write-through
// store does when the change is applied but cannot be persisted. Such a change
// is still published, and both are returned.
func (s *Store) ApplyOperation(ctx context.Context, schemaIRI string, op ir.Operation) (*memstore.Change, error) {
	b, ok := s.StoreForSchema(schemaIRI)
	if !ok {
		return nil, fmt.Errorf("apply %s: %w: %s", op.Kind(), ErrNoStoreForSchema, schemaIRI)
	}
	w, ok := b.(WritableBackend)
	if !ok {
		return nil, fmt.Errorf("apply %s to %s: %w", op.Kind(), schemaIRI, memstore.ErrReadOnly)
	}

	s.applyMu.Lock()
	change, err := w.ApplyOperation(ctx, op)
	if change == nil {
		s.applyMu.Unlock()
		return nil, err
	}
	s.metrics.observe(change)
	if change.OK() {
		s.publish(ctx, change.Touched(), change.Resources)
	}
	s.applyMu.Unlock()

	s.drain()
	return change, err
}

// ApplyToResource resolves the schema owning iri and applies op to it.
func (s *Store) ApplyToResource(ctx context.Context, iri string, op ir.Operation) (*memstore.Change, error) {
	schema, err := s.GetSchemaForResource(ctx, iri)
	if err != nil {
		return nil, err
	}
	if schema == "" {
		return nil, fmt.Errorf("apply %s: %w: %s", op.Kind(), ErrSchemaNotFound, iri)
	}
	return s.ApplyOperation(ctx, schema, op)
}

// AddStore registers b after the existing backends. Subscribers of every IRI
// b holds are notified as if those resources had just been created.
func (s *Store) AddStore(ctx context.Context, b Backend) error {
	schema := b.SchemaIRI()
	if schema == "" {
		return fmt.Errorf("add store: backend has no schema")
	}
	iris, err := b.ListResources(ctx)
	if err != nil {
		return fmt.Errorf("add store %s: %w", schema, err)
	}

	s.applyMu.Lock()
	s.mu.Lock()
	for _, other := range s.backends {
		if other.SchemaIRI() == schema {
			s.mu.Unlock()
			s.applyMu.Unlock()
			return fmt.Errorf("add store %s: %w", schema, ErrStoreExists)
		}
	}
	s.backends = append(s.backends, b)
	s.mu.Unlock()
	s.publish(ctx, iris, nil)
	s.applyMu.Unlock()

	s.logger.Info("store added", "schema", schema, "resources", len(iris))
	s.drain()
	return nil
}

// RemoveStore unregisters the backend owning schemaIRI. Subscribers of every
// IRI it held are notified with the value now resolved, normally NotFound.
func (s *Store) RemoveStore(ctx context.Context, schemaIRI string) error {
	s.applyMu.Lock()
	s.mu.Lock()
	idx := slices.IndexFunc(s.backends, func(b Backend) bool { return b.SchemaIRI() == schemaIRI })
	if idx < 0 {
		s.mu.Unlock()
		s.applyMu.Unlock()
		return fmt.Errorf("remove store: %w: %s", ErrNoStoreForSchema, schemaIRI)
	}
	removed := s.backends[idx]
	s.backends = slices.Delete(s.backends, idx, idx+1)
	s.mu.Unlock()

	iris, err := removed.ListResources(ctx)
	if err != nil {
		s.logger.Error("list removed store", "schema", schemaIRI, "error", err)
	}
	s.publish(ctx, iris, nil)
	s.applyMu.Unlock()

	s.logger.Info("store removed", "schema", schemaIRI, "resources", len(iris))
	s.drain()
	return nil
}

// Snapshot bundles the envelope of every backend in registration order.
func (s *Store) Snapshot() (*memstore.Bundle, error) {
	backends := s.Stores()
	bundle := &memstore.Bundle{Stores: make([]*memstore.Envelope, 0, len(backends))}
	for _, b := range backends {
		env, err := b.Export()
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", b.SchemaIRI(), err)
		}
		bundle.Stores = append(bundle.Stores, env)
	}
	return bundle, nil
}

// Restore installs every envelope of bundle into a new MemoryStore and adds
// it to the federation.
func (s *Store) Restore(ctx context.Context, bundle *memstore.Bundle, opts ...memstore.Option) error {
	for _, env := range bundle.Stores {
		ms, err := memstore.FromEnvelope(env, opts...)
		if err != nil {
			return fmt.Errorf("restore: %w", err)
		}
		if err := s.AddStore(ctx, ms); err != nil {
			return fmt.Errorf("restore: %w", err)
		}
	}
	return nil
}
