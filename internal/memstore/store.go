package memstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/mff-uk/dataspecer-sub018/internal/executor"
	"github.com/mff-uk/dataspecer-sub018/internal/ir"
)

var (
	// ErrFirstOperationNotSchema is returned when the first operation applied
	// to a store does not create its schema or names no base IRI.
	ErrFirstOperationNotSchema = errors.New("first operation must create the schema")

	// ErrReadOnly is returned when a mutation is addressed to a read-only store.
	ErrReadOnly = errors.New("store is read-only")

	// ErrNotEmpty is returned when importing into a store that already holds data.
	ErrNotEmpty = errors.New("store is not empty")
)

// slot holds the current value of one resource and its version. Installing
// a new value replaces res and bumps version; res itself is never modified.
type slot struct {
	res     *ir.Resource
	version int64
}

// MemoryStore holds one schema's resources and operation log.
//
// Thread-safety: MemoryStore is safe for concurrent use. Mutations are
// serialized; reads may interleave with a running mutation and see the state
// before it.
type MemoryStore struct {
	applyMu sync.Mutex // serializes ApplyOperation and Import

	mu        sync.RWMutex
	baseIRI   string
	schemaIRI string
	slots     map[string]*slot
	log       ir.OperationList
	opIRIs    map[string]bool
	clock     *Clock

	gen      executor.IdentifierGenerator
	newGen   GeneratorFactory
	registry *executor.Registry
	logger   *slog.Logger
}

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithRegistry sets the executor registry. Default: executor.Default().
func WithRegistry(r *executor.Registry) Option {
	return func(s *MemoryStore) { s.registry = r }
}

// WithGenerator sets the identifier scheme. Default: NewCounterGenerator.
func WithGenerator(f GeneratorFactory) Option {
	return func(s *MemoryStore) { s.newGen = f }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *MemoryStore) { s.logger = l }
}

// New creates an empty store. Its first operation must create the schema.
func New(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		slots:  make(map[string]*slot),
		opIRIs: make(map[string]bool),
		clock:  NewClock(),
		newGen: NewCounterGenerator,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = executor.Default()
	}
	return s
}

// BaseIRI returns the namespace identifiers are minted under, "" before the
// schema exists.
func (s *MemoryStore) BaseIRI() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.baseIRI
}

// SchemaIRI returns the IRI of the schema resource, "" before it exists.
func (s *MemoryStore) SchemaIRI() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schemaIRI
}

// ReadResource returns the current value of iri, or nil if unknown. The
// returned resource is shared and must not be modified.
func (s *MemoryStore) ReadResource(_ context.Context, iri string) (*ir.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sl, ok := s.slots[iri]; ok {
		return sl.res, nil
	}
	return nil, nil
}

// ListResources returns every resource IRI in sorted order.
func (s *MemoryStore) ListResources(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.slots)), nil
}

// Version returns the version of the slot holding iri. Versions start at 1
// when a resource is created and grow by one per change.
func (s *MemoryStore) Version(iri string) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, ok := s.slots[iri]
	if !ok {
		return 0, false
	}
	return sl.version, true
}

// Operations returns a copy of the operation log.
func (s *MemoryStore) Operations() ir.OperationList {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.log)
}

// Len returns the number of resources, schema included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots)
}

// taken reports whether iri names a resource or a logged operation. It is
// called by the generator while applyMu is held.
func (s *MemoryStore) taken(iri string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, isResource := s.slots[iri]
	return isResource || s.opIRIs[iri]
}

// ApplyOperation executes op and installs its result.
//
// The first operation must implement ir.SchemaCreator with a non-empty base
// IRI; otherwise ErrFirstOperationNotSchema is returned and nothing changes.
// Domain failures are reported in Change.Failure with a nil error. A non-nil
// error means the operation could not be encoded or the reader failed.
//
// op is not modified; the logged operation is a stamped copy.
func (s *MemoryStore) ApplyOperation(ctx context.Context, op ir.Operation) (*Change, error) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	first := s.SchemaIRI() == ""
	gen := s.gen
	if first {
		creator, ok := op.(ir.SchemaCreator)
		if !ok {
			return nil, fmt.Errorf("%w: got %s", ErrFirstOperationNotSchema, op.Kind())
		}
		if creator.BaseIRI() == "" {
			return nil, fmt.Errorf("%w: %s names no base iri", ErrFirstOperationNotSchema, op.Kind())
		}
		gen = s.newGen(creator.BaseIRI(), s.taken)
	}

	logged, err := ir.CloneOperation(op)
	if err != nil {
		return nil, fmt.Errorf("apply %s: %w", op.Kind(), err)
	}
	logged.Header().IRI = ""

	rewind := checkpoint(gen)
	res, err := s.registry.Execute(ctx, s, gen, logged)
	if err != nil {
		rewind()
		return nil, fmt.Errorf("apply %s: %w", op.Kind(), err)
	}
	if !res.OK() {
		rewind()
		s.logger.Info("operation refused",
			"kind", op.Kind().String(),
			"code", string(res.Failure.Code),
			"iri", res.Failure.IRI,
			"message", res.Failure.Message)
		return &Change{Operation: logged, Failure: res.Failure}, nil
	}

	s.checkResult(logged.Kind(), res)
	logged.Header().IRI = gen.NewIRI(ir.KindSegmentOperation)

	change := &Change{
		Operation: logged,
		Created:   res.CreatedIRIs(),
		Changed:   res.ChangedIRIs(),
		Deleted:   res.DeletedIRIs(),
		Resources: make(map[string]*ir.Resource, len(res.Created)+len(res.Changed)),
		Result:    res.Result,
	}

	s.mu.Lock()
	for iri, r := range res.Created {
		s.slots[iri] = &slot{res: r, version: 1}
		change.Resources[iri] = r
		if r.IsSchema() {
			s.schemaIRI = iri
		}
	}
	for iri, r := range res.Changed {
		sl := s.slots[iri]
		s.slots[iri] = &slot{res: r, version: sl.version + 1}
		change.Resources[iri] = r
	}
	for _, iri := range res.Deleted {
		delete(s.slots, iri)
	}
	if first {
		s.baseIRI = op.(ir.SchemaCreator).BaseIRI()
		s.gen = gen
	}
	change.Seq = s.clock.Next()
	s.log = append(s.log, logged)
	s.opIRIs[logged.Header().IRI] = true
	schemaIRI := s.schemaIRI
	s.mu.Unlock()

	s.logger.Debug("operation applied",
		"kind", logged.Kind().String(),
		"iri", logged.Header().IRI,
		"schema", schemaIRI,
		"seq", change.Seq)
	return change, nil
}

// checkResult panics when an executor returns a result that cannot be
// installed. Such a result is a bug in the executor, not a domain failure.
func (s *MemoryStore) checkResult(kind ir.OperationKind, res *ir.ExecutorResult) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fail := func(format string, args ...any) {
		panic(fmt.Sprintf("memstore: executor for %s: %s", kind, fmt.Sprintf(format, args...)))
	}
	for iri, r := range res.Created {
		if _, exists := s.slots[iri]; exists {
			fail("created %s already exists", iri)
		}
		if r == nil || r.IRI != iri {
			fail("created entry %s holds a different resource", iri)
		}
		if err := r.Validate(); err != nil {
			fail("%v", err)
		}
		if r.IsSchema() && s.schemaIRI != "" {
			fail("second schema %s", iri)
		}
	}
	for iri, r := range res.Changed {
		if _, exists := s.slots[iri]; !exists {
			fail("changed %s did not exist", iri)
		}
		if r == nil || r.IRI != iri {
			fail("changed entry %s holds a different resource", iri)
		}
		if err := r.Validate(); err != nil {
			fail("%v", err)
		}
	}
	for _, iri := range res.Deleted {
		if _, exists := s.slots[iri]; !exists {
			fail("deleted %s did not exist", iri)
		}
		if _, created := res.Created[iri]; created {
			fail("%s is both created and deleted", iri)
		}
		if _, changed := res.Changed[iri]; changed {
			fail("%s is both changed and deleted", iri)
		}
		if iri == s.schemaIRI {
			fail("schema %s deleted", iri)
		}
	}
}

// Export returns the envelope of the store. Resources are shared with the
// store and must not be modified.
func (s *MemoryStore) Export() (*Envelope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.schemaIRI == "" {
		return nil, fmt.Errorf("export: store has no schema")
	}
	env := &Envelope{
		BaseIRI:    s.baseIRI,
		Operations: slices.Clone(s.log),
		Resources:  make(map[string]*ir.Resource, len(s.slots)),
	}
	for iri, sl := range s.slots {
		env.Resources[iri] = sl.res
	}
	return env, nil
}

// Import installs an exported envelope into an empty store. Resources and the
// log are installed directly; no operation is executed.
func (s *MemoryStore) Import(env *Envelope) error {
	if err := env.Validate(); err != nil {
		return fmt.Errorf("import: %w", err)
	}

	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.slots) != 0 || len(s.log) != 0 {
		return fmt.Errorf("import: %w", ErrNotEmpty)
	}

	for iri, r := range env.Resources {
		s.slots[iri] = &slot{res: r, version: 1}
	}
	for _, op := range env.Operations {
		s.opIRIs[op.Header().IRI] = true
	}
	s.log = slices.Clone(env.Operations)
	s.baseIRI = env.BaseIRI
	s.schemaIRI = env.SchemaIRI()
	s.clock = NewClockAt(int64(len(env.Operations)))
	s.gen = s.newGen(env.BaseIRI, s.taken)
	if cg, ok := s.gen.(*CounterGenerator); ok {
		// Continue the sequence a replay of the log would produce.
		for iri := range env.Resources {
			cg.resumeAfter(iri)
		}
		for _, op := range env.Operations {
			cg.resumeAfter(op.Header().IRI)
		}
	}

	s.logger.Debug("store imported",
		"schema", s.schemaIRI,
		"resources", len(env.Resources),
		"operations", len(env.Operations))
	return nil
}

// FromEnvelope creates a store holding the envelope's contents.
func FromEnvelope(env *Envelope, opts ...Option) (*MemoryStore, error) {
	s := New(opts...)
	if err := s.Import(env); err != nil {
		return nil, err
	}
	return s, nil
}
