package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/mff-uk/dataspecer-sub018/internal/federated"
	"github.com/mff-uk/dataspecer-sub018/internal/memstore"
	"github.com/mff-uk/dataspecer-sub018/internal/store"
)

// Harness holds the stores of one scenario run.
type Harness struct {
	db     *store.Store
	fed    *federated.Store
	logger *slog.Logger
}

// newStore creates a write-through store with counter identifiers, so
// traces are deterministic.
func (h *Harness) newStore(context.Context) (federated.WritableBackend, error) {
	ms := memstore.New(
		memstore.WithGenerator(memstore.NewCounterGenerator),
		memstore.WithLogger(h.logger),
	)
	return store.NewSynced(h.db, ms), nil
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database and an empty federation
// 2. Execute the steps; a step that misses its expectation ends the run
// 3. Evaluate assertions against the federation
// 4. Check that every store's persisted envelope matches memory
func Run(scenario *Scenario) (*Result, error) {
	db, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer db.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &Harness{
		db:     db,
		fed:    federated.New(federated.WithLogger(logger)),
		logger: logger,
	}
	defer h.fed.Close()

	ctx := context.Background()
	result := NewResult()

	runner := NewRunner(h.fed, h.newStore, logger)
	if err := runner.Execute(ctx, scenario.Script(), result); err != nil {
		if _, ok := err.(*StepError); !ok {
			return nil, fmt.Errorf("failed to execute steps: %w", err)
		}
		result.AddError(err.Error())
		return result, nil
	}

	actx := &AssertionContext{
		Store:    h.fed,
		Bindings: result.Bindings,
		Ctx:      ctx,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	if err := h.checkPersisted(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// checkPersisted compares the digest of every participating store with the
// digest of its envelope as loaded back from the database.
func (h *Harness) checkPersisted(ctx context.Context, result *Result) error {
	for _, b := range h.fed.Stores() {
		mem, err := b.Export()
		if err != nil {
			return fmt.Errorf("export %s: %w", b.SchemaIRI(), err)
		}
		persisted, err := h.db.LoadEnvelope(ctx, b.SchemaIRI())
		if err != nil {
			return fmt.Errorf("load %s: %w", b.SchemaIRI(), err)
		}

		want, err := mem.Digest()
		if err != nil {
			return err
		}
		got, err := persisted.Digest()
		if err != nil {
			return err
		}
		if want != got {
			result.AddError(fmt.Sprintf("persisted envelope of %s differs from memory", b.SchemaIRI()))
		}
	}
	return nil
}
