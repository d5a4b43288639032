package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mff-uk/dataspecer-sub018/internal/compiler"
	"github.com/mff-uk/dataspecer-sub018/internal/complexop"
	"github.com/mff-uk/dataspecer-sub018/internal/federated"
	"github.com/mff-uk/dataspecer-sub018/internal/ir"
)

// ErrNoTargetSchema is returned when a step names no schema and no earlier
// step established one.
var ErrNoTargetSchema = errors.New("no target schema")

// StoreFactory creates an empty writable store for a schema-creating step.
type StoreFactory func(ctx context.Context) (federated.WritableBackend, error)

// StepError reports a step whose outcome did not match its expectation.
type StepError struct {
	Step     int
	Name     string
	Expected ir.FailureCode // "" means success was expected
	Failure  *ir.Failure    // nil means the step succeeded
}

// Error implements the error interface.
func (e *StepError) Error() string {
	switch {
	case e.Failure == nil:
		return fmt.Sprintf("steps[%d] %s: expected %s, but it succeeded", e.Step, e.Name, e.Expected)
	case e.Expected == "":
		return fmt.Sprintf("steps[%d] %s: %v", e.Step, e.Name, e.Failure)
	default:
		return fmt.Sprintf("steps[%d] %s: expected %s, got %v", e.Step, e.Name, e.Expected, e.Failure)
	}
}

// Runner executes compiled scripts against a federation.
//
// A schema-creating step gets a fresh store from the factory; the store
// joins the federation once the schema exists. Other steps go to the schema
// they name, or to the schema the previous step used.
type Runner struct {
	fed      *federated.Store
	newStore StoreFactory
	logger   *slog.Logger
}

// NewRunner creates a runner. logger may be nil.
func NewRunner(fed *federated.Store, newStore StoreFactory, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{fed: fed, newStore: newStore, logger: logger}
}

// Execute runs every step in order into res. It stops at the first step
// whose outcome does not match its expectation and returns a *StepError;
// res then holds the trace up to and including that step. Other errors are
// infrastructure failures.
func (r *Runner) Execute(ctx context.Context, script *compiler.Script, res *Result) error {
	current := ""
	for i := range script.Steps {
		step := &script.Steps[i]
		var (
			failure *ir.Failure
			err     error
		)
		if step.Complex != "" {
			failure, err = r.complexStep(ctx, step, res)
		} else {
			failure, err = r.primitiveStep(ctx, step, &current, res)
		}
		if err != nil {
			return fmt.Errorf("steps[%d] %s: %w", i, step.Name(), err)
		}

		r.logger.Debug("step executed",
			"step", i,
			"name", step.Name(),
			"ok", failure == nil)

		if failure == nil && step.Expect == "" {
			continue
		}
		if failure != nil && failure.Code == step.Expect {
			continue
		}
		return &StepError{Step: i, Name: step.Name(), Expected: step.Expect, Failure: failure}
	}
	return nil
}

func (r *Runner) primitiveStep(ctx context.Context, step *compiler.Step, current *string, res *Result) (*ir.Failure, error) {
	op, err := step.Operation(res.Bindings)
	if err != nil {
		return nil, err
	}

	if step.CreatesSchema() {
		b, err := r.newStore(ctx)
		if err != nil {
			return nil, fmt.Errorf("create store: %w", err)
		}
		change, err := b.ApplyOperation(ctx, op)
		if err != nil {
			return nil, err
		}
		res.Trace = append(res.Trace, changeEvent(step.Index, "", change))
		if !change.OK() {
			return change.Failure, nil
		}
		if err := r.fed.AddStore(ctx, b); err != nil {
			return nil, err
		}
		*current = b.SchemaIRI()
		res.Schemas = append(res.Schemas, *current)
		res.Bindings.Record(step, change.Result)
		return nil, nil
	}

	schema, err := step.SchemaIRI(res.Bindings)
	if err != nil {
		return nil, err
	}
	if schema == "" {
		schema = *current
	}
	if schema == "" {
		return nil, ErrNoTargetSchema
	}

	change, err := r.fed.ApplyOperation(ctx, schema, op)
	if err != nil {
		return nil, err
	}
	*current = schema
	res.Trace = append(res.Trace, changeEvent(step.Index, "", change))
	if !change.OK() {
		return change.Failure, nil
	}
	res.Bindings.Record(step, change.Result)
	return nil, nil
}

func (r *Runner) complexStep(ctx context.Context, step *compiler.Step, res *Result) (*ir.Failure, error) {
	args, err := step.ComplexArgs(res.Bindings)
	if err != nil {
		return nil, err
	}

	var op complexop.Operation
	switch step.Complex {
	case compiler.ComplexDeleteChoiceBranch:
		op = complexop.NewDeleteChoiceBranch(args["or"], args["choice"])
	case compiler.ComplexDeletePimClassCascade:
		op = complexop.NewDeletePimClassCascade(args["class"])
	default:
		panic(fmt.Sprintf("harness: unhandled complex operation %q", step.Complex))
	}
	op.Bind(r.fed)

	out, err := op.Execute(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range out.Changes {
		res.Trace = append(res.Trace, changeEvent(step.Index, string(step.Complex), c))
	}
	if !out.OK() {
		res.Trace = append(res.Trace, TraceEvent{
			Step:    step.Index,
			Kind:    string(step.Complex),
			Failure: string(out.Failure.Code),
		})
		return out.Failure, nil
	}
	return nil, nil
}
