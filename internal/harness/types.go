package harness

import (
	"github.com/mff-uk/dataspecer-sub018/internal/compiler"
	"github.com/mff-uk/dataspecer-sub018/internal/ir"
	"github.com/mff-uk/dataspecer-sub018/internal/memstore"
)

// TraceEvent records one primitive operation a step applied, or the refusal
// that ended the step.
type TraceEvent struct {
	Step      int      `json:"step"`
	Seq       int64    `json:"seq,omitempty"` // position in the owning store's log
	Kind      string   `json:"kind"`
	Complex   string   `json:"complex,omitempty"` // enclosing complex operation
	Operation string   `json:"operation,omitempty"`
	Created   []string `json:"created,omitempty"`
	Changed   []string `json:"changed,omitempty"`
	Deleted   []string `json:"deleted,omitempty"`
	Failure   string   `json:"failure,omitempty"`
}

func changeEvent(step int, complex string, c *memstore.Change) TraceEvent {
	ev := TraceEvent{
		Step:    step,
		Kind:    c.Operation.Kind().String(),
		Complex: complex,
	}
	if !c.OK() {
		ev.Failure = string(c.Failure.Code)
		return ev
	}
	ev.Seq = c.Seq
	ev.Operation = c.Operation.Header().IRI
	ev.Created = c.Created
	ev.Changed = c.Changed
	ev.Deleted = c.Deleted
	return ev
}

func (ev TraceEvent) toValue() ir.Object {
	obj := ir.Object{
		"step": ir.Int(int64(ev.Step)),
		"kind": ir.String(ev.Kind),
	}
	if ev.Seq != 0 {
		obj["seq"] = ir.Int(ev.Seq)
	}
	if ev.Complex != "" {
		obj["complex"] = ir.String(ev.Complex)
	}
	if ev.Operation != "" {
		obj["operation"] = ir.String(ev.Operation)
	}
	if len(ev.Created) > 0 {
		obj["created"] = ir.Strings(ev.Created...)
	}
	if len(ev.Changed) > 0 {
		obj["changed"] = ir.Strings(ev.Changed...)
	}
	if len(ev.Deleted) > 0 {
		obj["deleted"] = ir.Strings(ev.Deleted...)
	}
	if ev.Failure != "" {
		obj["failure"] = ir.String(ev.Failure)
	}
	return obj
}

// Result is the outcome of running a script or scenario.
type Result struct {
	// Pass is true when every step met its expectation and every
	// assertion held.
	Pass bool `json:"pass"`

	// Trace lists every applied or refused primitive operation in order.
	Trace []TraceEvent `json:"trace"`

	// Bindings are the names bound by the steps that ran.
	Bindings compiler.Bindings `json:"bindings"`

	// Schemas lists the schemas created by the run in creation order.
	Schemas []string `json:"schemas,omitempty"`

	// Errors contains step and assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Trace:    []TraceEvent{},
		Bindings: compiler.Bindings{},
		Errors:   []string{},
	}
}

// AddError adds an error message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
