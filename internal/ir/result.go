package ir

import (
	"maps"
	"slices"
)

// OperationResult is the kind-specific payload of a successful operation,
// typically the identifiers it minted.
type OperationResult interface {
	operationResult()
}

// CreatedResult reports the IRI of a newly created resource.
type CreatedResult struct {
	IRI string `json:"iri"`
}

func (CreatedResult) operationResult() {}

// CreatedAssociationResult reports an association and its two ends.
type CreatedAssociationResult struct {
	AssociationIRI string    `json:"associationIri"`
	EndIRIs        [2]string `json:"endIris"`
}

func (CreatedAssociationResult) operationResult() {}

// ExecutorResult is what an executor hands back to the store: the new
// versions of every touched resource, or a failure.
//
// Executors never write. The store installs Created and Changed, removes
// Deleted, and records the operation only when Failure is nil.
type ExecutorResult struct {
	Created map[string]*Resource
	Changed map[string]*Resource
	Deleted []string
	Result  OperationResult
	Failure *Failure
}

// NewExecutorResult returns an empty successful result.
func NewExecutorResult() *ExecutorResult {
	return &ExecutorResult{
		Created: map[string]*Resource{},
		Changed: map[string]*Resource{},
	}
}

// Failed wraps a failure into a result.
func Failed(f *Failure) *ExecutorResult {
	return &ExecutorResult{Failure: f}
}

// Create records a new resource.
func (r *ExecutorResult) Create(res *Resource) *ExecutorResult {
	r.Created[res.IRI] = res
	return r
}

// Change records a new version of an existing resource.
func (r *ExecutorResult) Change(res *Resource) *ExecutorResult {
	r.Changed[res.IRI] = res
	return r
}

// Delete records a removal.
func (r *ExecutorResult) Delete(iri string) *ExecutorResult {
	if !slices.Contains(r.Deleted, iri) {
		r.Deleted = append(r.Deleted, iri)
	}
	return r
}

// WithResult sets the payload.
func (r *ExecutorResult) WithResult(res OperationResult) *ExecutorResult {
	r.Result = res
	return r
}

// OK reports whether the operation succeeded.
func (r *ExecutorResult) OK() bool { return r.Failure == nil }

// CreatedIRIs returns the created IRIs in sorted order.
func (r *ExecutorResult) CreatedIRIs() []string {
	return slices.Sorted(maps.Keys(r.Created))
}

// ChangedIRIs returns the changed IRIs in sorted order.
func (r *ExecutorResult) ChangedIRIs() []string {
	return slices.Sorted(maps.Keys(r.Changed))
}

// DeletedIRIs returns the deleted IRIs in sorted order.
func (r *ExecutorResult) DeletedIRIs() []string {
	return slices.Sorted(slices.Values(r.Deleted))
}

// Touched returns every IRI the result affects, sorted and unique.
func (r *ExecutorResult) Touched() []string {
	all := make([]string, 0, len(r.Created)+len(r.Changed)+len(r.Deleted))
	all = append(all, r.CreatedIRIs()...)
	all = append(all, r.ChangedIRIs()...)
	all = append(all, r.Deleted...)
	slices.Sort(all)
	return slices.Compact(all)
}
