package memstore

import (
	"slices"

	"github.com/mff-uk/dataspecer-sub018/internal/ir"
)

// Change describes the outcome of one ApplyOperation call.
//
// On success Operation is the stamped operation as logged, Seq its position
// in the log, and Created/Changed/Deleted the sorted IRIs it touched with the
// new resource values in Resources. On failure only Operation (unstamped) and
// Failure are set and the store is unchanged.
type Change struct {
	Operation ir.Operation
	Seq       int64
	Created   []string
	Changed   []string
	Deleted   []string
	Resources map[string]*ir.Resource
	Result    ir.OperationResult
	Failure   *ir.Failure
}

// OK reports whether the operation was applied.
func (c *Change) OK() bool { return c.Failure == nil }

// Touched returns every IRI the change affects, sorted and unique.
func (c *Change) Touched() []string {
	all := make([]string, 0, len(c.Created)+len(c.Changed)+len(c.Deleted))
	all = append(all, c.Created...)
	all = append(all, c.Changed...)
	all = append(all, c.Deleted...)
	slices.Sort(all)
	return slices.Compact(all)
}
