package complexop

import (
	"context"
	"fmt"
	"slices"

	"github.com/mff-uk/dataspecer-sub018/internal/ir"
)

// DeleteChoiceBranch removes one class from the choices of a PSM Or together
// with every other choice whose includes lead back to a removed class.
//
// Steps, in order:
//  1. one PsmUnsetChoice per removed choice, in the Or's choice order;
//  2. a PsmUnwrapOr when exactly one choice remains afterwards.
type DeleteChoiceBranch struct {
	binding

	Or     string
	Choice string
}

// NewDeleteChoiceBranch returns an unbound operation.
func NewDeleteChoiceBranch(or, choice string) *DeleteChoiceBranch {
	return &DeleteChoiceBranch{Or: or, Choice: choice}
}

// Execute implements Operation.
func (d *DeleteChoiceBranch) Execute(ctx context.Context) (*Outcome, error) {
	store := d.bound()

	or, schema, fail, err := d.locate(ctx, d.Or, ir.TypePsmOr)
	if err != nil {
		return nil, fmt.Errorf("delete choice branch: %w", err)
	}
	if fail != nil {
		return failed(fail), nil
	}
	choices := or.StringList(ir.FieldPsmChoices)
	if !slices.Contains(choices, d.Choice) {
		return failed(ir.NewPreconditionFailed(d.Choice, "not a choice of %s", d.Or)), nil
	}

	g := includeGraph{reader: store, edges: map[string][]string{}}
	removed := map[string]bool{d.Choice: true}
	for grown := true; grown; {
		grown = false
		for _, c := range choices {
			if removed[c] {
				continue
			}
			hit, err := g.reaches(ctx, c, removed)
			if err != nil {
				return nil, fmt.Errorf("delete choice branch: %w", err)
			}
			if hit {
				removed[c] = true
				grown = true
			}
		}
	}

	out := &Outcome{}
	for _, c := range choices {
		if !removed[c] {
			continue
		}
		ok, err := d.apply(ctx, out, schema, &ir.PsmUnsetChoice{DataPsmOr: d.Or, DataPsmChoice: c})
		if err != nil || !ok {
			return out, err
		}
	}

	if len(removed)+1 == len(choices) {
		if _, err := d.apply(ctx, out, schema, &ir.PsmUnwrapOr{DataPsmOr: d.Or}); err != nil {
			return out, err
		}
	}
	return out, nil
}

type resourceReader interface {
	ReadResource(ctx context.Context, iri string) (*ir.Resource, error)
}

// includeGraph follows PSM includes: class -> include parts -> included class.
// Edges are read lazily and cached for one execution.
type includeGraph struct {
	reader resourceReader
	edges  map[string][]string
}

func (g *includeGraph) included(ctx context.Context, class string) ([]string, error) {
	if targets, ok := g.edges[class]; ok {
		return targets, nil
	}
	var targets []string
	res, err := g.reader.ReadResource(ctx, class)
	if err != nil {
		return nil, err
	}
	if res != nil {
		for _, part := range res.StringList(ir.FieldPsmParts) {
			p, err := g.reader.ReadResource(ctx, part)
			if err != nil {
				return nil, err
			}
			if p != nil && p.HasType(ir.TypePsmInclude) {
				targets = append(targets, p.String(ir.FieldPsmIncludes))
			}
		}
	}
	g.edges[class] = targets
	return targets, nil
}

// reaches reports whether any class in targets is reachable from start by
// following one or more includes.
func (g *includeGraph) reaches(ctx context.Context, start string, targets map[string]bool) (bool, error) {
	seen := map[string]bool{start: true}
	stack := []string{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		next, err := g.included(ctx, cur)
		if err != nil {
			return false, err
		}
		for _, n := range next {
			if targets[n] {
				return true, nil
			}
			if !seen[n] {
				seen[n] = true
				stack = append(stack, n)
			}
		}
	}
	return false, nil
}
