package cli

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mff-uk/dataspecer-sub018/internal/ir"
	"github.com/mff-uk/dataspecer-sub018/internal/queryir"
	"github.com/mff-uk/dataspecer-sub018/internal/remote"
)

// FindOptions holds flags for the find command.
type FindOptions struct {
	*RootOptions
	Types    []string
	Where    []string
	Contains []string
	Schema   string
	Limit    int
	Remotes  bool
}

// FindMatch is one found resource.
type FindMatch struct {
	Schema   string       `json:"schema"`
	Remote   bool         `json:"remote,omitempty"`
	Resource *ir.Resource `json:"resource"`
}

// FindResult holds the resources matching a query.
type FindResult struct {
	Matches []FindMatch `json:"matches"`
	Total   int         `json:"total"`
}

// NewFindCommand creates the find command.
func NewFindCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FindOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Find resources by type and field values",
		Long: `Find resources across every stored schema.

All conditions must hold. Types may be written in full or with the pim: and
psm: prefixes. Values given to --where are read as YAML scalars, so
"null" matches an unset field and numbers and booleans compare as such;
quote a value to compare it as a string.

With --remotes, the configured remote specifications are searched too.

Examples:
  specstore find --type pim:Class
  specstore find --type psm:Class --where dataPsmTechnicalLabel=person
  specstore find --contains dataPsmParts=https://example.com/s/attribute/7
  specstore find --where pimDatatype=null --schema https://example.com/m/schema/1`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Types, "type", nil, "resource type (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "field=value condition (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Contains, "contains", nil, "field=iri list membership (repeatable)")
	cmd.Flags().StringVar(&opts.Schema, "schema", "", "restrict to one schema")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of results (0 = all)")
	cmd.Flags().BoolVar(&opts.Remotes, "remotes", false, "search configured remote specifications too")

	return cmd
}

func runFind(ctx context.Context, opts *FindOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	q, err := opts.query()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid query", err)
	}

	cfg, db, logger, err := openDatabase(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	local, err := db.Find(ctx, q)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to query resources", err)
	}
	matches := make([]FindMatch, 0, len(local))
	for _, m := range local {
		matches = append(matches, FindMatch{Schema: m.Schema, Resource: m.Resource})
	}

	if opts.Remotes {
		stored, err := db.ListSchemas(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list schemas", err)
		}
		for _, url := range cfg.Remotes {
			remoteMatches, err := findRemote(ctx, url, q, stored)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to search remote specification", err)
			}
			logger.Debug("remote specification searched", "url", url, "matches", len(remoteMatches))
			matches = append(matches, remoteMatches...)
		}
		slices.SortFunc(matches, func(a, b FindMatch) int {
			return cmp.Or(cmp.Compare(a.Schema, b.Schema), cmp.Compare(a.Resource.IRI, b.Resource.IRI))
		})
		if q.Limit > 0 && len(matches) > q.Limit {
			matches = matches[:q.Limit]
		}
	}

	result := FindResult{Matches: matches, Total: len(matches)}
	if formatter.Format == "json" {
		return formatter.JSON(result, nil)
	}
	outputFindText(formatter.Writer, result)
	return nil
}

// findRemote matches q against the stores of one remote specification,
// skipping schemas that are stored locally.
func findRemote(ctx context.Context, url string, q queryir.Query, stored []string) ([]FindMatch, error) {
	stores, err := remote.Fetch(ctx, nil, url)
	if err != nil {
		return nil, err
	}
	var matches []FindMatch
	for _, ro := range stores {
		if slices.Contains(stored, ro.SchemaIRI()) {
			continue
		}
		env, err := ro.Export()
		if err != nil {
			return nil, err
		}
		for _, iri := range slices.Sorted(maps.Keys(env.Resources)) {
			r := env.Resources[iri]
			if queryir.Match(q.Filter, ro.SchemaIRI(), r) {
				matches = append(matches, FindMatch{Schema: ro.SchemaIRI(), Remote: true, Resource: r})
			}
		}
	}
	return matches, nil
}

// query builds the query from the flags.
func (o *FindOptions) query() (queryir.Query, error) {
	var preds []queryir.Predicate
	for _, t := range o.Types {
		preds = append(preds, queryir.HasType{Type: expandType(t)})
	}
	for _, cond := range o.Where {
		field, raw, ok := strings.Cut(cond, "=")
		if !ok {
			return queryir.Query{}, fmt.Errorf("--where %q: expected field=value", cond)
		}
		value, err := parseScalar(raw)
		if err != nil {
			return queryir.Query{}, fmt.Errorf("--where %q: %w", cond, err)
		}
		preds = append(preds, queryir.Equals{Field: field, Value: value})
	}
	for _, cond := range o.Contains {
		field, value, ok := strings.Cut(cond, "=")
		if !ok {
			return queryir.Query{}, fmt.Errorf("--contains %q: expected field=value", cond)
		}
		preds = append(preds, queryir.Contains{Field: field, Value: value})
	}
	if o.Schema != "" {
		preds = append(preds, queryir.InSchema{IRI: o.Schema})
	}

	q := queryir.Query{Filter: queryir.AllOf(preds...), Limit: o.Limit}
	if err := queryir.Validate(q); err != nil {
		return queryir.Query{}, err
	}
	return q, nil
}

// parseScalar reads a YAML scalar. An empty value is the empty string.
func parseScalar(raw string) (ir.Value, error) {
	if raw == "" {
		return ir.String(""), nil
	}
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	return ir.FromAny(v)
}

// expandType resolves the pim: and psm: prefixes.
func expandType(t string) string {
	if rest, ok := strings.CutPrefix(t, "pim:"); ok {
		return ir.PimNamespace + rest
	}
	if rest, ok := strings.CutPrefix(t, "psm:"); ok {
		return ir.PsmNamespace + rest
	}
	return t
}

// compactType is the inverse of expandType.
func compactType(t string) string {
	if rest, ok := strings.CutPrefix(t, ir.PimNamespace); ok {
		return "pim:" + rest
	}
	if rest, ok := strings.CutPrefix(t, ir.PsmNamespace); ok {
		return "psm:" + rest
	}
	return t
}

func outputFindText(w io.Writer, result FindResult) {
	if result.Total == 0 {
		fmt.Fprintln(w, "No matching resources.")
		return
	}
	for _, m := range result.Matches {
		types := make([]string, len(m.Resource.Types))
		for i, t := range m.Resource.Types {
			types[i] = compactType(t)
		}
		label := cmp.Or(m.Resource.String(ir.FieldPimTechnicalLabel), m.Resource.String(ir.FieldPsmTechnicalLabel))
		fmt.Fprintf(w, "%s  %s", m.Resource.IRI, strings.Join(types, ","))
		if label != "" {
			fmt.Fprintf(w, "  %s", label)
		}
		if m.Remote {
			fmt.Fprint(w, "  (remote)")
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "\n%d resource(s)\n", result.Total)
}
