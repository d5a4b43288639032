package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mff-uk/dataspecer-sub018/internal/ir"
	"github.com/mff-uk/dataspecer-sub018/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Kind string // optional - filter to one operation kind
}

// TraceEntry is one logged operation.
type TraceEntry struct {
	Seq       int             `json:"seq"`
	Operation string          `json:"operation"`
	Kind      string          `json:"kind"`
	Record    json.RawMessage `json:"record"`
}

// TraceResult holds the operation log of one schema.
type TraceResult struct {
	Schema  string       `json:"schema"`
	BaseIRI string       `json:"base_iri"`
	Log     []TraceEntry `json:"log"`
	Total   int          `json:"total"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <schema-iri>",
		Short: "Print the operation log of a stored schema",
		Long: `Print the operation log of a stored schema in application order.

Every entry shows its position in the log, the stamped operation IRI and the
operation kind. With --verbose, or in JSON output, the full wire record of
each operation is included.

Examples:
  specstore trace https://example.com/m/schema/1
  specstore trace https://example.com/m/schema/1 --kind pim-create-class
  specstore trace https://example.com/m/schema/1 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter to one operation kind (name or tag)")

	return cmd
}

func runTrace(ctx context.Context, opts *TraceOptions, schema string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	var filter ir.OperationKind
	if opts.Kind != "" {
		k, ok := ir.KindForName(opts.Kind)
		if !ok {
			k, ok = ir.KindForTag(opts.Kind)
		}
		if !ok {
			return NewExitError(ExitCommandError, fmt.Sprintf("unknown operation kind %q", opts.Kind))
		}
		filter = k
	}

	_, db, _, err := openDatabase(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	env, err := db.LoadEnvelope(ctx, schema)
	if errors.Is(err, store.ErrNotFound) {
		return NewExitError(ExitFailure, fmt.Sprintf("schema not stored: %s", schema))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load schema", err)
	}

	result := TraceResult{
		Schema:  schema,
		BaseIRI: env.BaseIRI,
		Log:     []TraceEntry{},
		Total:   len(env.Operations),
	}
	for i, op := range env.Operations {
		if opts.Kind != "" && op.Kind() != filter {
			continue
		}
		record, err := ir.MarshalOperation(op)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to encode operation", err)
		}
		result.Log = append(result.Log, TraceEntry{
			Seq:       i + 1,
			Operation: op.Header().IRI,
			Kind:      op.Kind().String(),
			Record:    record,
		})
	}

	if formatter.Format == "json" {
		return formatter.JSON(result, nil)
	}
	outputTraceText(formatter.Writer, result, opts.Verbose)
	return nil
}

func outputTraceText(w io.Writer, result TraceResult, verbose bool) {
	fmt.Fprintf(w, "Schema: %s\n", result.Schema)
	fmt.Fprintf(w, "Base:   %s\n\n", result.BaseIRI)
	if len(result.Log) == 0 {
		fmt.Fprintln(w, "No matching operations.")
		return
	}
	for _, e := range result.Log {
		fmt.Fprintf(w, "%4d  %-32s %s\n", e.Seq, e.Kind, e.Operation)
		if verbose {
			fmt.Fprintf(w, "      %s\n", e.Record)
		}
	}
	fmt.Fprintf(w, "\n%d of %d operation(s)\n", len(result.Log), result.Total)
}
