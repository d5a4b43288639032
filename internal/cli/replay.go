package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mff-uk/dataspecer-sub018/internal/memstore"
	"github.com/mff-uk/dataspecer-sub018/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Schemas []string // optional - specific schemas only
}

// ReplaySchemaResult holds the replay result for a single schema.
type ReplaySchemaResult struct {
	Schema        string   `json:"schema"`
	Operations    int      `json:"operations"`
	Deterministic bool     `json:"deterministic"`
	Missing       []string `json:"missing,omitempty"`
	Extra         []string `json:"extra,omitempty"`
	Differing     []string `json:"differing,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Schemas          []ReplaySchemaResult `json:"schemas"`
	TotalSchemas     int                  `json:"total_schemas"`
	AllDeterministic bool                 `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay operation logs and verify determinism",
		Long: `Re-execute the stored operation log of each schema in a fresh store and
compare the result with the stored resources.

Identifiers are minted with the workspace identifier scheme. Logs written
with uuid identifiers cannot be reproduced and are reported as
non-deterministic.

Exit codes:
  0 - Every replayed schema matches its stored resources
  1 - Replay produced different resources or an operation was refused
  2 - Command error (database not found, etc.)

Examples:
  specstore replay
  specstore replay --schema https://example.com/m/schema/1
  specstore replay --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Schemas, "schema", nil, "replay specific schema only (repeatable)")

	return cmd
}

func runReplay(ctx context.Context, opts *ReplayOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, db, logger, err := openDatabase(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	schemas := opts.Schemas
	if len(schemas) == 0 {
		schemas, err = db.ListSchemas(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list schemas", err)
		}
	}

	result := ReplayResult{
		Schemas:          make([]ReplaySchemaResult, 0, len(schemas)),
		TotalSchemas:     len(schemas),
		AllDeterministic: true,
	}
	for _, iri := range schemas {
		formatter.VerboseLog("Replaying %s", iri)
		r := replaySchema(ctx, db, iri,
			memstore.WithGenerator(memstore.GeneratorForScheme(cfg.Identifiers)),
			memstore.WithLogger(logger))
		if !r.Deterministic {
			result.AllDeterministic = false
		}
		result.Schemas = append(result.Schemas, r)
	}

	if formatter.Format == "json" {
		var cliErr *CLIError
		if !result.AllDeterministic {
			cliErr = &CLIError{Code: "E_NONDETERMINISTIC", Message: "replay differs from stored state"}
		}
		if err := formatter.JSON(result, cliErr); err != nil {
			return err
		}
	} else {
		outputReplayText(formatter.Writer, result)
	}

	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// replaySchema replays one schema. Failures are reported in the result.
func replaySchema(ctx context.Context, db *store.Store, iri string, opts ...memstore.Option) ReplaySchemaResult {
	r := ReplaySchemaResult{Schema: iri}
	ms, mismatches, err := db.Replay(ctx, iri, opts...)
	if err != nil {
		r.Error = err.Error()
		return r
	}
	r.Operations = len(ms.Operations())
	for _, m := range mismatches {
		switch {
		case m.Missing:
			r.Missing = append(r.Missing, m.IRI)
		case m.Extra:
			r.Extra = append(r.Extra, m.IRI)
		default:
			r.Differing = append(r.Differing, m.IRI)
		}
	}
	r.Deterministic = len(mismatches) == 0
	return r
}

func outputReplayText(w io.Writer, result ReplayResult) {
	if result.TotalSchemas == 0 {
		fmt.Fprintln(w, "No schemas found in database.")
		return
	}
	for _, r := range result.Schemas {
		if r.Deterministic {
			fmt.Fprintf(w, "✓ %s (%d operations)\n", r.Schema, r.Operations)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", r.Schema)
		if r.Error != "" {
			fmt.Fprintf(w, "  %s\n", r.Error)
		}
		for _, iri := range r.Missing {
			fmt.Fprintf(w, "  missing   %s\n", iri)
		}
		for _, iri := range r.Extra {
			fmt.Fprintf(w, "  extra     %s\n", iri)
		}
		for _, iri := range r.Differing {
			fmt.Fprintf(w, "  differing %s\n", iri)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Replay Summary: %d schema(s)\n", result.TotalSchemas)
	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All schemas deterministic")
	}
}
