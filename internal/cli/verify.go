package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mff-uk/dataspecer-sub018/internal/memstore"
	"github.com/mff-uk/dataspecer-sub018/internal/store"
)

// VerifySchemaResult is the round-trip check of one stored schema.
type VerifySchemaResult struct {
	Schema     string `json:"schema"`
	Operations int    `json:"operations"`
	Resources  int    `json:"resources"`
	Digest     string `json:"digest"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
}

// VerifyResult holds the overall verification result.
type VerifyResult struct {
	Schemas []VerifySchemaResult `json:"schemas"`
	OK      bool                 `json:"ok"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that every stored schema survives export and import",
		Long: `Export every stored schema, import it into a fresh store, export it again
and compare the digests of both envelopes.

A mismatch means the stored log or resources cannot be reproduced through
the envelope format.

Exit codes:
  0 - Every schema round-trips
  1 - One or more schemas differ or fail to import
  2 - Command error

Examples:
  specstore verify
  specstore verify --db ./specs.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context(), rootOpts, cmd)
		},
	}

	return cmd
}

func runVerify(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	_, db, _, err := openDatabase(opts, cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	schemas, err := db.ListSchemas(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list schemas", err)
	}

	result := VerifyResult{Schemas: make([]VerifySchemaResult, 0, len(schemas)), OK: true}
	for _, iri := range schemas {
		formatter.VerboseLog("Verifying %s", iri)
		r, err := verifySchema(ctx, db, iri)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to verify %s", iri), err)
		}
		if !r.OK {
			result.OK = false
		}
		result.Schemas = append(result.Schemas, r)
	}

	if formatter.Format == "json" {
		var cliErr *CLIError
		if !result.OK {
			cliErr = &CLIError{Code: "E_VERIFY", Message: "one or more schemas do not round-trip"}
		}
		if err := formatter.JSON(result, cliErr); err != nil {
			return err
		}
	} else {
		outputVerifyText(formatter.Writer, result)
	}

	if !result.OK {
		return NewExitError(ExitFailure, "verification failed")
	}
	return nil
}

// verifySchema round-trips one stored envelope. Only database errors are
// returned; a failed round trip is reported in the result.
func verifySchema(ctx context.Context, db *store.Store, iri string) (VerifySchemaResult, error) {
	r := VerifySchemaResult{Schema: iri}

	env, err := db.LoadEnvelope(ctx, iri)
	if err != nil {
		return r, err
	}
	r.Operations = len(env.Operations)
	r.Resources = len(env.Resources)

	want, err := env.Digest()
	if err != nil {
		r.Error = err.Error()
		return r, nil
	}
	r.Digest = want

	ms, err := memstore.FromEnvelope(env)
	if err != nil {
		r.Error = err.Error()
		return r, nil
	}
	back, err := ms.Export()
	if err != nil {
		r.Error = err.Error()
		return r, nil
	}
	got, err := back.Digest()
	if err != nil {
		r.Error = err.Error()
		return r, nil
	}
	if got != want {
		r.Error = fmt.Sprintf("digest mismatch: stored %s, re-exported %s", want, got)
		return r, nil
	}
	r.OK = true
	return r, nil
}

func outputVerifyText(w io.Writer, result VerifyResult) {
	if len(result.Schemas) == 0 {
		fmt.Fprintln(w, "No schemas stored.")
		return
	}
	for _, r := range result.Schemas {
		if r.OK {
			fmt.Fprintf(w, "✓ %s (%d operations, %d resources)\n", r.Schema, r.Operations, r.Resources)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n  %s\n", r.Schema, r.Error)
	}
	if result.OK {
		fmt.Fprintln(w, "✓ All schemas round-trip")
	}
}
