package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/mff-uk/dataspecer-sub018/internal/memstore"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Replace bool
}

// ImportResult lists the installed schemas.
type ImportResult struct {
	Schemas  []string `json:"schemas"`
	Replaced []string `json:"replaced,omitempty"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <bundle>",
		Short: "Install an envelope bundle into the workspace",
		Long: `Install every envelope of a bundle produced by export.

Envelopes are validated before anything is written. A schema that is
already stored is refused unless --replace is given, in which case its log
and resources are replaced.

Examples:
  specstore import bundle.json
  specstore import bundle.json --replace`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Replace, "replace", false, "replace schemas that are already stored")

	return cmd
}

func runImport(ctx context.Context, opts *ImportOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read bundle", err)
	}
	var bundle memstore.Bundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return WrapExitError(ExitFailure, "invalid bundle", err)
	}
	for i, env := range bundle.Stores {
		if err := env.Validate(); err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("invalid bundle: stores[%d]", i), err)
		}
	}

	_, db, logger, err := openDatabase(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	stored, err := db.ListSchemas(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list schemas", err)
	}

	result := ImportResult{Schemas: make([]string, 0, len(bundle.Stores))}
	for _, env := range bundle.Stores {
		schema := env.SchemaIRI()
		if slices.Contains(stored, schema) {
			if !opts.Replace {
				return NewExitError(ExitFailure, fmt.Sprintf("schema already stored: %s (use --replace)", schema))
			}
			result.Replaced = append(result.Replaced, schema)
		}
		result.Schemas = append(result.Schemas, schema)
	}
	for _, env := range bundle.Stores {
		if err := db.SaveEnvelope(ctx, env); err != nil {
			return WrapExitError(ExitCommandError, "failed to save envelope", err)
		}
		logger.Info("schema imported",
			"schema", env.SchemaIRI(),
			"operations", len(env.Operations),
			"resources", len(env.Resources))
	}

	if formatter.Format == "json" {
		return formatter.JSON(result, nil)
	}
	for _, schema := range result.Schemas {
		fmt.Fprintf(formatter.Writer, "✓ %s\n", schema)
	}
	fmt.Fprintf(formatter.Writer, "Imported %d schema(s), replaced %d\n", len(result.Schemas), len(result.Replaced))
	return nil
}
