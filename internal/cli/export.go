package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mff-uk/dataspecer-sub018/internal/memstore"
	"github.com/mff-uk/dataspecer-sub018/internal/store"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Schemas []string
	Output  string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored schemas as an envelope bundle",
		Long: `Export stored schemas as a canonical JSON envelope bundle.

Each envelope holds a schema's base IRI, its full operation log and its
current resources. The bundle can be installed elsewhere with import or
served with serve.

Examples:
  specstore export > bundle.json
  specstore export --schema https://example.com/m/schema/1 -o pim.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Schemas, "schema", nil, "export only this schema (repeatable)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the bundle to a file")

	return cmd
}

func runExport(ctx context.Context, opts *ExportOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	_, db, _, err := openDatabase(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	bundle, err := loadBundle(ctx, db, opts.Schemas)
	if err != nil {
		return err
	}
	data, err := bundle.MarshalJSON()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode bundle", err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, data, 0o644); err != nil {
			return WrapExitError(ExitCommandError, "failed to write bundle", err)
		}
		formatter.VerboseLog("Wrote %d schema(s) to %s", len(bundle.Stores), opts.Output)
		if formatter.Format == "json" {
			return formatter.JSON(map[string]any{"output": opts.Output, "schemas": len(bundle.Stores)}, nil)
		}
		fmt.Fprintf(formatter.Writer, "✓ Exported %d schema(s) to %s\n", len(bundle.Stores), opts.Output)
		return nil
	}

	if formatter.Format == "json" {
		return formatter.JSON(json.RawMessage(data), nil)
	}
	_, err = fmt.Fprintln(formatter.Writer, string(data))
	return err
}

// loadBundle reads the named schemas, or every stored schema when none are
// named.
func loadBundle(ctx context.Context, db *store.Store, schemas []string) (*memstore.Bundle, error) {
	if len(schemas) == 0 {
		bundle, err := db.LoadBundle(ctx)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load bundle", err)
		}
		return bundle, nil
	}
	bundle := &memstore.Bundle{Stores: make([]*memstore.Envelope, 0, len(schemas))}
	for _, iri := range schemas {
		env, err := db.LoadEnvelope(ctx, iri)
		if errors.Is(err, store.ErrNotFound) {
			return nil, NewExitError(ExitFailure, fmt.Sprintf("schema not stored: %s", iri))
		}
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load schema", err)
		}
		bundle.Stores = append(bundle.Stores, env)
	}
	return bundle, nil
}
