package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mff-uk/dataspecer-sub018/internal/ir"
)

// ShowResult is a resource with its owning schema.
type ShowResult struct {
	Schema   string       `json:"schema"`
	Version  int64        `json:"version,omitempty"`
	Resource *ir.Resource `json:"resource"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <iri>",
		Short: "Print a resource and its owning schema",
		Long: `Print the current value of a resource as canonical JSON.

The resource is resolved through the workspace federation, so resources of
configured remote specifications can be shown too. Local resources also
report their version.

Examples:
  specstore show https://example.com/m/class/3
  specstore show https://example.com/m/class/3 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.Context(), rootOpts, args[0], cmd)
		},
	}

	return cmd
}

type versioned interface {
	Version(iri string) (int64, bool)
}

func runShow(ctx context.Context, opts *RootOptions, iri string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	ws, err := openWorkspace(ctx, opts, cmd, true)
	if err != nil {
		return err
	}
	defer ws.Close()

	res, err := ws.fed.ReadResource(ctx, iri)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read resource", err)
	}
	if res == nil {
		if formatter.Format == "json" {
			_ = formatter.Error(string(ir.FailMissingResource), "resource not found", map[string]string{"iri": iri})
		}
		return NewExitError(ExitFailure, fmt.Sprintf("resource not found: %s", iri))
	}
	schema, err := ws.fed.GetSchemaForResource(ctx, iri)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to resolve schema", err)
	}

	result := ShowResult{Schema: schema, Resource: res}
	if b, ok := ws.fed.StoreForSchema(schema); ok {
		if v, ok := b.(versioned); ok {
			result.Version, _ = v.Version(iri)
		}
	}

	if formatter.Format == "json" {
		return formatter.JSON(result, nil)
	}
	data, err := res.MarshalJSON()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode resource", err)
	}
	fmt.Fprintf(formatter.Writer, "schema:  %s\n", schema)
	if result.Version > 0 {
		fmt.Fprintf(formatter.Writer, "version: %d\n", result.Version)
	}
	fmt.Fprintln(formatter.Writer, string(data))
	return nil
}
