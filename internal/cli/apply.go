package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mff-uk/dataspecer-sub018/internal/compiler"
	"github.com/mff-uk/dataspecer-sub018/internal/harness"
)

// ApplyResult is the outcome of applying one script.
type ApplyResult struct {
	Script   string               `json:"script"`
	Steps    int                  `json:"steps"`
	Trace    []harness.TraceEvent `json:"trace"`
	Bindings map[string]string    `json:"bindings"`
	Schemas  []string             `json:"schemas,omitempty"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply <script>",
		Short: "Apply an operation script to the workspace",
		Long: `Apply a YAML, JSON or CUE script of primitive and complex operations.

Steps run in order against the workspace federation: every stored schema,
plus the configured remote specifications as read-only stores. Each applied
operation is written through to the database immediately. A step that does
not end as it expects stops the script; the steps before it stay applied.

Exit codes:
  0 - Every step ended as expected
  1 - Invalid script, or a step ended unexpectedly
  2 - Command error (workspace, database, remote)

Examples:
  specstore apply model.yaml
  specstore apply model.cue --db ./specs.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd.Context(), rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runApply(ctx context.Context, opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	script, err := compiler.LoadFile(path)
	if err != nil {
		errs := scriptErrors(err)
		if formatter.Format == "json" {
			_ = formatter.JSON(ValidationResult{Scripts: []ScriptReport{{Path: path, Errors: errs}}},
				&CLIError{Code: errs[0].Code, Message: "invalid script"})
		} else {
			outputValidateText(formatter, ValidationResult{Scripts: []ScriptReport{{Path: path, Errors: errs}}})
		}
		return NewExitError(ExitFailure, fmt.Sprintf("invalid script %s", path))
	}

	ws, err := openWorkspace(ctx, opts, cmd, true)
	if err != nil {
		return err
	}
	defer ws.Close()

	res := harness.NewResult()
	runner := harness.NewRunner(ws.fed, ws.newStore, ws.logger)
	runErr := runner.Execute(ctx, script, res)

	var stepErr *harness.StepError
	if runErr != nil && !errors.As(runErr, &stepErr) {
		return WrapExitError(ExitCommandError, "failed to apply script", runErr)
	}

	result := ApplyResult{
		Script:   script.Name,
		Steps:    len(script.Steps),
		Trace:    res.Trace,
		Bindings: res.Bindings,
		Schemas:  res.Schemas,
	}

	if formatter.Format == "json" {
		var cliErr *CLIError
		if stepErr != nil {
			cliErr = &CLIError{Code: "E_STEP", Message: stepErr.Error()}
		}
		if err := formatter.JSON(result, cliErr); err != nil {
			return err
		}
	} else {
		outputApplyText(formatter.Writer, result, stepErr)
	}

	if stepErr != nil {
		return WrapExitError(ExitFailure, "script stopped", stepErr)
	}
	return nil
}

func outputApplyText(w io.Writer, result ApplyResult, stepErr *harness.StepError) {
	for _, ev := range result.Trace {
		fmt.Fprintln(w, formatEvent(ev))
	}
	if len(result.Bindings) > 0 {
		fmt.Fprintln(w)
		for _, name := range slices.Sorted(maps.Keys(result.Bindings)) {
			fmt.Fprintf(w, "$%s = %s\n", name, result.Bindings[name])
		}
	}
	fmt.Fprintln(w)
	if stepErr != nil {
		fmt.Fprintf(w, "✗ %s\n", stepErr.Error())
		return
	}
	fmt.Fprintf(w, "✓ %s: %d step(s) applied\n", result.Script, result.Steps)
}

// formatEvent renders one trace event on a single line.
func formatEvent(ev harness.TraceEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d] %s", ev.Step, ev.Kind)
	if ev.Complex != "" {
		fmt.Fprintf(&b, " (%s)", ev.Complex)
	}
	if ev.Failure != "" {
		fmt.Fprintf(&b, " refused: %s", ev.Failure)
		return b.String()
	}
	fmt.Fprintf(&b, " %s", ev.Operation)
	for _, part := range []struct {
		label string
		iris  []string
	}{
		{"+", ev.Created},
		{"~", ev.Changed},
		{"-", ev.Deleted},
	} {
		for _, iri := range part.iris {
			fmt.Fprintf(&b, " %s%s", part.label, iri)
		}
	}
	return b.String()
}
