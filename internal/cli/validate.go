package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/mff-uk/dataspecer-sub018/internal/compiler"
)

// Script load error codes. Script validation codes (E1xx) come from the
// compiler package.
const (
	ErrCodeNotFound = "E001" // script file missing or unreadable
	ErrCodeDecode   = "E002" // script is not valid YAML, JSON or CUE
)

// ScriptReport is the validation outcome of one script file.
type ScriptReport struct {
	Path   string                     `json:"path"`
	Valid  bool                       `json:"valid"`
	Steps  int                        `json:"steps,omitempty"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool           `json:"valid"`
	Scripts []ScriptReport `json:"scripts"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <script>...",
		Short: "Validate operation scripts without running them",
		Long: `Validate YAML, JSON or CUE operation scripts without touching the database.

Checks that every step names a known operation or complex operation, that
its arguments decode into the operation, that every $reference is bound by
an earlier step and that expected failures are known failure codes. All
problems are reported, not just the first.

Exit codes:
  0 - All scripts valid
  1 - One or more scripts invalid
  2 - Command error

Examples:
  specstore validate model.yaml
  specstore validate scripts/*.cue --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	result := ValidationResult{Valid: true, Scripts: make([]ScriptReport, 0, len(paths))}
	invalid := 0
	for _, path := range paths {
		formatter.VerboseLog("Validating %s", path)
		report := ScriptReport{Path: path, Valid: true}
		script, err := compiler.LoadFile(path)
		if err != nil {
			report.Valid = false
			report.Errors = scriptErrors(err)
			result.Valid = false
			invalid++
		} else {
			report.Steps = len(script.Steps)
		}
		result.Scripts = append(result.Scripts, report)
	}

	if formatter.Format == "json" {
		var cliErr *CLIError
		if !result.Valid {
			cliErr = &CLIError{
				Code:    firstInvalid(result.Scripts).Errors[0].Code,
				Message: fmt.Sprintf("%d script(s) invalid", invalid),
			}
		}
		if err := formatter.JSON(result, cliErr); err != nil {
			return err
		}
	} else {
		outputValidateText(formatter, result)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed: %d script(s) invalid", invalid))
	}
	return nil
}

// scriptErrors turns a compiler.LoadFile error into validation errors.
func scriptErrors(err error) []compiler.ValidationError {
	var verrs compiler.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs
	}
	code := ErrCodeDecode
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		code = ErrCodeNotFound
	}
	field := "script"
	var cerr *compiler.CompileError
	if errors.As(err, &cerr) {
		field = cerr.Field
	}
	return []compiler.ValidationError{{Step: -1, Field: field, Message: err.Error(), Code: code}}
}

func firstInvalid(reports []ScriptReport) ScriptReport {
	for _, r := range reports {
		if !r.Valid {
			return r
		}
	}
	return ScriptReport{}
}

func outputValidateText(formatter *OutputFormatter, result ValidationResult) {
	w := formatter.Writer
	for _, r := range result.Scripts {
		if r.Valid {
			fmt.Fprintf(w, "✓ %s (%d steps)\n", r.Path, r.Steps)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", r.Path)
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  %s\n", e.Error())
		}
	}
	if result.Valid {
		fmt.Fprintln(w, "✓ All scripts valid")
	}
}
