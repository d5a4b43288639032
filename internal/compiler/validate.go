package compiler

import (
	"fmt"
	"strings"

	"github.com/mff-uk/dataspecer-sub018/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrNoSteps          = "E101" // script has no steps
	ErrAmbiguousStep    = "E102" // step names both or neither of op and complex
	ErrUnknownOperation = "E103" // op is not a registered name or tag
	ErrUnknownComplex   = "E104" // complex is not a known complex operation
	ErrInvalidArgs      = "E105" // args do not decode into the operation
	ErrReservedArg      = "E106" // args set iri or types
	ErrUnknownFailure   = "E107" // expect is not a failure code
	ErrInvalidBinding   = "E108" // as is malformed, duplicated or not allowed
	ErrUndefinedRef     = "E109" // reference to a name no earlier step binds
	ErrMissingArg       = "E110" // complex operation argument missing
)

// ValidationError is one problem found in a script.
type ValidationError struct {
	Step    int    `json:"step"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Step < 0 {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] steps[%d].%s: %s", e.Code, e.Step, e.Field, e.Message)
}

// ValidationErrors collects every problem in a script.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// Validate checks raw without compiling it and returns every problem found.
func Validate(raw *RawScript) ValidationErrors {
	var errs ValidationErrors
	add := func(step int, field, code, format string, args ...any) {
		errs = append(errs, ValidationError{
			Step:    step,
			Field:   field,
			Message: fmt.Sprintf(format, args...),
			Code:    code,
		})
	}

	if len(raw.Steps) == 0 {
		add(-1, "steps", ErrNoSteps, "script has no steps")
		return errs
	}

	bound := map[string]bool{}
	for i, step := range raw.Steps {
		var kind ir.OperationKind
		switch {
		case (step.Op == "") == (step.Complex == ""):
			add(i, "op", ErrAmbiguousStep, "exactly one of op and complex is required")
			continue
		case step.Op != "":
			k, ok := lookupKind(step.Op)
			if !ok {
				add(i, "op", ErrUnknownOperation, "unknown operation %q", step.Op)
				continue
			}
			kind = k
		default:
			required, ok := complexArgs[ComplexKind(step.Complex)]
			if !ok {
				add(i, "complex", ErrUnknownComplex, "unknown complex operation %q", step.Complex)
				continue
			}
			for _, name := range required {
				if s, ok := step.Args[name].(string); !ok || s == "" {
					add(i, "args."+name, ErrMissingArg, "%s requires a string %s", step.Complex, name)
				}
			}
		}

		args, err := ir.FromAny(orEmpty(step.Args))
		if err != nil {
			add(i, "args", ErrInvalidArgs, "%v", err)
			continue
		}
		obj := args.(ir.Object)
		for _, key := range []string{"iri", "types"} {
			if _, ok := obj[key]; ok {
				add(i, "args."+key, ErrReservedArg, "%s is assigned by the store", key)
			}
		}
		if kind != ir.KindInvalid {
			if err := checkFields(kind, obj); err != nil {
				add(i, "args", ErrInvalidArgs, "%v", err)
			}
		}

		refs := references(obj)
		if name, ok := refName(step.Schema); ok {
			refs = append(refs, name)
		}
		for _, name := range refs {
			if !bound[name] {
				add(i, "args", ErrUndefinedRef, "$%s is not bound by an earlier step", name)
			}
		}

		if step.Expect != "" && !failureCodes[ir.FailureCode(step.Expect)] {
			add(i, "expect", ErrUnknownFailure, "unknown failure code %q", step.Expect)
		}

		if step.As == "" {
			continue
		}
		switch {
		case !validName.MatchString(step.As):
			add(i, "as", ErrInvalidBinding, "invalid name %q", step.As)
		case kind == ir.KindInvalid || !strings.Contains(kind.String(), "-create-"):
			add(i, "as", ErrInvalidBinding, "only create operations bind a name")
		case step.Expect != "":
			add(i, "as", ErrInvalidBinding, "a step expected to fail binds nothing")
		default:
			for _, name := range bindsFor(kind, step.As) {
				if bound[name] {
					add(i, "as", ErrInvalidBinding, "%q is already bound", name)
				}
				bound[name] = true
			}
		}
	}
	return errs
}
