// Package compiler turns operation scripts (YAML, JSON or CUE) into checked
// step lists.
//
// A script is an ordered list of steps. Each step is either a primitive
// operation, named by its short name ("pim-create-class") or wire tag, or a
// complex operation ("delete-choice-branch", "delete-pim-class-cascade").
// A step may bind the IRI it creates to a name with `as`; later steps refer
// to it as "$name" anywhere a string is expected. Association creates also
// bind "name.end1" and "name.end2".
//
// Compilation checks everything that can be checked without a store: known
// operation names, argument fields, failure codes and that every reference
// is bound by an earlier step. Substitution happens when a step runs.
package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/mff-uk/dataspecer-sub018/internal/ir"
)

// RawScript is the decoded, unchecked form of a script file.
type RawScript struct {
	Name  string    `yaml:"name" json:"name"`
	Steps []RawStep `yaml:"steps" json:"steps"`
}

// RawStep is one unchecked step.
type RawStep struct {
	Op      string         `yaml:"op,omitempty" json:"op,omitempty"`
	Complex string         `yaml:"complex,omitempty" json:"complex,omitempty"`
	Schema  string         `yaml:"schema,omitempty" json:"schema,omitempty"`
	Args    map[string]any `yaml:"args,omitempty" json:"args,omitempty"`
	As      string         `yaml:"as,omitempty" json:"as,omitempty"`
	Expect  string         `yaml:"expect,omitempty" json:"expect,omitempty"`
}

// ComplexKind names a complex operation.
type ComplexKind string

const (
	ComplexDeleteChoiceBranch    ComplexKind = "delete-choice-branch"
	ComplexDeletePimClassCascade ComplexKind = "delete-pim-class-cascade"
)

// complexArgs lists the required string arguments of each complex kind.
var complexArgs = map[ComplexKind][]string{
	ComplexDeleteChoiceBranch:    {"or", "choice"},
	ComplexDeletePimClassCascade: {"class"},
}

// Script is a compiled script.
type Script struct {
	Name  string
	Steps []Step
}

// Step is a compiled step. Exactly one of Kind and Complex is set.
type Step struct {
	Index   int
	Kind    ir.OperationKind
	Complex ComplexKind

	// Schema optionally names the target schema, possibly as a reference.
	Schema string

	// Args are the operation fields with references unresolved.
	Args ir.Object

	// Bind is the name the created IRI is bound to, or "".
	Bind string

	// Expect is the failure code the step must produce, or "".
	Expect ir.FailureCode
}

// Name returns the operation or complex operation name of the step.
func (s *Step) Name() string {
	if s.Complex != "" {
		return string(s.Complex)
	}
	return s.Kind.String()
}

// CreatesSchema reports whether the step creates a new schema and
// therefore a new store.
func (s *Step) CreatesSchema() bool {
	return s.Kind == ir.KindPimCreateSchema || s.Kind == ir.KindPsmCreateSchema
}

var validName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

var failureCodes = map[ir.FailureCode]bool{
	ir.FailMissingResource:    true,
	ir.FailInvalidType:        true,
	ir.FailInvalidShape:       true,
	ir.FailPreconditionFailed: true,
	ir.FailSchemaNotFound:     true,
}

// Compile checks raw and returns the compiled script. All problems are
// reported together.
func Compile(raw *RawScript) (*Script, error) {
	errs := Validate(raw)
	if len(errs) > 0 {
		return nil, errs
	}

	script := &Script{Name: raw.Name, Steps: make([]Step, len(raw.Steps))}
	for i := range raw.Steps {
		step, err := compileStep(i, &raw.Steps[i])
		if err != nil {
			// Validate accepted the step; this is a bug in one of the two.
			panic(fmt.Sprintf("compiler: step %d passed validation but failed to compile: %v", i, err))
		}
		script.Steps[i] = *step
	}
	return script, nil
}

func compileStep(i int, raw *RawStep) (*Step, error) {
	step := &Step{
		Index:  i,
		Schema: raw.Schema,
		Bind:   raw.As,
		Expect: ir.FailureCode(raw.Expect),
	}

	args, err := ir.FromAny(orEmpty(raw.Args))
	if err != nil {
		return nil, err
	}
	step.Args = args.(ir.Object)

	if raw.Complex != "" {
		step.Complex = ComplexKind(raw.Complex)
		return step, nil
	}
	kind, ok := lookupKind(raw.Op)
	if !ok {
		return nil, fmt.Errorf("unknown operation %q", raw.Op)
	}
	step.Kind = kind
	return step, nil
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func lookupKind(name string) (ir.OperationKind, bool) {
	if k, ok := ir.KindForName(name); ok {
		return k, true
	}
	return ir.KindForTag(name)
}

// checkFields decodes args into a zero operation of kind, rejecting fields
// the operation does not have. References are left in place; they are
// strings, so any field that accepts one accepts the other.
func checkFields(kind ir.OperationKind, args ir.Object) error {
	op, err := ir.NewOperation(kind)
	if err != nil {
		return err
	}
	data, err := ir.MarshalCanonical(args)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(op); err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}
	return nil
}

// refName returns the binding a string refers to. "$$x" is an escaped
// literal, not a reference.
func refName(s string) (string, bool) {
	if !strings.HasPrefix(s, "$") || strings.HasPrefix(s, "$$") {
		return "", false
	}
	return s[1:], true
}

// references returns every reference in v in document order.
func references(v ir.Value) []string {
	var out []string
	var walk func(ir.Value)
	walk = func(v ir.Value) {
		switch val := v.(type) {
		case ir.String:
			if name, ok := refName(string(val)); ok {
				out = append(out, name)
			}
		case ir.List:
			for _, item := range val {
				walk(item)
			}
		case ir.Object:
			for _, k := range val.SortedKeys() {
				walk(val[k])
			}
		}
	}
	walk(v)
	return out
}

// bindsFor returns the names a step binds when it succeeds.
func bindsFor(kind ir.OperationKind, name string) []string {
	if name == "" {
		return nil
	}
	if kind == ir.KindPimCreateAssociation {
		return []string{name, name + ".end1", name + ".end2"}
	}
	return []string{name}
}
