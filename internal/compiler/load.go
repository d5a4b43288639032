package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

// CompileError is a decoding error with an optional CUE source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}

// LoadFile reads and compiles a script. The format follows the extension:
// .yaml/.yml, .json or .cue.
func LoadFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	var raw *RawScript
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		raw, err = DecodeYAML(data)
	case ".json":
		raw, err = DecodeJSON(data)
	case ".cue":
		raw, err = DecodeCUE(data, path)
	default:
		return nil, fmt.Errorf("script %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", path, err)
	}
	if raw.Name == "" {
		raw.Name = filepath.Base(path)
	}

	script, err := Compile(raw)
	if err != nil {
		return nil, fmt.Errorf("script %s:\n%w", path, err)
	}
	return script, nil
}

// DecodeYAML decodes a YAML script, rejecting unknown fields.
func DecodeYAML(data []byte) (*RawScript, error) {
	var raw RawScript
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &raw, nil
}

// DecodeJSON decodes a JSON script, rejecting unknown fields. Numbers keep
// their literal form.
func DecodeJSON(data []byte) (*RawScript, error) {
	var raw RawScript
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return &raw, nil
}

// DecodeCUE evaluates a CUE script and decodes its JSON export. The script
// must be concrete; definitions and comprehensions are evaluated first.
func DecodeCUE(data []byte, filename string) (*RawScript, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	stepsVal := v.LookupPath(cue.ParsePath("steps"))
	if !stepsVal.Exists() {
		return nil, &CompileError{
			Field:   "steps",
			Message: "steps is required",
			Pos:     v.Pos(),
		}
	}

	exported, err := v.MarshalJSON()
	if err != nil {
		return nil, formatCUEError(err)
	}
	return DecodeJSON(exported)
}
