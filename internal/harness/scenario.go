package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mff-uk/dataspecer-sub018/internal/compiler"
)

// Scenario defines a conformance test scenario: a script of steps and
// assertions on the final state of the federation.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps use the operation script format; see package compiler.
	Steps []compiler.RawStep `yaml:"steps"`

	// Assertions validate the final state.
	// Supported types: exists, absent, fields, owner, resource_count
	Assertions []Assertion `yaml:"assertions"`

	script *compiler.Script
}

// Assertion validates the final state. IRI, Schema and string values in
// Expect may be references bound by the steps.
type Assertion struct {
	// Type specifies the assertion type:
	// - "exists": IRI resolves
	// - "absent": IRI does not resolve
	// - "fields": IRI resolves and has the Expect field values (subset match)
	// - "owner": IRI belongs to Schema
	// - "resource_count": the federation lists exactly Count resources
	Type string `yaml:"type"`

	IRI    string         `yaml:"iri,omitempty"`
	Schema string         `yaml:"schema,omitempty"`
	Expect map[string]any `yaml:"expect,omitempty"`
	Count  int            `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertExists        = "exists"
	AssertAbsent        = "absent"
	AssertFields        = "fields"
	AssertOwner         = "owner"
	AssertResourceCount = "resource_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

// Validate checks required fields, compiles the steps and checks the
// assertions.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	script, err := compiler.Compile(&compiler.RawScript{Name: s.Name, Steps: s.Steps})
	if err != nil {
		return err
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	s.script = script
	return nil
}

// Script returns the compiled steps. Validate must have succeeded.
func (s *Scenario) Script() *compiler.Script {
	if s.script == nil {
		panic("harness: scenario used before Validate")
	}
	return s.script
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertExists, AssertAbsent:
		if a.IRI == "" {
			return fmt.Errorf("assertions[%d]: iri is required for %s", index, a.Type)
		}
	case AssertFields:
		if a.IRI == "" {
			return fmt.Errorf("assertions[%d]: iri is required for fields", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for fields", index)
		}
	case AssertOwner:
		if a.IRI == "" || a.Schema == "" {
			return fmt.Errorf("assertions[%d]: iri and schema are required for owner", index)
		}
	case AssertResourceCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for resource_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
