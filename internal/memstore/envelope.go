package memstore

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/mff-uk/dataspecer-sub018/internal/ir"
)

// Envelope is the export form of one store: its base IRI, the stamped
// operation log and a snapshot of every resource keyed by IRI.
type Envelope struct {
	BaseIRI    string
	Operations ir.OperationList
	Resources  map[string]*ir.Resource
}

// SchemaIRI returns the IRI of the schema resource in the snapshot, or "".
func (e *Envelope) SchemaIRI() string {
	for _, iri := range slices.Sorted(maps.Keys(e.Resources)) {
		if e.Resources[iri].IsSchema() {
			return iri
		}
	}
	return ""
}

// Validate checks that the envelope describes a consistent store: exactly
// one schema whose manifest lists every other resource once, and a log of
// stamped, distinct operations.
func (e *Envelope) Validate() error {
	if e.BaseIRI == "" {
		return fmt.Errorf("envelope: empty base iri")
	}

	var schemas []string
	for iri, res := range e.Resources {
		if res == nil {
			return fmt.Errorf("envelope: nil resource %s", iri)
		}
		if res.IRI != iri {
			return fmt.Errorf("envelope: resource keyed %s has iri %s", iri, res.IRI)
		}
		if err := res.Validate(); err != nil {
			return fmt.Errorf("envelope: %w", err)
		}
		if res.IsSchema() {
			schemas = append(schemas, iri)
		}
	}
	if len(schemas) != 1 {
		return fmt.Errorf("envelope: expected exactly one schema resource, found %d", len(schemas))
	}

	schema := e.Resources[schemas[0]]
	manifest := schema.StringList(ir.ManifestField(schema))
	listed := make(map[string]bool, len(manifest))
	for _, iri := range manifest {
		if listed[iri] {
			return fmt.Errorf("envelope: %s listed twice in schema manifest", iri)
		}
		if _, ok := e.Resources[iri]; !ok {
			return fmt.Errorf("envelope: manifest lists unknown resource %s", iri)
		}
		listed[iri] = true
	}
	if len(listed) != len(e.Resources)-1 {
		for iri := range e.Resources {
			if iri != schema.IRI && !listed[iri] {
				return fmt.Errorf("envelope: resource %s missing from schema manifest", iri)
			}
		}
	}

	seen := make(map[string]bool, len(e.Operations))
	for i, op := range e.Operations {
		iri := op.Header().IRI
		if iri == "" {
			return fmt.Errorf("envelope: operations[%d] (%s) is not stamped", i, op.Kind())
		}
		if seen[iri] {
			return fmt.Errorf("envelope: duplicate operation iri %s", iri)
		}
		seen[iri] = true
	}
	return nil
}

func (e *Envelope) toValue() (ir.Object, error) {
	ops := make(ir.List, len(e.Operations))
	for i, op := range e.Operations {
		data, err := ir.MarshalOperation(op)
		if err != nil {
			return nil, fmt.Errorf("operations[%d]: %w", i, err)
		}
		v, err := ir.DecodeValue(data)
		if err != nil {
			return nil, fmt.Errorf("operations[%d]: %w", i, err)
		}
		ops[i] = v
	}

	resources := make(ir.Object, len(e.Resources))
	for iri, res := range e.Resources {
		resources[iri] = res.ToObject()
	}

	return ir.Object{
		"baseIri":    ir.String(e.BaseIRI),
		"operations": ops,
		"resources":  resources,
	}, nil
}

// MarshalJSON writes the canonical envelope.
func (e *Envelope) MarshalJSON() ([]byte, error) {
	obj, err := e.toValue()
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return ir.MarshalCanonical(obj)
}

// UnmarshalJSON reads an envelope. It does not validate; call Validate or
// Import for that.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var wire struct {
		BaseIRI    string                  `json:"baseIri"`
		Operations ir.OperationList        `json:"operations"`
		Resources  map[string]*ir.Resource `json:"resources"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	e.BaseIRI = wire.BaseIRI
	e.Operations = wire.Operations
	e.Resources = wire.Resources
	if e.Resources == nil {
		e.Resources = map[string]*ir.Resource{}
	}
	return nil
}

// Digest returns the content digest of the canonical envelope. Two stores
// holding the same log and resources have the same digest.
func (e *Envelope) Digest() (string, error) {
	data, err := e.MarshalJSON()
	if err != nil {
		return "", err
	}
	return ir.SnapshotDigest(data), nil
}

// Bundle is a multi-store snapshot used to save and restore a federation.
type Bundle struct {
	Stores []*Envelope
}

// MarshalJSON writes the canonical bundle.
func (b *Bundle) MarshalJSON() ([]byte, error) {
	stores := make(ir.List, len(b.Stores))
	for i, env := range b.Stores {
		v, err := env.toValue()
		if err != nil {
			return nil, fmt.Errorf("marshal bundle: stores[%d]: %w", i, err)
		}
		stores[i] = v
	}
	return ir.MarshalCanonical(ir.Object{
		"version": ir.String(ir.SnapshotVersion),
		"stores":  stores,
	})
}

// UnmarshalJSON reads a bundle and rejects unknown versions.
func (b *Bundle) UnmarshalJSON(data []byte) error {
	var wire struct {
		Version string      `json:"version"`
		Stores  []*Envelope `json:"stores"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decode bundle: %w", err)
	}
	if wire.Version != ir.SnapshotVersion {
		return fmt.Errorf("decode bundle: unsupported version %q", wire.Version)
	}
	b.Stores = wire.Stores
	return nil
}
