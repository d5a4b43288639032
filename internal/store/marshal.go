package store

import (
	"encoding/json"
	"fmt"

	"github.com/mff-uk/dataspecer-sub018/internal/ir"
)

// marshalResource converts a resource to canonical JSON TEXT and its digest.
// Uses RFC 8785 canonical JSON for deterministic serialization.
func marshalResource(r *ir.Resource) (body, digest string, err error) {
	data, err := ir.MarshalCanonical(r.ToObject())
	if err != nil {
		return "", "", fmt.Errorf("marshal resource %s: %w", r.IRI, err)
	}
	digest, err = ir.ResourceDigest(r)
	if err != nil {
		return "", "", fmt.Errorf("marshal resource %s: %w", r.IRI, err)
	}
	return string(data), digest, nil
}

// unmarshalResource parses a stored body. Numbers are decoded through
// json.Number so large integers survive.
func unmarshalResource(body string) (*ir.Resource, error) {
	var r ir.Resource
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil, fmt.Errorf("unmarshal resource: %w", err)
	}
	return &r, nil
}

// marshalOperation converts a stamped operation to its canonical wire record.
func marshalOperation(op ir.Operation) (string, error) {
	if op.Header().IRI == "" {
		return "", fmt.Errorf("marshal operation %s: not stamped", op.Kind())
	}
	data, err := ir.MarshalOperation(op)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalOperation(body string) (ir.Operation, error) {
	op, err := ir.UnmarshalOperation([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("unmarshal operation: %w", err)
	}
	return op, nil
}
