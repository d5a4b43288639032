package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
)

// OperationKind is the closed set of operation tags. Executors are registered
// against these values; the wire tag string is only used at the JSON boundary.
type OperationKind uint16

const (
	KindInvalid OperationKind = iota

	KindPimCreateSchema
	KindPimCreateClass
	KindPimCreateAttribute
	KindPimCreateAssociation
	KindPimDeleteClass
	KindPimDeleteAttribute
	KindPimDeleteAssociation
	KindPimSetCardinality
	KindPimSetDatatype
	KindPimSetHumanLabel
	KindPimSetHumanDescription
	KindPimSetTechnicalLabel
	KindPimSetClassCodelist
	KindPimSetExtends

	KindPsmCreateSchema
	KindPsmCreateClass
	KindPsmCreateAttribute
	KindPsmCreateAssociationEnd
	KindPsmCreateInclude
	KindPsmCreateOr
	KindPsmDeleteClass
	KindPsmDeleteAttribute
	KindPsmDeleteAssociationEnd
	KindPsmDeleteInclude
	KindPsmDeleteOr
	KindPsmSetRoots
	KindPsmSetOrder
	KindPsmSetChoice
	KindPsmUnsetChoice
	KindPsmUnwrapOr
	KindPsmSetHumanLabel
	KindPsmSetTechnicalLabel

	// KindFirstCustom is the first value available to RegisterOperationKind.
	KindFirstCustom OperationKind = 1000
)

// Operation is an inert description of one intended mutation. Concrete
// operations are pointer types embedding OperationHeader.
type Operation interface {
	Kind() OperationKind
	Header() *OperationHeader
}

// OperationHeader carries the fields every operation shares on the wire.
// The IRI is stamped by the store when the operation is logged.
type OperationHeader struct {
	IRI string `json:"iri,omitempty"`
}

// Header returns the shared header.
func (h *OperationHeader) Header() *OperationHeader { return h }

// SchemaCreator is implemented by operations that create a schema resource.
// Only such an operation may be the first one applied to a store.
type SchemaCreator interface {
	Operation
	BaseIRI() string
}

type kindInfo struct {
	tag   string
	name  string
	newOp func() Operation
}

var (
	kindsMu    sync.RWMutex
	kinds      = map[OperationKind]kindInfo{}
	kindsByTag = map[string]OperationKind{}
)

func registerKind(k OperationKind, tag, name string, newOp func() Operation) {
	kinds[k] = kindInfo{tag: tag, name: name, newOp: newOp}
	kindsByTag[tag] = k
}

// RegisterOperationKind adds an operation kind outside the built-in set.
// k must be >= KindFirstCustom and neither k nor tag may be taken.
func RegisterOperationKind(k OperationKind, tag, name string, newOp func() Operation) error {
	if k < KindFirstCustom {
		return fmt.Errorf("operation kind %d is reserved for built-in kinds", k)
	}
	kindsMu.Lock()
	defer kindsMu.Unlock()
	if _, taken := kinds[k]; taken {
		return fmt.Errorf("operation kind %d already registered", k)
	}
	if _, taken := kindsByTag[tag]; taken {
		return fmt.Errorf("operation tag %q already registered", tag)
	}
	registerKind(k, tag, name, newOp)
	return nil
}

// Tag returns the wire tag of the kind, or "" if unknown.
func (k OperationKind) Tag() string {
	kindsMu.RLock()
	defer kindsMu.RUnlock()
	return kinds[k].tag
}

// String returns a short human name like "pim-create-class".
func (k OperationKind) String() string {
	kindsMu.RLock()
	defer kindsMu.RUnlock()
	if info, ok := kinds[k]; ok {
		return info.name
	}
	return fmt.Sprintf("operation-kind(%d)", uint16(k))
}

// KindForTag resolves a wire tag.
func KindForTag(tag string) (OperationKind, bool) {
	kindsMu.RLock()
	defer kindsMu.RUnlock()
	k, ok := kindsByTag[tag]
	return k, ok
}

// KindForName resolves a short human name such as "psm-set-order".
func KindForName(name string) (OperationKind, bool) {
	kindsMu.RLock()
	defer kindsMu.RUnlock()
	for k, info := range kinds {
		if info.name == name {
			return k, true
		}
	}
	return KindInvalid, false
}

// Kinds returns every registered kind in ascending order.
func Kinds() []OperationKind {
	kindsMu.RLock()
	defer kindsMu.RUnlock()
	out := make([]OperationKind, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// NewOperation returns a zero operation of the given kind.
func NewOperation(k OperationKind) (Operation, error) {
	kindsMu.RLock()
	info, ok := kinds[k]
	kindsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown operation kind %d", k)
	}
	return info.newOp(), nil
}

// MarshalOperation writes the wire record of op: its fields plus a types list
// holding the kind tag.
func MarshalOperation(op Operation) ([]byte, error) {
	tag := op.Kind().Tag()
	if tag == "" {
		return nil, fmt.Errorf("marshal operation: unregistered kind %d", op.Kind())
	}

	raw, err := json.Marshal(op)
	if err != nil {
		return nil, fmt.Errorf("marshal operation %s: %w", op.Kind(), err)
	}
	var obj Object
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("marshal operation %s: %w", op.Kind(), err)
	}
	obj[keyTypes] = Strings(tag)
	return MarshalCanonical(obj)
}

// UnmarshalOperation decodes a wire record. The first entry of types that
// names a registered kind selects the concrete operation.
func UnmarshalOperation(data []byte) (Operation, error) {
	var head struct {
		Types []string `json:"types"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode operation: %w", err)
	}

	kind := KindInvalid
	for _, tag := range head.Types {
		if k, ok := KindForTag(tag); ok {
			kind = k
			break
		}
	}
	if kind == KindInvalid {
		return nil, fmt.Errorf("decode operation: no known kind in types %v", head.Types)
	}

	op, err := NewOperation(kind)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, op); err != nil {
		return nil, fmt.Errorf("decode operation %s: %w", kind, err)
	}
	return op, nil
}

// CloneOperation deep-copies op through its wire form.
func CloneOperation(op Operation) (Operation, error) {
	data, err := MarshalOperation(op)
	if err != nil {
		return nil, err
	}
	return UnmarshalOperation(data)
}

// OperationList is an ordered operation log with a wire codec.
type OperationList []Operation

// MarshalJSON implements json.Marshaler.
func (l OperationList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, op := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := MarshalOperation(op)
		if err != nil {
			return nil, fmt.Errorf("operations[%d]: %w", i, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *OperationList) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	out := make(OperationList, len(items))
	for i, item := range items {
		op, err := UnmarshalOperation(item)
		if err != nil {
			return fmt.Errorf("operations[%d]: %w", i, err)
		}
		out[i] = op
	}
	*l = out
	return nil
}
