package ir

import (
	"errors"
	"fmt"
)

// Failure is a domain-level refusal of an operation. It is returned inside an
// ExecutorResult (and surfaced on change descriptors) rather than as a Go
// error; the store is left untouched when an operation fails.
type Failure struct {
	// Code identifies the failure category.
	Code FailureCode `json:"code"`

	// Message is a human-readable description.
	Message string `json:"message"`

	// IRI names the offending resource when there is one.
	IRI string `json:"iri,omitempty"`
}

// FailureCode categorizes operation failures.
type FailureCode string

const (
	// FailMissingResource indicates a referenced IRI does not resolve.
	FailMissingResource FailureCode = "MISSING_RESOURCE"

	// FailInvalidType indicates a referenced resource has the wrong type.
	FailInvalidType FailureCode = "INVALID_TYPE"

	// FailInvalidShape indicates the operation itself is malformed.
	FailInvalidShape FailureCode = "INVALID_OPERATION_SHAPE"

	// FailPreconditionFailed indicates the model state forbids the operation.
	FailPreconditionFailed FailureCode = "PRECONDITION_FAILED"

	// FailSchemaNotFound indicates no store owns the target schema.
	FailSchemaNotFound FailureCode = "SCHEMA_NOT_FOUND"
)

// Error implements the error interface.
func (f *Failure) Error() string {
	if f.IRI != "" {
		return fmt.Sprintf("%s: %s (iri=%s)", f.Code, f.Message, f.IRI)
	}
	return fmt.Sprintf("%s: %s", f.Code, f.Message)
}

// NewMissingResource reports an IRI that does not resolve.
func NewMissingResource(iri string) *Failure {
	return &Failure{Code: FailMissingResource, Message: "resource does not exist", IRI: iri}
}

// NewInvalidType reports a resource lacking the expected type tag.
func NewInvalidType(iri, expected string) *Failure {
	return &Failure{
		Code:    FailInvalidType,
		Message: fmt.Sprintf("resource is not of type %s", expected),
		IRI:     iri,
	}
}

// NewInvalidShape reports a malformed operation.
func NewInvalidShape(format string, args ...any) *Failure {
	return &Failure{Code: FailInvalidShape, Message: fmt.Sprintf(format, args...)}
}

// NewPreconditionFailed reports an operation the current state forbids.
func NewPreconditionFailed(iri, format string, args ...any) *Failure {
	return &Failure{
		Code:    FailPreconditionFailed,
		Message: fmt.Sprintf(format, args...),
		IRI:     iri,
	}
}

// NewSchemaNotFound reports a schema no store owns.
func NewSchemaNotFound(iri string) *Failure {
	return &Failure{Code: FailSchemaNotFound, Message: "no store owns the schema", IRI: iri}
}

func hasCode(err error, code FailureCode) bool {
	var f *Failure
	if errors.As(err, &f) {
		return f.Code == code
	}
	return false
}

// IsMissingResource reports whether err is a missing-resource failure.
func IsMissingResource(err error) bool { return hasCode(err, FailMissingResource) }

// IsInvalidType reports whether err is an invalid-type failure.
func IsInvalidType(err error) bool { return hasCode(err, FailInvalidType) }

// IsInvalidShape reports whether err is an invalid-shape failure.
func IsInvalidShape(err error) bool { return hasCode(err, FailInvalidShape) }

// IsPreconditionFailed reports whether err is a precondition failure.
func IsPreconditionFailed(err error) bool { return hasCode(err, FailPreconditionFailed) }

// IsSchemaNotFound reports whether err is a schema-not-found failure.
func IsSchemaNotFound(err error) bool { return hasCode(err, FailSchemaNotFound) }
