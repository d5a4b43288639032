package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content digests. The version suffix allows the
// algorithm to change without colliding with stored digests.
const (
	DomainResource  = "specstore/resource/v1"
	DomainOperation = "specstore/operation/v1"
	DomainSnapshot  = "specstore/snapshot/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data) as lowercase hex.
// The null byte keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ResourceDigest returns the content digest of a resource version.
func ResourceDigest(r *Resource) (string, error) {
	data, err := MarshalCanonical(r.ToObject())
	if err != nil {
		return "", fmt.Errorf("ResourceDigest: %w", err)
	}
	return hashWithDomain(DomainResource, data), nil
}

// OperationDigest returns the content digest of an operation record.
func OperationDigest(op Operation) (string, error) {
	data, err := MarshalOperation(op)
	if err != nil {
		return "", fmt.Errorf("OperationDigest: %w", err)
	}
	return hashWithDomain(DomainOperation, data), nil
}

// SnapshotDigest returns the digest of a canonical snapshot encoding.
func SnapshotDigest(canonical []byte) string {
	return hashWithDomain(DomainSnapshot, canonical)
}

// MustResourceDigest is like ResourceDigest but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustResourceDigest(r *Resource) string {
	d, err := ResourceDigest(r)
	if err != nil {
		panic(err)
	}
	return d
}
