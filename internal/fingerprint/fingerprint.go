// Package fingerprint derives deterministic cache keys from request content.
// Two logically identical inputs that differ only in object key order produce
// the same fingerprint: inputs are canonicalized to key-sorted JSON before
// hashing.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash/fnv"
)

// Hasher turns canonical bytes into a fingerprint string. The default FNV
// hasher is cheap and fits a single-user local cache; SHA-256 is available
// for deployments that care about collisions. This is not a security
// boundary either way.
type Hasher interface {
	Sum(data []byte) string
}

// FNVHasher hashes with 64-bit FNV-1a.
type FNVHasher struct{}

func (FNVHasher) Sum(data []byte) string {
	h := fnv.New64a()
	h.Write(data)
	return fmt.Sprintf("%016x", h.Sum64())
}

// SHA256Hasher hashes with SHA-256.
type SHA256Hasher struct{}

func (SHA256Hasher) Sum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Default returns the default hasher.
func Default() Hasher {
	return FNVHasher{}
}

// Canonical serializes a JSON-serializable value with object keys sorted at
// every level, so field order in the input never affects the output.
func Canonical(v any) ([]byte, error) {
	// Round-trip through an untyped value: encoding/json emits map keys in
	// sorted order, which gives us canonical form for free.
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal fingerprint input: %w", err)
	}
	var untyped any
	if err := json.Unmarshal(raw, &untyped); err != nil {
		return nil, fmt.Errorf("canonicalize fingerprint input: %w", err)
	}
	canonical, err := json.Marshal(untyped)
	if err != nil {
		return nil, fmt.Errorf("re-marshal fingerprint input: %w", err)
	}
	return canonical, nil
}

// Fingerprint computes the cache key for a value with the given hasher.
func Fingerprint(h Hasher, v any) (string, error) {
	canonical, err := Canonical(v)
	if err != nil {
		return "", err
	}
	return h.Sum(canonical), nil
}
