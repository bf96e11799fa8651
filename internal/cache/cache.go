// Package cache provides the result cache for analysis and generation calls.
// Entries live in one of two independent namespaces and expire after a TTL.
// Stores are explicitly constructed and closed; there is no process-wide
// singleton.
package cache

import "time"

// DefaultTTL is how long entries stay valid unless configured otherwise.
const DefaultTTL = 24 * time.Hour

// Namespace separates the analysis and generation key spaces.
type Namespace string

const (
	NamespaceAnalysis   Namespace = "analysis"
	NamespaceGeneration Namespace = "generation"
)

// Stats reports cache occupancy and performance.
type Stats struct {
	AnalysisEntries   int64 `json:"analysis_entries"`
	GenerationEntries int64 `json:"generation_entries"`
	Total             int64 `json:"total"`
	Hits              int64 `json:"hits"`
	Misses            int64 `json:"misses"`
}

// Store is a TTL'd key-value store keyed by request fingerprint. Values are
// serialized JSON; callers own the encoding. Implementations must treat
// internal failures as misses on Get (fail-open) and report them from Put.
type Store interface {
	// Get returns the stored value, or ok=false if absent or expired.
	Get(ns Namespace, key string) (value []byte, ok bool)

	// Put stores value with the current time. As a side effect it sweeps
	// expired entries from all namespaces (lazy eviction; writes only).
	Put(ns Namespace, key string, value []byte) error

	// Stats returns occupancy and hit/miss counters.
	Stats() (Stats, error)

	// Clear removes all entries from both namespaces.
	Clear() error

	// Close releases any resources held by the store.
	Close() error
}
