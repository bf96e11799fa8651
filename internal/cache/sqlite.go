package cache

import (
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a persistent cache store backed by SQLite. It implements
// the same contract as MemoryStore and survives process restarts.
type SQLiteStore struct {
	db     *sql.DB
	ttl    time.Duration
	hits   atomic.Int64
	misses atomic.Int64

	now func() time.Time
}

const createCacheTable = `
CREATE TABLE IF NOT EXISTS cache_entries (
	namespace TEXT NOT NULL,
	key TEXT NOT NULL,
	value BLOB NOT NULL,
	created_at INTEGER NOT NULL,
	PRIMARY KEY (namespace, key)
);
`

// NewSQLiteStore opens (or creates) a SQLite-backed store at dbPath.
// A non-positive ttl falls back to DefaultTTL.
func NewSQLiteStore(dbPath string, ttl time.Duration) (*SQLiteStore, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	if _, err := db.Exec(createCacheTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	return &SQLiteStore{db: db, ttl: ttl, now: time.Now}, nil
}

// Get retrieves a cached value. Any database error counts as a miss.
func (s *SQLiteStore) Get(ns Namespace, key string) ([]byte, bool) {
	var value []byte
	var createdAtMillis int64

	err := s.db.QueryRow(
		`SELECT value, created_at FROM cache_entries WHERE namespace = ? AND key = ?`,
		string(ns), key,
	).Scan(&value, &createdAtMillis)

	if err != nil {
		s.misses.Add(1)
		return nil, false
	}

	createdAt := time.UnixMilli(createdAtMillis)
	if s.now().Sub(createdAt) > s.ttl {
		s.misses.Add(1)
		return nil, false
	}

	s.hits.Add(1)
	return value, true
}

// Put stores a value and sweeps expired rows from all namespaces.
func (s *SQLiteStore) Put(ns Namespace, key string, value []byte) error {
	now := s.now()
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO cache_entries (namespace, key, value, created_at) VALUES (?, ?, ?, ?)`,
		string(ns), key, value, now.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}

	cutoff := now.Add(-s.ttl).UnixMilli()
	if _, err := s.db.Exec(`DELETE FROM cache_entries WHERE created_at < ?`, cutoff); err != nil {
		return fmt.Errorf("cache sweep: %w", err)
	}
	return nil
}

// Stats returns occupancy and hit/miss counters.
func (s *SQLiteStore) Stats() (Stats, error) {
	stats := Stats{
		Hits:   s.hits.Load(),
		Misses: s.misses.Load(),
	}

	rows, err := s.db.Query(`SELECT namespace, COUNT(*) FROM cache_entries GROUP BY namespace`)
	if err != nil {
		return Stats{}, fmt.Errorf("cache stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ns string
		var count int64
		if err := rows.Scan(&ns, &count); err != nil {
			return Stats{}, fmt.Errorf("cache stats: %w", err)
		}
		switch Namespace(ns) {
		case NamespaceAnalysis:
			stats.AnalysisEntries = count
		case NamespaceGeneration:
			stats.GenerationEntries = count
		}
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("cache stats: %w", err)
	}

	stats.Total = stats.AnalysisEntries + stats.GenerationEntries
	return stats, nil
}

// Clear removes all entries.
func (s *SQLiteStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM cache_entries`); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
