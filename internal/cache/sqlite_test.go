package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	s, err := NewSQLiteStore(dbPath, time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, dbPath
}

func TestSQLiteStorePutGet(t *testing.T) {
	s, _ := newTestSQLiteStore(t)

	require.NoError(t, s.Put(NamespaceGeneration, "k1", []byte("files")))

	got, ok := s.Get(NamespaceGeneration, "k1")
	require.True(t, ok)
	assert.Equal(t, []byte("files"), got)

	_, ok = s.Get(NamespaceGeneration, "absent")
	assert.False(t, ok)
}

func TestSQLiteStoreNamespaceIsolation(t *testing.T) {
	s, _ := newTestSQLiteStore(t)

	require.NoError(t, s.Put(NamespaceAnalysis, "k", []byte("a")))
	require.NoError(t, s.Put(NamespaceGeneration, "k", []byte("g")))

	a, ok := s.Get(NamespaceAnalysis, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("a"), a)

	g, ok := s.Get(NamespaceGeneration, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("g"), g)
}

func TestSQLiteStoreTTLExpiry(t *testing.T) {
	s, _ := newTestSQLiteStore(t)

	base := time.Now()
	s.now = func() time.Time { return base }
	require.NoError(t, s.Put(NamespaceAnalysis, "k", []byte("v")))

	s.now = func() time.Time { return base.Add(2 * time.Hour) }
	_, ok := s.Get(NamespaceAnalysis, "k")
	assert.False(t, ok)
}

func TestSQLiteStoreSweepOnPut(t *testing.T) {
	s, _ := newTestSQLiteStore(t)

	base := time.Now()
	s.now = func() time.Time { return base }
	require.NoError(t, s.Put(NamespaceAnalysis, "old", []byte("v")))

	s.now = func() time.Time { return base.Add(2 * time.Hour) }
	require.NoError(t, s.Put(NamespaceAnalysis, "fresh", []byte("v")))

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.AnalysisEntries)
}

func TestSQLiteStoreStats(t *testing.T) {
	s, _ := newTestSQLiteStore(t)

	require.NoError(t, s.Put(NamespaceAnalysis, "k1", []byte("v")))
	require.NoError(t, s.Put(NamespaceGeneration, "k2", []byte("v")))
	s.Get(NamespaceAnalysis, "k1")
	s.Get(NamespaceAnalysis, "nope")

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.AnalysisEntries)
	assert.Equal(t, int64(1), stats.GenerationEntries)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestSQLiteStoreClear(t *testing.T) {
	s, _ := newTestSQLiteStore(t)

	require.NoError(t, s.Put(NamespaceAnalysis, "k", []byte("v")))
	require.NoError(t, s.Clear())

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Total)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")

	s1, err := NewSQLiteStore(dbPath, time.Hour)
	require.NoError(t, err)
	require.NoError(t, s1.Put(NamespaceGeneration, "k", []byte("persisted")))
	require.NoError(t, s1.Close())

	s2, err := NewSQLiteStore(dbPath, time.Hour)
	require.NoError(t, err)
	defer s2.Close()

	got, ok := s2.Get(NamespaceGeneration, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("persisted"), got)
}
