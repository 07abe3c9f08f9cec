package store

import (
	"path/filepath"
	"testing"
	"time"

	"burrow/internal/embedding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// requireFTS skips tests of the fast content tier when the sqlite build
// lacks the fts5 module (enabled with -tags sqlite_fts5).
func requireFTS(t *testing.T, s *SQLiteStore) {
	t.Helper()
	if !s.FTSEnabled() {
		t.Skip("sqlite built without fts5")
	}
}

func record(path, name, content string) FileRecord {
	return FileRecord{
		Path:      path,
		Name:      name,
		Size:      int64(len(content)),
		ModTime:   time.Unix(1756300000, 0),
		FileType:  "text",
		Content:   content,
		Summary:   content,
		Embedding: embedding.Vector(name + "\n" + content),
	}
}

func TestUpsertAndLoadAll(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.UpsertFile(record("notes.txt", "notes.txt", "the budget figures")))
	require.NoError(t, s.UpsertFile(record("sub/plan.md", "plan.md", "quarterly plan")))

	records, err := s.LoadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	byPath := make(map[string]FileRecord)
	for _, r := range records {
		byPath[r.Path] = r
	}

	got := byPath["notes.txt"]
	assert.Equal(t, "notes.txt", got.Name)
	assert.Equal(t, "the budget figures", got.Content)
	assert.Equal(t, "text", got.FileType)
	assert.Equal(t, int64(1756300000), got.ModTime.Unix())
	require.Len(t, got.Embedding, embedding.Dim)

	// The round-tripped embedding survives the float32 blob encoding.
	want := embedding.Vector("notes.txt\nthe budget figures")
	for i := range want {
		assert.InDelta(t, want[i], got.Embedding[i], 1e-6)
	}
}

func TestUpsertReplacesExisting(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.UpsertFile(record("notes.txt", "notes.txt", "old body")))
	require.NoError(t, s.UpsertFile(record("notes.txt", "notes.txt", "new body")))

	records, err := s.LoadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "new body", records[0].Content)
}

func TestDeleteFile(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.UpsertFile(record("gone.txt", "gone.txt", "ephemeral")))
	require.NoError(t, s.DeleteFile("gone.txt"))

	records, err := s.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, records)

	// Deleting a missing path is a no-op.
	assert.NoError(t, s.DeleteFile("never-existed.txt"))
}

func TestContentSearch(t *testing.T) {
	s := openTestStore(t)
	requireFTS(t, s)

	require.NoError(t, s.UpsertFile(record("notes.txt", "notes.txt", "the budget figures for q3")))
	require.NoError(t, s.UpsertFile(record("recipe.md", "recipe.md", "flour and water")))

	hits, err := s.ContentSearch("budget", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "notes.txt", hits[0].Path)
	assert.Contains(t, hits[0].Snippet, "budget")

	hits, err = s.ContentSearch("nonexistent", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestContentSearchMatchesName(t *testing.T) {
	s := openTestStore(t)
	requireFTS(t, s)

	require.NoError(t, s.UpsertFile(record("budget.txt", "budget.txt", "numbers only")))

	hits, err := s.ContentSearch("budget", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "budget.txt", hits[0].Path)
}

func TestContentSearchEscapesQuerySyntax(t *testing.T) {
	s := openTestStore(t)
	requireFTS(t, s)
	require.NoError(t, s.UpsertFile(record("a.txt", "a.txt", "plain text")))

	// FTS5 operators in the term must not produce a syntax error.
	_, err := s.ContentSearch(`NEAR("x)`, 10)
	assert.NoError(t, err)
}

func TestContentSearchReflectsUpdates(t *testing.T) {
	s := openTestStore(t)
	requireFTS(t, s)

	require.NoError(t, s.UpsertFile(record("doc.txt", "doc.txt", "alpha content")))
	require.NoError(t, s.UpsertFile(record("doc.txt", "doc.txt", "bravo content")))

	hits, err := s.ContentSearch("alpha", 10)
	require.NoError(t, err)
	assert.Empty(t, hits, "stale text must leave the full-text index on update")

	hits, err = s.ContentSearch("bravo", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestContentSearchWithoutFTS(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.UpsertFile(record("a.txt", "a.txt", "plain text")))

	s.fts = false
	_, err := s.ContentSearch("plain", 10)
	assert.ErrorIs(t, err, ErrNoFTS)
}

func TestNearest(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.UpsertFile(record("a.txt", "a.txt", "alpha")))
	require.NoError(t, s.UpsertFile(record("b.txt", "b.txt", "bravo")))
	require.NoError(t, s.UpsertFile(record("c.txt", "c.txt", "charlie")))

	query := embedding.Vector("a.txt\nalpha")
	neighbors, err := s.Nearest(query, 2)
	require.NoError(t, err)
	require.Len(t, neighbors, 2)

	// The identical vector is its own nearest neighbor at distance ~0.
	assert.Equal(t, "a.txt", neighbors[0].Path)
	assert.InDelta(t, 0, neighbors[0].Distance, 1e-5)
	assert.LessOrEqual(t, neighbors[0].Distance, neighbors[1].Distance)
}

func TestMetaRoundTrip(t *testing.T) {
	s := openTestStore(t)

	v, err := s.GetMeta("schema_version")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.SetMeta("schema_version", "1"))
	require.NoError(t, s.SetMeta("schema_version", "2"))

	v, err = s.GetMeta("schema_version")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}
