// Package store persists the file index in SQLite: a snapshot of every
// entry for warm starts, an FTS5 table backing the fast content-match tier,
// and a vec0 table holding embeddings. The in-memory index never depends on
// the store being present; everything here is an acceleration layer.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

// ErrNoFTS is returned by ContentSearch when the sqlite build lacks the
// fts5 module. Callers fall back to their slow content path.
var ErrNoFTS = errors.New("full-text index unavailable")

// Store provides persistence and indexed lookups for file entries.
type Store interface {
	// UpsertFile inserts or replaces the record for its path.
	UpsertFile(f FileRecord) error
	// DeleteFile removes the record for path, if present.
	DeleteFile(path string) error
	// LoadAll returns every persisted record, embeddings included.
	LoadAll() ([]FileRecord, error)
	// ContentSearch finds files whose name or content matches the term
	// via FTS5. This is the fast tier of content matching; it returns
	// ErrNoFTS when the sqlite build lacks the fts5 module.
	ContentSearch(term string, limit int) ([]ContentHit, error)
	// Nearest returns the files closest to the query embedding.
	Nearest(embedding []float64, k int) ([]Neighbor, error)
	// GetMeta returns a metadata value by key, or "" if not set.
	GetMeta(key string) (string, error)
	// SetMeta sets a metadata key-value pair.
	SetMeta(key, value string) error
	// Close closes the underlying database.
	Close() error
}

// SQLiteStore implements Store backed by SQLite + FTS5 + sqlite-vec.
type SQLiteStore struct {
	db  *sql.DB
	fts bool
}

// Open creates or opens the database at dbPath and initializes the schema.
// The full-text tier is optional: when the sqlite build lacks the fts5
// module the store still opens, and FTSEnabled reports false.
func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := Init(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := initFTS(db); err == nil {
		s.fts = true
	}
	return s, nil
}

// FTSEnabled reports whether the fast content tier is available.
func (s *SQLiteStore) FTSEnabled() bool { return s.fts }

func (s *SQLiteStore) UpsertFile(f FileRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var existingID int64
	err = tx.QueryRow("SELECT id FROM files WHERE path = ?", f.Path).Scan(&existingID)
	switch {
	case err == nil:
		if _, err := tx.Exec("DELETE FROM vec_files WHERE file_id = ?", existingID); err != nil {
			return err
		}
		_, err = tx.Exec(
			"UPDATE files SET name = ?, size = ?, mod_time = ?, file_type = ?, content = ?, summary = ? WHERE id = ?",
			f.Name, f.Size, f.ModTime.Unix(), f.FileType, f.Content, f.Summary, existingID,
		)
		if err != nil {
			return err
		}
	case err == sql.ErrNoRows:
		res, err := tx.Exec(
			"INSERT INTO files (path, name, size, mod_time, file_type, content, summary) VALUES (?, ?, ?, ?, ?, ?, ?)",
			f.Path, f.Name, f.Size, f.ModTime.Unix(), f.FileType, f.Content, f.Summary,
		)
		if err != nil {
			return err
		}
		if existingID, err = res.LastInsertId(); err != nil {
			return err
		}
	default:
		return err
	}

	if len(f.Embedding) > 0 {
		blob, err := sqlite_vec.SerializeFloat32(toFloat32(f.Embedding))
		if err != nil {
			return fmt.Errorf("serialize embedding for %s: %w", f.Path, err)
		}
		if _, err := tx.Exec("INSERT INTO vec_files (file_id, embedding) VALUES (?, ?)", existingID, blob); err != nil {
			return fmt.Errorf("insert embedding for %s: %w", f.Path, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) DeleteFile(path string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRow("SELECT id FROM files WHERE path = ?", path).Scan(&id)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM vec_files WHERE file_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM files WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadAll() ([]FileRecord, error) {
	rows, err := s.db.Query(`
		SELECT f.id, f.path, f.name, f.size, f.mod_time, f.file_type, f.content, f.summary, v.embedding
		FROM files f
		LEFT JOIN vec_files v ON v.file_id = f.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []FileRecord
	for rows.Next() {
		var r FileRecord
		var modUnix int64
		var blob []byte
		if err := rows.Scan(&r.ID, &r.Path, &r.Name, &r.Size, &modUnix, &r.FileType, &r.Content, &r.Summary, &blob); err != nil {
			return nil, err
		}
		r.ModTime = unixTime(modUnix)
		if len(blob) > 0 {
			r.Embedding = fromBlob(blob)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) ContentSearch(term string, limit int) ([]ContentHit, error) {
	if !s.fts {
		return nil, ErrNoFTS
	}
	// Quote the term so FTS5 treats it as a plain token, not query syntax.
	quoted := `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
	rows, err := s.db.Query(`
		SELECT f.path, f.name, snippet(files_fts, 2, '', '', '…', 12)
		FROM files_fts
		JOIN files f ON f.id = files_fts.rowid
		WHERE files_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, quoted, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []ContentHit
	for rows.Next() {
		var h ContentHit
		if err := rows.Scan(&h.Path, &h.Name, &h.Snippet); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func (s *SQLiteStore) Nearest(embedding []float64, k int) ([]Neighbor, error) {
	blob, err := sqlite_vec.SerializeFloat32(toFloat32(embedding))
	if err != nil {
		return nil, fmt.Errorf("serialize query embedding: %w", err)
	}
	// vec0 KNN queries take their result count via the k constraint; a
	// parameterized LIMIT is rejected.
	rows, err := s.db.Query(`
		SELECT f.path, v.distance
		FROM vec_files v
		JOIN files f ON f.id = v.file_id
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance
	`, blob, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var neighbors []Neighbor
	for rows.Next() {
		var n Neighbor
		if err := rows.Scan(&n.Path, &n.Distance); err != nil {
			return nil, err
		}
		neighbors = append(neighbors, n)
	}
	return neighbors, rows.Err()
}

func (s *SQLiteStore) GetMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (s *SQLiteStore) SetMeta(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

// fromBlob decodes the raw little-endian float32 blob vec0 stores.
func fromBlob(blob []byte) []float64 {
	n := len(blob) / 4
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		bits := uint32(blob[i*4]) | uint32(blob[i*4+1])<<8 | uint32(blob[i*4+2])<<16 | uint32(blob[i*4+3])<<24
		out = append(out, float64(math.Float32frombits(bits)))
	}
	return out
}

func unixTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}
