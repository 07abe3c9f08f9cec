package store

import "time"

// FileRecord is one persisted index entry.
type FileRecord struct {
	ID        int64
	Path      string
	Name      string
	Size      int64
	ModTime   time.Time
	FileType  string
	Content   string
	Summary   string
	Embedding []float64
}

// ContentHit is a file matched by the full-text tier, with the snippet
// around the match.
type ContentHit struct {
	Path    string
	Name    string
	Snippet string
}

// Neighbor is a file ranked by embedding distance.
type Neighbor struct {
	Path     string
	Distance float64
}
