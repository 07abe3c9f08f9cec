package index

import (
	"sync"
	"time"
)

// transientTTL is how long a recently-seen file stays eligible for merged
// results. Matches the largest recency window the transient scorer uses.
const transientTTL = 24 * time.Hour

// Recent is a file observed outside the index with the time it was seen.
type Recent struct {
	Path string
	Seen time.Time
}

// Recents tracks recently-seen files that are not index entries, such as
// fresh downloads in a watched-but-unindexed location.
type Recents struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

// NewRecents returns an empty tracker.
func NewRecents() *Recents {
	return &Recents{seen: make(map[string]time.Time)}
}

// Note records path as seen now. Re-noting refreshes the timestamp.
func (r *Recents) Note(path string) {
	r.NoteAt(path, time.Now())
}

// NoteAt records path as seen at t.
func (r *Recents) NoteAt(path string, t time.Time) {
	r.mu.Lock()
	r.seen[path] = t
	r.mu.Unlock()
}

// Snapshot prunes expired entries and returns a copy of the rest.
func (r *Recents) Snapshot() []Recent {
	cutoff := time.Now().Add(-transientTTL)

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Recent, 0, len(r.seen))
	for path, seen := range r.seen {
		if seen.Before(cutoff) {
			delete(r.seen, path)
			continue
		}
		out = append(out, Recent{Path: path, Seen: seen})
	}
	return out
}
