// Package index owns the authoritative in-memory mapping from file path to
// metadata for the sandbox root. It performs the initial full scan, applies
// filesystem watch events to stay fresh, and answers relevance queries.
package index

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"burrow/internal/embedding"
	"burrow/internal/sandbox"
	"burrow/internal/score"
	"burrow/internal/store"
	"burrow/internal/walker"
	"burrow/internal/watch"
)

// State is the index lifecycle. It only ever moves forward; incremental
// updates apply in place once Ready.
type State int32

const (
	StateUninitialized State = iota
	StateScanning
	StateReady
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// ErrNotReady is returned when a caller refuses to wait for the initial
// scan (context cancelled before readiness).
var ErrNotReady = errors.New("index not ready")

// welcomeText is written into a fresh sandbox root, once, alongside its
// creation. An existing file is never overwritten.
const welcomeText = `# Welcome to your Burrow

This folder is managed by burrow, your sandboxed file assistant.

Drop files here and burrow will keep them indexed and searchable.
Nothing outside the configured sandbox is ever read or modified.
`

// Config holds the index configuration.
type Config struct {
	// Root is the sandbox root directory. Created if absent.
	Root string
	// Guard validates every path before disk access. Required.
	Guard *sandbox.Guard
	// Store, when non-nil, receives a persisted copy of every entry.
	Store store.Store
	// Logger receives skip-and-continue diagnostics.
	Logger *slog.Logger
	// RenameGeneric enables date-prefixing of generically named files
	// (camera rolls, screenshots) on arrival.
	RenameGeneric bool
	// WarmStart serves queries from the store snapshot while the scan
	// reconciles in the background. Long-running consumers want this;
	// one-shot scans do not.
	WarmStart bool
}

// Index is the live file index. All mutation happens on the event-loop
// goroutine or during the initial scan; readers take the lock for the
// duration of one operation, so a query observes each entry either before
// or after an update, never mid-write.
type Index struct {
	root    string
	guard   *sandbox.Guard
	store   store.Store
	logger  *slog.Logger
	rename  bool
	warm    bool
	recents *Recents

	state atomic.Int32
	ready chan struct{}

	mu      sync.RWMutex
	entries map[string]FileMetadata
}

// New prepares an index for the sandbox root: the root directory is created
// if absent and the welcome file is written on first creation only. No
// scanning happens until Start.
func New(cfg Config) (*Index, error) {
	if cfg.Guard == nil {
		return nil, errors.New("index: guard is required")
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create sandbox root: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	readme := filepath.Join(root, "README.md")
	if _, err := os.Stat(readme); os.IsNotExist(err) {
		// Best-effort; a missing welcome file is not fatal.
		os.WriteFile(readme, []byte(welcomeText), 0o644)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Index{
		root:    root,
		guard:   cfg.Guard,
		store:   cfg.Store,
		logger:  logger,
		rename:  cfg.RenameGeneric,
		warm:    cfg.WarmStart,
		recents: NewRecents(),
		ready:   make(chan struct{}),
		entries: make(map[string]FileMetadata),
	}, nil
}

// Root returns the resolved sandbox root.
func (ix *Index) Root() string { return ix.root }

// State returns the current lifecycle state.
func (ix *Index) State() State { return State(ix.state.Load()) }

// Start launches the initial scan and, when src is non-nil, the event loop
// that keeps the index fresh afterwards. Events are applied strictly in
// delivery order by a single goroutine. When the store holds a snapshot from
// a previous run, the index becomes Ready from that snapshot immediately and
// the scan reconciles it in the background.
func (ix *Index) Start(ctx context.Context, src watch.Source) {
	ix.state.Store(int32(StateScanning))

	warm := ix.warm && ix.warmStart()
	if warm {
		ix.state.Store(int32(StateReady))
		close(ix.ready)
	}

	go func() {
		ix.scan()
		if !warm {
			ix.state.Store(int32(StateReady))
			close(ix.ready)
		}

		if src == nil {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-src.Events():
				if !ok {
					return
				}
				ix.handleEvent(ev)
			}
		}
	}()
}

// WaitReady blocks until the initial scan completes or ctx is done.
func (ix *Index) WaitReady(ctx context.Context) error {
	select {
	case <-ix.ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrNotReady, ctx.Err())
	}
}

// warmStart populates the index from the store's snapshot of the previous
// run. It reports whether any entries were loaded.
func (ix *Index) warmStart() bool {
	if ix.store == nil {
		return false
	}
	records, err := ix.store.LoadAll()
	if err != nil {
		ix.logger.Warn("snapshot load failed, cold start", "error", err)
		return false
	}
	if len(records) == 0 {
		return false
	}

	ix.mu.Lock()
	for _, r := range records {
		ix.entries[r.Path] = FileMetadata{
			Path:      r.Path,
			Name:      r.Name,
			Size:      r.Size,
			ModTime:   r.ModTime,
			Type:      ParseFileType(r.FileType),
			Content:   r.Content,
			Summary:   r.Summary,
			Embedding: r.Embedding,
		}
	}
	n := len(ix.entries)
	ix.mu.Unlock()

	ix.logger.Info("warm start from snapshot", "files", n)
	return true
}

// scan walks the whole root and indexes every regular file, then drops any
// warm-started entry whose file no longer exists. Per-file failures are
// logged and skipped; a failed walk leaves the entries as they were (empty
// on a cold start) and skips reconciliation.
func (ix *Index) scan() {
	seen := make(map[string]bool)

	files, errs := walker.Walk(ix.root, walker.Options{SkipHidden: true})
	for fi := range files {
		m, err := ix.indexFile(fi.Path)
		if err != nil {
			ix.logger.Warn("scan: skipping file", "path", fi.Path, "error", err)
			continue
		}
		ix.put(m)
		seen[m.Path] = true
	}
	if err := <-errs; err != nil {
		ix.logger.Error("scan failed", "root", ix.root, "error", err)
		return
	}

	ix.mu.RLock()
	var stale []string
	for path := range ix.entries {
		if !seen[path] {
			stale = append(stale, path)
		}
	}
	ix.mu.RUnlock()
	for _, path := range stale {
		ix.remove(path)
	}
}

// indexFile stats, classifies, samples, and embeds one file. The guard is
// consulted first; an over-ceiling file is still indexed because indexing
// reads at most a 5 KB prefix — the size limit binds direct access, not
// metadata collection.
func (ix *Index) indexFile(absPath string) (FileMetadata, error) {
	resolved, err := ix.guard.Validate(absPath)
	if err != nil {
		if !errors.Is(err, sandbox.ErrTooLarge) {
			return FileMetadata{}, err
		}
		if resolved, err = filepath.Abs(absPath); err != nil {
			return FileMetadata{}, err
		}
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return FileMetadata{}, fmt.Errorf("stat: %w", err)
	}
	if !info.Mode().IsRegular() {
		return FileMetadata{}, fmt.Errorf("not a regular file: %s", resolved)
	}

	rel, err := filepath.Rel(ix.root, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return FileMetadata{}, fmt.Errorf("outside sandbox root: %s", absPath)
	}

	name := filepath.Base(resolved)
	m := FileMetadata{
		Path:    filepath.ToSlash(rel),
		Name:    name,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Type:    ClassifyExt(name),
	}

	if HasTextSample(name) {
		f, err := os.Open(resolved)
		if err != nil {
			ix.logger.Warn("content sample unavailable", "path", m.Path, "error", err)
		} else {
			data, err := io.ReadAll(io.LimitReader(f, maxContentSample))
			f.Close()
			if err != nil {
				ix.logger.Warn("content sample read failed", "path", m.Path, "error", err)
			} else {
				m.Content = string(data)
				m.Summary = Summarize(m.Content)
			}
		}
	}

	seed := m.Name
	if m.Content != "" {
		seed = m.Name + "\n" + m.Content
	}
	m.Embedding = embedding.Vector(seed)

	return m, nil
}

// put stores an entry under its path key and mirrors it to the persistent
// store when one is configured.
func (ix *Index) put(m FileMetadata) {
	ix.mu.Lock()
	ix.entries[m.Path] = m
	ix.mu.Unlock()

	if ix.store != nil {
		err := ix.store.UpsertFile(store.FileRecord{
			Path:      m.Path,
			Name:      m.Name,
			Size:      m.Size,
			ModTime:   m.ModTime,
			FileType:  m.Type.String(),
			Content:   m.Content,
			Summary:   m.Summary,
			Embedding: m.Embedding,
		})
		if err != nil {
			ix.logger.Warn("persist failed", "path", m.Path, "error", err)
		}
	}
}

func (ix *Index) remove(relPath string) {
	ix.mu.Lock()
	delete(ix.entries, relPath)
	ix.mu.Unlock()

	if ix.store != nil {
		if err := ix.store.DeleteFile(relPath); err != nil {
			ix.logger.Warn("persist delete failed", "path", relPath, "error", err)
		}
	}
}

// handleEvent applies one watch event. Re-processing the same add or change
// event is harmless: the path is the map key, so the entry is replaced, not
// duplicated.
func (ix *Index) handleEvent(ev watch.Event) {
	name := filepath.Base(ev.Path)
	if strings.HasPrefix(name, ".") {
		return
	}

	switch ev.Op {
	case watch.OpAdd:
		path := ev.Path
		if ix.rename {
			path = ix.maybeRename(path)
		}
		m, err := ix.indexFile(path)
		if err != nil {
			ix.logger.Warn("add event: skipping", "path", path, "error", err)
			return
		}
		ix.put(m)

	case watch.OpChange:
		m, err := ix.indexFile(ev.Path)
		if err != nil {
			ix.logger.Warn("change event: skipping", "path", ev.Path, "error", err)
			return
		}
		ix.put(m)

	case watch.OpRemove:
		rel, err := filepath.Rel(ix.root, ev.Path)
		if err != nil {
			return
		}
		ix.remove(filepath.ToSlash(rel))
	}
}

// Len returns the number of indexed entries.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Get returns a copy of the entry for relPath.
func (ix *Index) Get(relPath string) (FileMetadata, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	m, ok := ix.entries[relPath]
	return m, ok
}

// Entries returns copies of all entries, unordered. Callers never receive
// handles into the live map.
func (ix *Index) Entries() []FileMetadata {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]FileMetadata, 0, len(ix.entries))
	for _, m := range ix.entries {
		out = append(out, m)
	}
	return out
}

// NoteRecent records a file seen outside the index (a fresh download, say)
// so FindRelevant can surface it with the capped transient score.
func (ix *Index) NoteRecent(path string) {
	resolved, err := ix.guard.Validate(path)
	if err != nil {
		ix.logger.Warn("recent file rejected", "path", path, "error", err)
		return
	}
	ix.recents.Note(resolved)
}

// FindRelevant scores every indexed entry against the query and returns the
// top limit results in descending relevance order. It blocks until the
// initial scan has completed. Recently-seen transient files are merged in
// below any fully-scored indexed entry. A degraded (empty) index yields
// empty results, not an error.
func (ix *Index) FindRelevant(ctx context.Context, query string, limit int) ([]score.Result, error) {
	if err := ix.WaitReady(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	qvec := embedding.Vector(query)

	ix.mu.RLock()
	results := make([]score.Result, 0, len(ix.entries))
	for _, m := range ix.entries {
		s := score.Score(query, m.Name, m.Content, m.ModTime, qvec, m.Embedding)
		if s <= 0 {
			continue
		}
		results = append(results, score.Result{
			Path:      m.Path,
			Relevance: s,
			Summary:   m.Summary,
		})
	}
	ix.mu.RUnlock()

	for _, r := range ix.recents.Snapshot() {
		s := score.ScoreTransient(query, filepath.Base(r.Path), r.Seen)
		if s <= 0 {
			continue
		}
		results = append(results, score.Result{Path: r.Path, Relevance: s})
	}

	score.SortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
