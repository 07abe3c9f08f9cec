// Package search answers one-off pattern and content queries over arbitrary
// sandboxed locations, without requiring prior indexing. Phase one scores
// filenames; phase two greps content only when the name pass under-fills
// the requested count and a text-like type is in play.
package search

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"burrow/internal/index"
	"burrow/internal/sandbox"
	"burrow/internal/score"
	"burrow/internal/store"
	"burrow/internal/walker"
)

// Phase scoring constants.
const (
	nameHitWeight = 0.6
	stemBonus     = 0.4
	contentHit    = 0.7
	maxDepth      = 5
	defaultLimit  = 10
	maxScanLine   = 256 * 1024
)

// stemExts are document extensions an exact stem match may carry.
var stemExts = map[string]bool{
	"":       true,
	".pdf":   true,
	".doc":   true,
	".docx":  true,
	".txt":   true,
	".md":    true,
	".rtf":   true,
	".pages": true,
}

// Options describes one search request. Locations must be inside the
// sandbox; unreachable ones are skipped with a warning, not a failure.
type Options struct {
	Query     string
	Locations []string
	FileTypes []string
	Limit     int
}

// Searcher runs two-phase searches. The store, when present, provides the
// fast indexed content-match tier; without it content search falls back to
// a line-oriented scan.
type Searcher struct {
	guard     *sandbox.Guard
	store     store.Store
	storeRoot string
	logger    *slog.Logger
}

// New creates a Searcher. st may be nil; storeRoot is the directory the
// store's relative paths are anchored at (the sandbox root).
func New(guard *sandbox.Guard, st store.Store, storeRoot string, logger *slog.Logger) *Searcher {
	if logger == nil {
		logger = slog.Default()
	}
	if storeRoot != "" {
		if abs, err := filepath.Abs(storeRoot); err == nil {
			storeRoot = abs
		}
		if resolved, err := filepath.EvalSymlinks(storeRoot); err == nil {
			storeRoot = resolved
		}
	}
	return &Searcher{guard: guard, store: st, storeRoot: storeRoot, logger: logger}
}

// Search runs the name pass over every resolvable location, then the
// content pass if needed, and returns merged results sorted by descending
// relevance, truncated to the limit.
func (s *Searcher) Search(ctx context.Context, opts Options) ([]score.Result, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	keywords := score.Keywords(opts.Query)

	// Union explicit types with those the query implies.
	types := InferTypes(opts.Query)
	for _, t := range opts.FileTypes {
		types[index.ParseFileType(t)] = true
	}

	byPath := make(map[string]score.Result)
	var textCandidates []string
	var searched []string

	for _, loc := range opts.Locations {
		resolved, err := s.guard.Validate(loc)
		if err != nil {
			s.logger.Warn("search: skipping location", "location", loc, "error", err)
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		searched = append(searched, resolved)
		s.namePass(resolved, keywords, types, byPath, &textCandidates)
	}

	if len(byPath) < limit && anyTextLike(types) {
		s.contentPass(ctx, keywords, textCandidates, searched, byPath)
	}

	results := make([]score.Result, 0, len(byPath))
	for _, r := range byPath {
		results = append(results, r)
	}
	score.SortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// namePass walks one location to maxDepth, scoring filenames: each keyword
// substring hit adds 0.6 and an exact stem match adds 0.4, capped at 1.0.
// Text-whitelisted files are remembered as content-pass candidates.
func (s *Searcher) namePass(root string, keywords []string, types map[index.FileType]bool, byPath map[string]score.Result, textCandidates *[]string) {
	files, errs := walker.Walk(root, walker.Options{MaxDepth: maxDepth, SkipHidden: true})

	for fi := range files {
		name := filepath.Base(fi.Path)
		if index.HasTextSample(name) {
			*textCandidates = append(*textCandidates, fi.Path)
		}

		// When type filters are active, files of other categories are
		// out of scope for the name pass.
		if len(types) > 0 && !types[index.ClassifyExt(name)] {
			continue
		}

		relevance := nameRelevance(name, keywords)
		if relevance <= 0 {
			continue
		}
		keepBest(byPath, score.Result{Path: fi.Path, Relevance: relevance})
	}

	if err := <-errs; err != nil {
		s.logger.Warn("search: walk failed", "location", root, "error", err)
	}
}

// nameRelevance scores one filename against the keywords.
func nameRelevance(name string, keywords []string) float64 {
	lower := strings.ToLower(name)
	ext := filepath.Ext(lower)
	stem := strings.TrimSuffix(lower, ext)

	var relevance float64
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			relevance += nameHitWeight
		}
		if stem == kw && stemExts[ext] {
			relevance += stemBonus
		}
	}
	if relevance > 1.0 {
		relevance = 1.0
	}
	return relevance
}

// contentPass finds files containing the keywords. The FTS-backed store is
// the preferred tier: its hits carry sandbox-relative paths, so they are
// resolved against the store root and filtered to the searched locations.
// Candidate files the store cannot cover (outside its tree, or when the
// fast tier is unavailable) go through the line scanner. Every content hit
// carries a flat 0.7 relevance.
func (s *Searcher) contentPass(ctx context.Context, keywords, candidates, searched []string, byPath map[string]score.Result) {
	storeOK := s.store != nil && s.storeRoot != ""
	if storeOK {
		for _, kw := range keywords {
			if ctx.Err() != nil {
				return
			}
			hits, err := s.store.ContentSearch(kw, defaultLimit)
			if err != nil {
				if !errors.Is(err, store.ErrNoFTS) {
					s.logger.Warn("search: fast content tier failed", "keyword", kw, "error", err)
				}
				storeOK = false
				break
			}
			for _, h := range hits {
				abs := filepath.Join(s.storeRoot, filepath.FromSlash(h.Path))
				if !underAny(abs, searched) {
					continue
				}
				keepBest(byPath, score.Result{Path: abs, Relevance: contentHit, Excerpt: h.Snippet})
			}
		}
	}

	for _, path := range candidates {
		if storeOK && underAny(path, []string{s.storeRoot}) {
			continue // the indexed tier already covers this file
		}
		for _, kw := range keywords {
			if ctx.Err() != nil {
				return
			}
			line, ok := s.scanFile(path, kw)
			if !ok {
				continue
			}
			keepBest(byPath, score.Result{Path: path, Relevance: contentHit, Excerpt: line})
			break
		}
	}
}

// underAny reports whether path equals one of the roots or sits beneath it.
// All inputs are canonical absolute paths.
func underAny(path string, roots []string) bool {
	for _, r := range roots {
		if path == r || strings.HasPrefix(path, r+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// scanFile is the slow tier: a line-oriented, case-insensitive substring
// scan. It returns the first matching line.
func (s *Searcher) scanFile(path, keyword string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		s.logger.Warn("search: cannot read file", "path", path, "error", err)
		return "", false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxScanLine)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(strings.ToLower(line), keyword) {
			return strings.TrimSpace(line), true
		}
	}
	return "", false
}

// keepBest merges a result into the map, keeping the higher relevance and
// preferring a populated excerpt.
func keepBest(byPath map[string]score.Result, r score.Result) {
	existing, ok := byPath[r.Path]
	if !ok {
		byPath[r.Path] = r
		return
	}
	if r.Relevance > existing.Relevance {
		if r.Excerpt == "" {
			r.Excerpt = existing.Excerpt
		}
		byPath[r.Path] = r
		return
	}
	if existing.Excerpt == "" && r.Excerpt != "" {
		existing.Excerpt = r.Excerpt
		byPath[r.Path] = existing
	}
}

func anyTextLike(types map[index.FileType]bool) bool {
	for t := range types {
		if textLike(t) {
			return true
		}
	}
	return false
}
