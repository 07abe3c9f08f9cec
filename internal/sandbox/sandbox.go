// Package sandbox enforces the filesystem boundary for every disk-touching
// operation. All other components must resolve paths through Guard.Validate
// before reading or writing; a raw prefix check against an unresolved path is
// never sufficient because relative segments and symlinks can escape the root.
package sandbox

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors for the access taxonomy. Callers match with errors.Is.
var (
	// ErrAccessDenied marks a sandbox violation: outside every allowed
	// root, under a blocked root, or a symlink when the policy forbids it.
	ErrAccessDenied = errors.New("access denied")
	// ErrNotFound marks a path that does not exist.
	ErrNotFound = errors.New("path not found")
	// ErrTooLarge marks a regular file above the policy size ceiling.
	ErrTooLarge = errors.New("file too large")
)

// Guard validates paths against an immutable Policy.
type Guard struct {
	allow       []string
	block       []string
	maxFileSize int64
	symlinks    bool
}

// NewGuard builds a Guard from the policy. Allow and block roots are
// canonicalized once here so later comparisons are always between resolved
// absolute paths. Roots that cannot be resolved (e.g. a missing ~/Desktop)
// are kept in absolute form; a nonexistent allowed root simply never matches.
func NewGuard(p Policy) *Guard {
	g := &Guard{
		maxFileSize: p.MaxFileSize,
		symlinks:    p.FollowSymlinks,
	}
	if g.maxFileSize <= 0 {
		g.maxFileSize = DefaultMaxFileSize
	}
	g.allow = canonicalizeRoots(p.Allow)
	g.block = canonicalizeRoots(p.Block)
	return g
}

func canonicalizeRoots(roots []string) []string {
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			continue
		}
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			abs = resolved
		}
		out = append(out, filepath.Clean(abs))
	}
	return out
}

// Validate resolves requested to its canonical absolute form and checks it
// against the policy. It returns the resolved path on success. The check
// order is: existence, symlink policy, block list, allow list, size ceiling.
// The block list is checked before the allow list so a blocked subdirectory
// nested under an allowed root stays unreachable. A missing path reports
// ErrNotFound only when it would fall inside the sandbox; outside it the
// denial wins, so callers cannot tell whether an out-of-bounds path exists.
func (g *Guard) Validate(requested string) (string, error) {
	abs, err := filepath.Abs(requested)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrAccessDenied, requested)
	}

	lst, err := os.Lstat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", g.notFound(abs, requested)
		}
		return "", fmt.Errorf("stat %s: %w", requested, err)
	}

	if lst.Mode()&os.ModeSymlink != 0 && !g.symlinks {
		return "", fmt.Errorf("%w: %s is a symlink", ErrAccessDenied, requested)
	}

	// Canonicalize before any containment comparison. EvalSymlinks also
	// collapses ".." segments, so traversal tricks resolve to their real
	// target before the prefix checks run.
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", g.notFound(abs, requested)
		}
		return "", fmt.Errorf("resolve %s: %w", requested, err)
	}

	for _, b := range g.block {
		if underRoot(resolved, b) {
			return "", fmt.Errorf("%w: %s is in a blocked location", ErrAccessDenied, requested)
		}
	}

	allowed := false
	for _, a := range g.allow {
		if underRoot(resolved, a) {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", fmt.Errorf("%w: %s is outside the sandbox", ErrAccessDenied, requested)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", requested, err)
	}
	if info.Mode().IsRegular() && info.Size() > g.maxFileSize {
		return "", fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrTooLarge, requested, info.Size(), g.maxFileSize)
	}

	return resolved, nil
}

// notFound classifies a missing path. Reporting not-found for a path the
// policy would refuse anyway leaks existence information, so the lexical
// containment check runs first and denial wins. The cleaned absolute path is
// the best available approximation here; the real target cannot be resolved.
func (g *Guard) notFound(abs, requested string) error {
	clean := filepath.Clean(abs)
	for _, b := range g.block {
		if underRoot(clean, b) {
			return fmt.Errorf("%w: %s is in a blocked location", ErrAccessDenied, requested)
		}
	}
	for _, a := range g.allow {
		if underRoot(clean, a) {
			return fmt.Errorf("%w: %s", ErrNotFound, requested)
		}
	}
	return fmt.Errorf("%w: %s is outside the sandbox", ErrAccessDenied, requested)
}

// underRoot reports whether path equals root or sits beneath it. Both inputs
// must already be canonical absolute paths.
func underRoot(path, root string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}
