// Package walker enumerates regular files under a directory tree. The index
// uses it for the initial full scan and the ad-hoc searcher for its
// depth-bounded name pass.
package walker

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"
)

// FileInfo holds metadata about a discovered file.
type FileInfo struct {
	Path    string // absolute
	RelPath string // relative to the walk root, slash-separated
	Size    int64
	ModTime time.Time
}

// Options controls a walk.
type Options struct {
	// MaxDepth bounds recursion below the root; 0 means unbounded.
	MaxDepth int
	// SkipHidden skips directories whose name starts with a dot.
	SkipHidden bool
	// Match filters files by base name; nil accepts everything.
	Match func(name string) bool
}

// Walk traverses the tree rooted at root and sends discovered files on the
// returned channel. Unreadable entries are skipped, not fatal; symlinks are
// never followed. The error channel carries at most one error, for a walk
// that could not run at all.
func Walk(root string, opts Options) (<-chan FileInfo, <-chan error) {
	files := make(chan FileInfo, 64)
	errs := make(chan error, 1)

	go func() {
		defer close(files)
		defer close(errs)

		absRoot, err := filepath.Abs(root)
		if err != nil {
			errs <- err
			return
		}

		err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == absRoot {
					return err
				}
				return nil // skip errors, keep walking
			}

			rel, _ := filepath.Rel(absRoot, path)

			if d.IsDir() {
				if path == absRoot {
					return nil
				}
				if opts.SkipHidden && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				if opts.MaxDepth > 0 && strings.Count(rel, string(filepath.Separator))+1 > opts.MaxDepth {
					return filepath.SkipDir
				}
				return nil
			}

			if d.Type()&fs.ModeSymlink != 0 {
				return nil
			}

			if opts.Match != nil && !opts.Match(d.Name()) {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return nil
			}

			files <- FileInfo{
				Path:    path,
				RelPath: filepath.ToSlash(rel),
				Size:    info.Size(),
				ModTime: info.ModTime(),
			}
			return nil
		})
		if err != nil {
			errs <- err
		}
	}()

	return files, errs
}
