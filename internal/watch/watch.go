// Package watch delivers filesystem change notifications for a watched root
// as a bounded channel of discrete events. The index consumes the channel
// from a single goroutine, which keeps per-root ordering explicit; tests can
// substitute any Source without a real filesystem watcher.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Op is the kind of change a watch event reports.
type Op int

const (
	OpAdd Op = iota
	OpChange
	OpRemove
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpChange:
		return "change"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Event is one file change under a watched root.
type Event struct {
	Op   Op
	Path string
	Time time.Time
}

// Source is anything that produces watch events. The fsnotify watcher is
// the production implementation; tests feed a plain channel.
type Source interface {
	// Events returns the channel the source delivers on. The channel is
	// closed when the source stops.
	Events() <-chan Event
	// Close stops the source and releases its resources.
	Close() error
}

// MaxDepth bounds how far below the root directories are watched.
const MaxDepth = 5

// eventBuffer is the bounded queue size between fsnotify and the consumer.
const eventBuffer = 256

// Watcher is the fsnotify-backed Source. It watches the root and its
// subdirectories down to MaxDepth levels, translating raw notifications
// into Add/Change/Remove events.
type Watcher struct {
	root   string
	fsw    *fsnotify.Watcher
	out    chan Event
	logger *slog.Logger
	cancel context.CancelFunc
}

// New starts watching root. Newly created directories within the depth
// bound are added to the watch set as they appear.
func New(root string, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		root:   filepath.Clean(root),
		fsw:    fsw,
		out:    make(chan Event, eventBuffer),
		logger: logger,
		cancel: cancel,
	}

	if err := w.addRecursive(w.root); err != nil {
		fsw.Close()
		cancel()
		return nil, err
	}

	go w.run(ctx)
	return w, nil
}

func (w *Watcher) Events() <-chan Event { return w.out }

func (w *Watcher) Close() error {
	w.cancel()
	return w.fsw.Close()
}

// addRecursive registers dir and its subdirectories up to MaxDepth below
// the root. Hidden directories are skipped, matching the index walk.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree, keep going
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if w.depth(path) > MaxDepth {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("watch add failed", "path", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) depth(path string) int {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.out)

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.translate(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// translate maps an fsnotify event onto the Add/Change/Remove model.
// Renames surface as a remove of the old name; the new name arrives as its
// own create event.
func (w *Watcher) translate(ev fsnotify.Event) {
	switch {
	case ev.Op.Has(fsnotify.Create):
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if w.depth(ev.Name) <= MaxDepth {
				w.addRecursive(ev.Name)
			}
			return
		}
		w.emit(Event{Op: OpAdd, Path: ev.Name, Time: time.Now()})

	case ev.Op.Has(fsnotify.Write):
		w.emit(Event{Op: OpChange, Path: ev.Name, Time: time.Now()})

	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		w.emit(Event{Op: OpRemove, Path: ev.Name, Time: time.Now()})
	}
}

// emit queues an event, dropping the oldest pending event when the buffer
// is full so the watcher never blocks fsnotify's delivery goroutine.
func (w *Watcher) emit(ev Event) {
	select {
	case w.out <- ev:
	default:
		select {
		case <-w.out:
		default:
		}
		select {
		case w.out <- ev:
		default:
		}
	}
}

// ChanSource wraps a plain channel as a Source for tests and synthetic
// replay.
type ChanSource struct {
	C chan Event
}

// NewChanSource returns a ChanSource with the given buffer size.
func NewChanSource(buffer int) *ChanSource {
	return &ChanSource{C: make(chan Event, buffer)}
}

func (s *ChanSource) Events() <-chan Event { return s.C }

// Close closes the underlying channel.
func (s *ChanSource) Close() error {
	close(s.C)
	return nil
}
