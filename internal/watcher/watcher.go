// Package watcher finds combat log files that have finished being written.
//
// The game appends to its log for the whole session. A file is handed out
// only after it has gone a settle period without a write, and only once per
// burst of writes. A checkpointed file is handed out again when its size no
// longer matches the checkpoint.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/ccollicutt/combatlog/pkg/config"
)

// Watcher watches one directory for settled log files.
type Watcher struct {
	dir        string
	pattern    string
	settle     time.Duration
	interval   time.Duration
	checkpoint *Checkpoint
	logger     *slog.Logger
	now        func() time.Time

	ready chan string

	mu      sync.Mutex
	pending map[string]time.Time
	emitted map[string]bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithPattern sets the doublestar pattern matched against file names.
func WithPattern(pattern string) Option {
	return func(w *Watcher) {
		w.pattern = pattern
	}
}

// WithSettle sets how long a file must go without writes.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		w.settle = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// New creates a Watcher for dir. Files recorded in cp are skipped while
// their size is unchanged.
// A nil cp is an empty checkpoint that is never saved.
func New(dir string, cp *Checkpoint, opts ...Option) (*Watcher, error) {
	if cp == nil {
		cp = &Checkpoint{data: checkpointData{Files: make(map[string]Entry)}}
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch directory %s is not a directory", abs)
	}

	w := &Watcher{
		dir:        abs,
		pattern:    config.DefaultWatchPattern,
		settle:     config.DefaultWatchSettle,
		checkpoint: cp,
		logger:     slog.Default(),
		now:        time.Now,
		ready:      make(chan string),
		pending:    make(map[string]time.Time),
		emitted:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}

	if !doublestar.ValidatePattern(w.pattern) {
		return nil, fmt.Errorf("invalid watch pattern %q", w.pattern)
	}

	w.interval = min(max(w.settle/4, 10*time.Millisecond), time.Second)
	return w, nil
}

// Dir returns the absolute watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Ready delivers the paths of settled files. It is closed when Run returns.
func (w *Watcher) Ready() <-chan string {
	return w.ready
}

// Run watches until ctx is cancelled. It may only be called once.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.ready)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	if err := w.scan(); err != nil {
		return err
	}

	w.logger.Info("watching", "dir", w.dir, "pattern", w.pattern, "settle", w.settle)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		case <-ticker.C:
			for _, path := range w.due() {
				select {
				case w.ready <- path:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}
}

// scan schedules the matching files already in the directory, dated by
// their modification time.
func (w *Watcher) scan() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", w.dir, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, e := range entries {
		if !e.Type().IsRegular() || !w.matches(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		w.pending[filepath.Join(w.dir, e.Name())] = info.ModTime()
	}
	return nil
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !w.matches(filepath.Base(ev.Name)) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case ev.Has(fsnotify.Write), ev.Has(fsnotify.Create):
		w.pending[ev.Name] = w.now()
		delete(w.emitted, ev.Name)
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		delete(w.pending, ev.Name)
		delete(w.emitted, ev.Name)
	}
}

// due removes and returns the settled files that should be imported.
func (w *Watcher) due() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	var out []string
	for path, last := range w.pending {
		if now.Sub(last) < w.settle {
			continue
		}
		delete(w.pending, path)

		if w.emitted[path] {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		// A file whose size changed since its import is emitted again.
		if entry, ok := w.checkpoint.Get(path); ok && entry.Size == info.Size() {
			w.logger.Debug("already imported", "path", path, "log", entry.LogUUID)
			continue
		}

		w.emitted[path] = true
		out = append(out, path)
	}

	sort.Strings(out)
	return out
}

func (w *Watcher) matches(name string) bool {
	ok, err := doublestar.Match(w.pattern, name)
	return err == nil && ok
}
