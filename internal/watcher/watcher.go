// Package watcher triggers index rebuilds when corpus files change on disk.
package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 2 * time.Second

// RebuildFunc re-ingests the corpus and swaps the live index. It must be
// safe to call repeatedly; the watcher never runs two rebuilds at once.
type RebuildFunc func(ctx context.Context) error

// Watcher observes a corpus directory and invokes a rebuild after file
// changes settle. Rapid bursts of writes collapse into a single rebuild.
type Watcher struct {
	dir      string
	debounce time.Duration
	rebuild  RebuildFunc
	logger   *slog.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	timer   *time.Timer
	started bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the settle interval between the last file event
// and the rebuild.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher over dir. rebuild is invoked after events settle.
func New(dir string, rebuild RebuildFunc, logger *slog.Logger, opts ...Option) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{
		dir:      dir,
		debounce: DefaultDebounce,
		rebuild:  rebuild,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. It returns immediately; events are processed in a
// background goroutine until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.dir); err != nil {
		_ = fsw.Close()
		return err
	}
	w.fsw = fsw
	w.started = true
	w.logger.Info("watcher_started",
		slog.String("dir", w.dir),
		slog.Duration("debounce", w.debounce))
	go w.run(ctx, fsw)
	return nil
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Warn("watcher_error", slog.String("error", err.Error()))
			}
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event) {
	if !relevant(ev) {
		return
	}
	w.logger.Debug("watcher_event",
		slog.String("op", ev.Op.String()),
		slog.String("path", ev.Name))
	w.scheduleRebuild(ctx)
}

// relevant filters events down to content changes of corpus documents.
// Editors and the indexer itself create temp files we must ignore.
func relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Base(ev.Name)
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".tmp") {
		return false
	}
	return strings.EqualFold(filepath.Ext(name), ".txt")
}

func (w *Watcher) scheduleRebuild(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.runRebuild(ctx)
	})
}

// runRebuild serializes rebuilds; the mutex is held for the duration so a
// second timer firing mid-rebuild waits instead of overlapping.
func (w *Watcher) runRebuild(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := w.rebuild(ctx); err != nil {
		w.logger.Error("rebuild_failed", slog.String("error", err.Error()))
		return
	}
	w.logger.Info("rebuild_completed", slog.Duration("elapsed", time.Since(start)))
}

// Stop cancels any pending rebuild and releases the underlying watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	_ = w.fsw.Close()
	w.fsw = nil
	w.started = false
}
