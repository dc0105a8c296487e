package index

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	// reloadChannelBuffer is the size of the reload event channel.
	reloadChannelBuffer = 16

	// DefaultDebounceDelay is used when no debounce delay is configured.
	DefaultDebounceDelay = 500 * time.Millisecond
)

// ReloadEvent reports a definition reload triggered by file changes.
type ReloadEvent struct {
	// Paths are the changed files, relative to the definition folder.
	Paths []string

	// Err is the reload error, if any. The previous definitions stay active
	// when it is set.
	Err error
}

// Watcher reloads a service's definitions when files in its folder change.
// Changes are collected for one debounce period before a reload.
type Watcher struct {
	service  *Service
	debounce time.Duration
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	events        chan ReloadEvent
	droppedEvents atomic.Int64
}

// NewWatcher creates a watcher for service's definition folder.
func NewWatcher(service *Service, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = DefaultDebounceDelay
	}

	return &Watcher{
		service:  service,
		debounce: debounce,
		watcher:  fsw,
		logger:   logger,
		pending:  make(map[string]fsnotify.Op),
		events:   make(chan ReloadEvent, reloadChannelBuffer),
	}, nil
}

// Events returns the channel of reload events. It is closed when the
// watcher stops.
func (w *Watcher) Events() <-chan ReloadEvent {
	return w.events
}

// Start begins watching the definition folder.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addWatchesRecursive(w.service.Folder()); err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.logger.Info("Definition watcher started",
		"folder", w.service.Folder(),
		"debounce", w.debounce)
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// DroppedEvents returns the number of reload events dropped due to channel
// overflow.
func (w *Watcher) DroppedEvents() int64 {
	return w.droppedEvents.Load()
}

func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}

		base := filepath.Base(path)
		if strings.HasPrefix(base, ".") && path != root {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory",
				"path", path,
				"error", err)
		}
		return nil
	})
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending()
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addWatchesRecursive(path); err != nil {
				w.logger.Warn("Failed to watch new directory",
					"path", path,
					"error", err)
			}
			w.addPending(path, event.Op)
			return
		}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		w.addPending(path, event.Op)
	}
}

func (w *Watcher) addPending(path string, op fsnotify.Op) {
	w.pendingMu.Lock()
	w.pending[path] = op
	w.pendingMu.Unlock()

	w.logger.Debug("Definition change detected",
		"path", path,
		"op", op.String())
}

func (w *Watcher) flushPending() {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		rel, err := filepath.Rel(w.service.Folder(), path)
		if err != nil {
			rel = path
		}
		paths = append(paths, rel)
	}
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	sort.Strings(paths)
	err := w.service.Reload()
	if err != nil {
		w.logger.Error("Failed to reload definitions",
			"paths", paths,
			"error", err)
	}
	w.sendEvent(ReloadEvent{Paths: paths, Err: err})
}

func (w *Watcher) sendEvent(event ReloadEvent) {
	select {
	case w.events <- event:
	default:
		dropped := w.droppedEvents.Add(1)
		w.logger.Warn("Reload channel full, dropping event",
			"paths", event.Paths,
			"total_dropped", dropped)
	}
}
