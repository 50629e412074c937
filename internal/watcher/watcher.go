// Package watcher notifies when the daemon's config.txt changes on disk.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/accctl/internal/logfields"
)

// DefaultDebounce collapses bursts of writes the daemon makes while rewriting its config.
const DefaultDebounce = 500 * time.Millisecond

// ChangeFunc is invoked once per debounced burst of changes.
type ChangeFunc func(ctx context.Context)

// Watcher monitors a single file by watching its parent directory.
type Watcher struct {
	path     string
	onChange ChangeFunc
	debounce time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	fs       *fsnotify.Watcher
	stopChan chan struct{}
	trigger  chan struct{}
	done     sync.WaitGroup
	running  bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a watcher for path. Start must be called to begin watching.
func New(path string, onChange ChangeFunc, opts ...Option) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("watcher: nil change callback")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch path: %w", err)
	}
	w := &Watcher{
		path:     abs,
		onChange: onChange,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Start begins watching. The directory containing the file must exist; the file may not.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	dir := filepath.Dir(w.path)
	if err := fs.Add(dir); err != nil {
		_ = fs.Close()
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	w.fs = fs
	w.stopChan = make(chan struct{})
	w.trigger = make(chan struct{}, 1)
	w.running = true

	w.logger.Info("Watching daemon config", logfields.Path(w.path))

	w.done.Add(2)
	go w.watchLoop(ctx, fs, w.stopChan, w.trigger)
	go w.debounceLoop(ctx, w.stopChan, w.trigger)
	return nil
}

// Stop ends watching and waits for the loops to exit. A callback already running is not interrupted.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopChan)
	if err := w.fs.Close(); err != nil {
		w.logger.Warn("Error closing file watcher", logfields.Error(err))
	}
	w.mu.Unlock()
	w.done.Wait()
}

func (w *Watcher) watchLoop(ctx context.Context, fs *fsnotify.Watcher, stop <-chan struct{}, trigger chan<- struct{}) {
	defer w.done.Done()
	name := filepath.Base(w.path)

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case event, ok := <-fs.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			switch {
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create), event.Has(fsnotify.Rename):
				w.logger.Debug("Daemon config changed", logfields.Path(event.Name), slog.String("op", event.Op.String()))
				select {
				case trigger <- struct{}{}:
				default:
				}
			case event.Has(fsnotify.Remove):
				w.logger.Warn("Daemon config removed", logfields.Path(event.Name))
			}
		case err, ok := <-fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("Config watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) debounceLoop(ctx context.Context, stop <-chan struct{}, trigger <-chan struct{}) {
	defer w.done.Done()
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-stop:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-trigger:
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Stop()
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.onChange(ctx)
		}
	}
}
