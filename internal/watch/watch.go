// Package watch turns filesystem activity into debounced callbacks.
// It backs the drop-folder mode of the formship CLI: files written into a
// directory are handed off for upload once they have been quiet for the
// debounce delay, and edits to the config file trigger a reload.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/formship/pkg/log"
)

// DefaultDebounce is used when Config.Debounce is not positive.
const DefaultDebounce = 100 * time.Millisecond

// Config holds configuration options for a Watcher.
type Config struct {
	// Dir is the directory whose files are reported. Optional.
	Dir string

	// ConfigPath is a file whose changes are reported. Optional.
	ConfigPath string

	// Debounce is how long a path must stay quiet before it is reported.
	// Default: 100 milliseconds
	Debounce time.Duration
}

// Handlers receive debounced notifications. Nil handlers are skipped.
type Handlers struct {
	// File is called with the path of a file created or written in Dir.
	File func(path string)

	// Config is called after ConfigPath was written or replaced.
	Config func()
}

// Watcher monitors a directory and a config file.
type Watcher struct {
	cfg      Config
	handlers Handlers
	logger   log.Logger

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
	wg      sync.WaitGroup
}

// New creates a Watcher. It does nothing until Run is called.
func New(cfg Config, handlers Handlers, logger log.Logger) (*Watcher, error) {
	if cfg.Dir == "" && cfg.ConfigPath == "" {
		return nil, errors.New("watch: nothing to watch")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Dir != "" {
		cfg.Dir = filepath.Clean(cfg.Dir)
	}
	if cfg.ConfigPath != "" {
		cfg.ConfigPath = filepath.Clean(cfg.ConfigPath)
	}
	return &Watcher{
		cfg:      cfg,
		handlers: handlers,
		logger:   log.OrNoop(logger).With(log.String("component", "watch")),
		timers:   make(map[string]*time.Timer),
	}, nil
}

// Run watches until ctx is cancelled. Pending notifications are dropped and
// handlers already running are waited for before Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	dirs := map[string]bool{}
	if w.cfg.Dir != "" {
		dirs[w.cfg.Dir] = true
	}
	if w.cfg.ConfigPath != "" {
		// Editors replace files on save, so the parent is watched.
		dirs[filepath.Dir(w.cfg.ConfigPath)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	w.logger.Info("watching",
		log.String("dir", w.cfg.Dir),
		log.String("config", w.cfg.ConfigPath),
		log.Duration("debounce", w.cfg.Debounce))

	defer w.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", log.Err(err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	name := filepath.Clean(event.Name)

	if name == w.cfg.ConfigPath {
		if w.handlers.Config != nil {
			w.debounce(name, w.handlers.Config)
		}
		return
	}

	if w.cfg.Dir == "" || filepath.Dir(name) != w.cfg.Dir || w.handlers.File == nil {
		return
	}
	if strings.HasPrefix(filepath.Base(name), ".") {
		return
	}
	if info, err := os.Stat(name); err != nil || !info.Mode().IsRegular() {
		return
	}
	w.debounce(name, func() { w.handlers.File(name) })
}

func (w *Watcher) debounce(key string, fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if t, ok := w.timers[key]; ok {
		t.Stop()
	}

	var t *time.Timer
	t = time.AfterFunc(w.cfg.Debounce, func() {
		w.mu.Lock()
		if w.stopped || w.timers[key] != t {
			w.mu.Unlock()
			return
		}
		delete(w.timers, key)
		w.wg.Add(1)
		w.mu.Unlock()

		defer w.wg.Done()
		fn()
	})
	w.timers[key] = t
}

func (w *Watcher) stop() {
	w.mu.Lock()
	w.stopped = true
	for key, t := range w.timers {
		t.Stop()
		delete(w.timers, key)
	}
	w.mu.Unlock()
	w.wg.Wait()
}
