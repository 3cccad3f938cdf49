package config

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces the burst of events editors emit for one save.
const debounceDelay = 100 * time.Millisecond

// Watcher reloads a config file whenever it or one of its includes changes
// on disk and hands each valid result to a callback. Invalid files are
// logged and ignored so the last good config stays in effect.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	onChange func(*LoadResult)
	logger   *slog.Logger
	done     chan struct{}
	stopped  chan struct{}
	mu       sync.Mutex
	running  bool

	// Owned by the watch goroutine after Start.
	files   map[string]struct{}
	dirs    map[string]struct{}
	rootDir string
}

// NewWatcher creates a watcher for path. It does nothing until Start.
func NewWatcher(path string, onChange func(*LoadResult), logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{
		watcher:  fw,
		path:     path,
		onChange: onChange,
		logger:   logger,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		files:    make(map[string]struct{}),
		dirs:     make(map[string]struct{}),
	}, nil
}

// Start begins watching. Parent directories are watched rather than the
// files so editors that replace a file by rename are still seen. Included
// files are tracked from the current load and refreshed on every reload.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	root, err := filepath.Abs(w.path)
	if err != nil {
		return err
	}
	w.rootDir = filepath.Dir(root)
	if err := w.watcher.Add(w.rootDir); err != nil {
		return err
	}
	w.dirs[w.rootDir] = struct{}{}
	w.files[root] = struct{}{}
	if res, err := LoadFromPath(w.path); err == nil {
		w.track(res.Files)
	}
	w.running = true
	go w.watch()
	return nil
}

func (w *Watcher) watch() {
	defer close(w.stopped)

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceDelay)
			} else {
				timer.Reset(debounceDelay)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (w *Watcher) reload() {
	res, err := LoadFromPath(w.path)
	if err != nil {
		w.logger.Warn("ignoring invalid config change", "path", w.path, "error", err)
		return
	}
	w.track(res.Files)
	w.logger.Info("config reloaded", "path", w.path, "files", len(res.Files))
	if w.onChange != nil {
		w.onChange(res)
	}
}

// track adds files, and the directories holding them, to the watch set.
func (w *Watcher) track(files []string) {
	for _, f := range files {
		f = filepath.Clean(f)
		w.files[f] = struct{}{}
		dir := filepath.Dir(f)
		if _, ok := w.dirs[dir]; ok {
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			w.logger.Warn("failed to watch include directory", "path", dir, "error", err)
			continue
		}
		w.dirs[dir] = struct{}{}
	}
}

// relevant reports whether event touches a loaded file, or adds or removes
// a YAML file in a directory that holds includes.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return false
	}
	name := filepath.Clean(event.Name)
	if _, ok := w.files[name]; ok {
		return true
	}
	if canon, err := canonicalPath(name); err == nil {
		if _, ok := w.files[canon]; ok {
			return true
		}
	}
	dir := filepath.Dir(name)
	if dir == w.rootDir || event.Has(fsnotify.Write) {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// Stop ends watching and waits for the watch goroutine to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return w.watcher.Close()
	}
	w.running = false
	close(w.done)
	w.mu.Unlock()

	<-w.stopped
	return w.watcher.Close()
}
