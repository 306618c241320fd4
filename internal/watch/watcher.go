// Package watch reports edits made to an analyzer's spec directory by other
// programs, so an open editor can reload the sequence.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Event is a settled change to one file.
type Event struct {
	Path string
	Op   string
	Time time.Time
}

// Watcher watches a single directory and emits one Event per file once the
// file has been quiet for the debounce interval.
type Watcher struct {
	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	dir      string
	match    func(path string) bool
	log      *zap.Logger
	debounce time.Duration
	pending  map[string]Event
	events   chan Event
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// Option customizes a Watcher.
type Option func(*Watcher)

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) Option {
	return func(w *Watcher) { w.log = log }
}

// WithDebounce sets how long a file must stay quiet before it is reported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithFilter restricts events to paths for which match returns true.
func WithFilter(match func(path string) bool) Option {
	return func(w *Watcher) { w.match = match }
}

// MatchFiles returns a filter accepting the given base names and any file
// with one of the extensions.
func MatchFiles(names []string, exts []string) func(string) bool {
	return func(path string) bool {
		base := filepath.Base(path)
		for _, n := range names {
			if base == n {
				return true
			}
		}
		ext := filepath.Ext(path)
		for _, e := range exts {
			if ext == e {
				return true
			}
		}
		return false
	}
}

// New creates a watcher for dir. Call Start to begin watching.
func New(dir string, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	w := &Watcher{
		fsw:      fsw,
		dir:      dir,
		match:    func(string) bool { return true },
		log:      zap.NewNop(),
		debounce: 300 * time.Millisecond,
		pending:  make(map[string]Event),
		events:   make(chan Event, 16),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Events delivers settled changes. Events are dropped while the channel is full.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start begins watching. It does not block.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	if err := w.fsw.Add(w.dir); err != nil {
		w.mu.Unlock()
		return fmt.Errorf("watch: add %s: %w", w.dir, err)
	}
	w.running = true
	w.mu.Unlock()

	w.log.Debug("watching", zap.String("dir", w.dir))
	go w.run(ctx)
	return nil
}

// Stop ends watching and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		_ = w.fsw.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	if err := w.fsw.Close(); err != nil {
		w.log.Warn("closing watcher", zap.Error(err))
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := w.debounce / 3
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))
		case <-ticker.C:
			w.flush(time.Now())
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !w.match(ev.Name) {
		return
	}
	var op string
	switch {
	case ev.Op&fsnotify.Create != 0:
		op = "create"
	case ev.Op&fsnotify.Write != 0:
		op = "modify"
	case ev.Op&fsnotify.Remove != 0:
		op = "delete"
	case ev.Op&fsnotify.Rename != 0:
		op = "rename"
	default:
		return
	}
	w.mu.Lock()
	w.pending[ev.Name] = Event{Path: ev.Name, Op: op, Time: time.Now()}
	w.mu.Unlock()
}

// flush emits every pending event that has been quiet since before now
// minus the debounce interval.
func (w *Watcher) flush(now time.Time) {
	w.mu.Lock()
	var ready []Event
	for path, ev := range w.pending {
		if now.Sub(ev.Time) >= w.debounce {
			ready = append(ready, ev)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, ev := range ready {
		select {
		case w.events <- ev:
			w.log.Debug("file changed", zap.String("path", ev.Path), zap.String("op", ev.Op))
		default:
			w.log.Debug("event dropped", zap.String("path", ev.Path))
		}
	}
}
