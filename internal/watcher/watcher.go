// Package watcher provides file system watching with debouncing for the
// source documents.
package watcher

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/prism/internal/document"
)

// Watcher monitors the document files for changes and reports which document
// kinds changed once writes quiesce.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	paths     map[string]document.Kind
	debounce  time.Duration
	onChange  chan []document.Kind
	done      chan struct{}
}

// Config holds watcher configuration options.
type Config struct {
	// Paths maps each watched file path to the document kind it holds.
	Paths       map[string]document.Kind
	DebounceDur time.Duration
}

// DefaultConfig returns sensible defaults for the watcher.
func DefaultConfig(paths map[string]document.Kind) Config {
	return Config{
		Paths:       paths,
		DebounceDur: 250 * time.Millisecond,
	}
}

// New creates a document watcher.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Paths) == 0 {
		return nil, fmt.Errorf("no document paths to watch")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	paths := make(map[string]document.Kind, len(cfg.Paths))
	for path, kind := range cfg.Paths {
		paths[filepath.Clean(path)] = kind
	}

	return &Watcher{
		fsWatcher: fsw,
		paths:     paths,
		debounce:  cfg.DebounceDur,
		onChange:  make(chan []document.Kind, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching the directories containing the document files.
// Returns a channel that receives the changed document kinds after each
// quiet period. Editors replace files rather than writing in place, so the
// watch is on directories, not the files themselves.
func (w *Watcher) Start() (<-chan []document.Kind, error) {
	dirs := make(map[string]struct{})
	for path := range w.paths {
		dirs[filepath.Dir(path)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.fsWatcher.Add(dir); err != nil {
			return nil, fmt.Errorf("watching directory %s: %w", dir, err)
		}
	}

	go w.loop()

	return w.onChange, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

// loop processes file system events, coalescing rapid writes into one
// notification carrying every document kind touched during the burst.
func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		changed = make(map[document.Kind]struct{})
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			kind, relevant := w.relevantKind(event)
			if !relevant {
				continue
			}
			changed[kind] = struct{}{}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			if len(changed) > 0 {
				kinds := make([]document.Kind, 0, len(changed))
				for kind := range changed {
					kinds = append(kinds, kind)
				}
				changed = make(map[document.Kind]struct{})

				// Non-blocking send - drop if channel full
				select {
				case w.onChange <- kinds:
				default:
				}
			}

		case _, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			// Keep watching; callers can wrap the watcher if they need
			// error visibility.

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// relevantKind maps an event to the document kind it touches, if any. Only
// writes and creates count; editors that replace files produce creates.
func (w *Watcher) relevantKind(event fsnotify.Event) (document.Kind, bool) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return "", false
	}
	kind, ok := w.paths[filepath.Clean(event.Name)]
	return kind, ok
}
