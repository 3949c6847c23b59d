// Package watch watches the env file the pre-shared secret and API key
// were loaded from for writes with fsnotify, and calls a reload
// callback on each one without a process restart. What the reload
// changes is up to the callback.
//
// No file in the retrieval pack exercises fsnotify directly (only its
// presence in a handful of unrelated go.mod manifests); this package
// follows fsnotify's standard published API (NewWatcher, Add, the
// buffered Events/Errors channels) rather than any in-pack usage
// example — see DESIGN.md.
package watch

import (
	"github.com/fsnotify/fsnotify"
)

// Reloader is called with the env file's path whenever it changes.
// Implementations are expected to re-parse and swap in new values;
// watch.go itself performs no parsing.
type Reloader func(path string)

// Watcher wraps an fsnotify.Watcher scoped to a single config file.
type Watcher struct {
	fw *fsnotify.Watcher
}

// New starts watching path and invokes onChange on every write or
// rename event fsnotify reports for it. The watcher runs its dispatch
// loop on its own goroutine; per spec.md §5 this is one of the two
// permitted non-loop goroutines, communicating only by calling
// onChange, never by mutating scheduler state directly.
func New(path string, onChange Reloader) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{fw: fw}
	go w.loop(path, onChange)
	return w, nil
}

func (w *Watcher) loop(path string, onChange Reloader) {
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Rename|fsnotify.Create) != 0 {
				onChange(path)
			}
		case _, ok := <-w.fw.Errors:
			if !ok {
				return
			}
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fw.Close()
}
