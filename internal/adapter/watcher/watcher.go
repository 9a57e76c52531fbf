// Package watcher reports changed token dumps under a workspace.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("phptdd.watcher")

type Op int

const (
	OpChanged Op = iota
	OpRemoved
)

func (o Op) String() string {
	if o == OpRemoved {
		return "removed"
	}
	return "changed"
}

type Event struct {
	Path string
	Op   Op
}

// Filter decides which files are reported.
type Filter func(path string) bool

// Watcher watches a directory tree recursively.
type Watcher struct {
	root    string
	filter  Filter
	watcher *fsnotify.Watcher
}

func New(root string, filter Filter) (*Watcher, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &fs.PathError{Op: "watch", Path: root, Err: fs.ErrInvalid}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if filter == nil {
		filter = func(string) bool { return true }
	}
	return &Watcher{root: root, filter: filter, watcher: w}, nil
}

// Start begins watching. The returned channel is closed when ctx is done or
// the underlying watcher fails.
func (w *Watcher) Start(ctx context.Context) (<-chan Event, error) {
	if err := w.addRecursive(w.root); err != nil {
		return nil, err
	}

	events := make(chan Event)
	go w.loop(ctx, events)
	return events, nil
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && d.Name()[0] == '.' {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func (w *Watcher) loop(ctx context.Context, events chan<- Event) {
	defer close(events)

	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warningf("watch error: %s", err)
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			out, emit := w.translate(ev)
			if !emit {
				continue
			}
			select {
			case events <- out:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (w *Watcher) translate(ev fsnotify.Event) (Event, bool) {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(ev.Name); err != nil {
				log.Warningf("failed to watch %s: %s", ev.Name, err)
			}
			return Event{}, false
		}
	}

	if !w.filter(ev.Name) {
		return Event{}, false
	}

	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		log.Debugf("removed %s", ev.Name)
		return Event{Path: ev.Name, Op: OpRemoved}, true
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		log.Debugf("changed %s", ev.Name)
		return Event{Path: ev.Name, Op: OpChanged}, true
	default:
		return Event{}, false
	}
}
