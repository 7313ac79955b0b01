package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// SourceOp describes a lifecycle transition of one configuration source.
type SourceOp int

const (
	SourceAdded SourceOp = iota
	SourceChanged
	SourceRemoved
)

// SourceEvent reports that a configuration source appeared, re-resolved, or
// disappeared. ID is the source's stable identity (the config file path).
type SourceEvent struct {
	ID string
	Op SourceOp
}

// isHostFile reports whether a path names a per-host configuration file.
func isHostFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// ScanHosts returns the host configuration files under root, sorted by path.
func ScanHosts(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading hosts root %s: %w", root, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !isHostFile(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(root, entry.Name()))
	}

	sort.Strings(paths)
	return paths, nil
}

// Watcher turns a host configuration directory into a dynamic stream of
// source events: one Added per existing file at startup, then Added, Changed,
// and Removed events as files appear, are rewritten, and disappear.
type Watcher struct {
	root   string
	log    *zap.Logger
	events chan SourceEvent
}

// NewWatcher creates a watcher for the given hosts root.
func NewWatcher(root string, log *zap.Logger) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		root:   root,
		log:    log,
		events: make(chan SourceEvent, 16),
	}
}

// Events returns the source event stream. The channel is closed when Run
// returns; consumers treat the close as completion of the outer stream.
func (w *Watcher) Events() <-chan SourceEvent {
	return w.events
}

// Run watches the hosts root until the context is cancelled. The initial
// directory contents are emitted as Added events before any change events.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(w.root); err != nil {
		return fmt.Errorf("watching %s: %w", w.root, err)
	}

	initial, err := ScanHosts(w.root)
	if err != nil {
		return fmt.Errorf("scanning hosts root: %w", err)
	}
	for _, path := range initial {
		if !w.emit(ctx, SourceEvent{ID: path, Op: SourceAdded}) {
			return ctx.Err()
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			se, relevant := translate(ev)
			if !relevant {
				continue
			}
			w.log.Debug("source event", zap.String("path", se.ID), zap.Int("op", int(se.Op)))
			if !w.emit(ctx, se) {
				return ctx.Err()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

// emit delivers an event unless the context ends first.
func (w *Watcher) emit(ctx context.Context, ev SourceEvent) bool {
	select {
	case w.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// translate maps a filesystem event onto a source event.
func translate(ev fsnotify.Event) (SourceEvent, bool) {
	if !isHostFile(ev.Name) {
		return SourceEvent{}, false
	}

	switch {
	case ev.Has(fsnotify.Create):
		return SourceEvent{ID: ev.Name, Op: SourceAdded}, true
	case ev.Has(fsnotify.Write):
		return SourceEvent{ID: ev.Name, Op: SourceChanged}, true
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		return SourceEvent{ID: ev.Name, Op: SourceRemoved}, true
	}
	return SourceEvent{}, false
}
