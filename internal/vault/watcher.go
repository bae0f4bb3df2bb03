// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package vault

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// VAULT WATCHER
// =============================================================================

// EventKind distinguishes watcher events.
type EventKind int

const (
	// EventModified means a note was written or created.
	EventModified EventKind = iota
	// EventRemoved means a note was deleted or renamed away.
	EventRemoved
)

// Event is a debounced change notification for one note.
type Event struct {
	DocID string
	Kind  EventKind
}

// Watcher emits change events for the vault's notes. Rapid bursts of
// writes to the same file (editors save in several steps) are
// coalesced by a debounce window.
type Watcher struct {
	vault    *Vault
	watcher  *fsnotify.Watcher
	debounce time.Duration
	events   chan Event

	mu      sync.Mutex
	pending map[string]time.Time // doc id -> last change time

	ctx    context.Context
	cancel context.CancelFunc
}

// Watch starts watching the vault tree for note changes.
func (v *Vault) Watch(debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		vault:    v,
		watcher:  fsw,
		debounce: debounce,
		events:   make(chan Event, 16),
		pending:  make(map[string]time.Time),
		ctx:      ctx,
		cancel:   cancel,
	}

	if err := w.addRecursive(v.root); err != nil {
		fsw.Close()
		cancel()
		return nil, err
	}

	go w.processEvents()
	go w.processPending()

	return w, nil
}

// Events returns the channel change notifications arrive on. Delivery
// stops after Close; the channel itself stays open so concurrent
// emitters never race a close.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	w.cancel()
	return w.watcher.Close()
}

// addRecursive adds a directory and all its subdirectories to the
// watch list. Hidden directories are skipped like List skips them.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip errors
		}
		if !info.IsDir() {
			return nil
		}
		if path != w.vault.root && strings.HasPrefix(filepath.Base(path), ".") {
			return filepath.SkipDir
		}
		// Non-fatal: an unwatchable subdirectory should not kill the
		// whole watcher.
		_ = w.watcher.Add(path)
		return nil
	})
}

// processEvents turns raw fsnotify events into pending note changes.
func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if isNotePath(event.Name) {
					w.markPending(event.Name)
				}
				// New directories need to be watched too.
				if event.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = w.addRecursive(event.Name)
					}
				}
			}

			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 && isNotePath(event.Name) {
				w.emit(Event{DocID: w.vault.idFor(event.Name), Kind: EventRemoved})
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal; keep going.
		}
	}
}

// markPending records a change; it is emitted once the debounce
// window passes without further writes.
func (w *Watcher) markPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[w.vault.idFor(path)] = time.Now()
}

// processPending flushes debounced changes.
func (w *Watcher) processPending() {
	interval := w.debounce / 2
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			now := time.Now()

			w.mu.Lock()
			var ready []string
			for docID, changed := range w.pending {
				if now.Sub(changed) >= w.debounce {
					ready = append(ready, docID)
					delete(w.pending, docID)
				}
			}
			w.mu.Unlock()

			for _, docID := range ready {
				w.emit(Event{DocID: docID, Kind: EventModified})
			}
		}
	}
}

// emit delivers an event unless the watcher is shutting down. A full
// channel drops the event; consumers reconcile via List anyway.
func (w *Watcher) emit(e Event) {
	select {
	case w.events <- e:
	case <-w.ctx.Done():
	default:
	}
}

func isNotePath(path string) bool {
	base := filepath.Base(path)
	return strings.EqualFold(filepath.Ext(base), ".md") && !strings.HasPrefix(base, ".")
}
