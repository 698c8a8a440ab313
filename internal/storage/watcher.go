// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for cocreate.
package storage

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce coalesces the burst of events an atomic rename produces.
const DefaultWatchDebounce = 200 * time.Millisecond

// =============================================================================
// FILE WATCHER
// =============================================================================

// Watcher reports rewrites of a FileBackend key made by other processes.
type Watcher struct {
	backend  *FileBackend
	key      string
	path     string
	onChange func()
	logger   *log.Logger

	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu      sync.Mutex
	pending time.Time

	ctx    context.Context
	cancel context.CancelFunc
	done   sync.WaitGroup
}

// Watch starts watching key. onChange runs on the watcher goroutine after
// the file settles, and only when its content differs from this process's
// last write. The directory is watched rather than the file because atomic
// writes replace the inode.
func (b *FileBackend) Watch(key string, debounce time.Duration, logger *log.Logger, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(b.dir); err != nil {
		fsw.Close()
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	if logger == nil {
		logger = log.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		backend:  b,
		key:      key,
		path:     filepath.Clean(b.Path(key)),
		onChange: onChange,
		logger:   logger,
		watcher:  fsw,
		debounce: debounce,
		ctx:      ctx,
		cancel:   cancel,
	}

	w.done.Add(2)
	go w.processEvents()
	go w.processPending()
	return w, nil
}

// Close stops the watcher and waits for its goroutines.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.watcher.Close()
	w.done.Wait()
	return err
}

func (w *Watcher) processEvents() {
	defer w.done.Done()
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("watcher panic", "panic", r)
		}
	}()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.mu.Lock()
				w.pending = time.Now()
				w.mu.Unlock()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}

// processPending fires onChange once events for the file stop arriving.
func (w *Watcher) processPending() {
	defer w.done.Done()

	tick := w.debounce / 4
	if tick <= 0 {
		tick = time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case now := <-ticker.C:
			w.mu.Lock()
			ready := !w.pending.IsZero() && now.Sub(w.pending) >= w.debounce
			if ready {
				w.pending = time.Time{}
			}
			w.mu.Unlock()

			if ready {
				w.fire()
			}
		}
	}
}

func (w *Watcher) fire() {
	data, err := w.backend.Get(w.key)
	if err != nil {
		w.logger.Debug("changed file not readable", "key", w.key, "err", err)
		return
	}
	if w.backend.wroteLast(w.key, data) {
		return
	}
	w.logger.Info("conversations changed on disk", "path", w.path)
	if w.onChange != nil {
		w.onChange()
	}
}
