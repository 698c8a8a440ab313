// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for cocreate.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cocreateai/cocreate-chat/internal/util"
)

// ErrKeyNotFound is returned by Backend.Get for keys that were never written.
var ErrKeyNotFound = errors.New("key not found")

// =============================================================================
// BACKEND INTERFACE
// =============================================================================

// Backend is a key/value blob store. Put replaces the whole value.
type Backend interface {
	// Get returns the value stored under key, or ErrKeyNotFound
	Get(key string) ([]byte, error)

	// Put stores data under key, replacing any previous value
	Put(key string, data []byte) error

	// Close releases resources held by the backend
	Close() error
}

// =============================================================================
// MEMORY BACKEND
// =============================================================================

// MemoryBackend keeps values in process memory. Used by tests and by
// ephemeral runs.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string][]byte

	// FailPut makes every Put fail with this error when non-nil
	FailPut error
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string][]byte)}
}

// Get implements Backend.
func (b *MemoryBackend) Get(key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.values[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return bytes.Clone(data), nil
}

// Put implements Backend.
func (b *MemoryBackend) Put(key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailPut != nil {
		return b.FailPut
	}
	b.values[key] = bytes.Clone(data)
	return nil
}

// Close implements Backend.
func (b *MemoryBackend) Close() error { return nil }

// =============================================================================
// FILE BACKEND
// =============================================================================

// FileBackend stores each key as a JSON file in one directory. Writes are
// atomic: readers see either the old or the new document, never a mix.
type FileBackend struct {
	dir string

	mu          sync.Mutex
	lastWritten map[string][]byte
}

// NewFileBackend creates a backend rooted at dir, creating it if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	dir = util.ExpandHome(dir)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileBackend{dir: dir, lastWritten: make(map[string][]byte)}, nil
}

// Dir returns the directory the backend writes to.
func (b *FileBackend) Dir() string {
	return b.dir
}

// Path returns the file used for key.
func (b *FileBackend) Path(key string) string {
	// Keys are dotted identifiers; anything path-like is flattened.
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key)
	return filepath.Join(b.dir, safe+".json")
}

// Get implements Backend.
func (b *FileBackend) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(b.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Put implements Backend.
func (b *FileBackend) Put(key string, data []byte) error {
	if err := util.AtomicWriteFileWithDir(b.Path(key), data, 0600, 0700); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	b.mu.Lock()
	b.lastWritten[key] = bytes.Clone(data)
	b.mu.Unlock()
	return nil
}

// Close implements Backend.
func (b *FileBackend) Close() error { return nil }

// wroteLast reports whether data is exactly what this process last wrote
// for key.
func (b *FileBackend) wroteLast(key string, data []byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	last, ok := b.lastWritten[key]
	return ok && bytes.Equal(last, data)
}
