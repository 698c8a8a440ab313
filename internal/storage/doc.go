// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for cocreate.
//
// All conversations and the current selection are kept as one State and
// written as a single JSON document under StateKey after every mutation.
// Where the document lives is decided by a Backend.
//
// # Key Types
//
//   - Store: Thread-safe owner of the state; persists on every mutation
//   - State: Immutable snapshot with pure transitions
//   - Backend: Key/value blob store (MemoryBackend, FileBackend, SQLiteBackend)
//   - Watcher: Reports rewrites of a FileBackend key by another process
//
// # Usage
//
// Open the configured backend and create a store:
//
//	backend, err := storage.OpenBackend(cfg)
//	store := storage.NewStore(backend, logger)
//
// Create a conversation and add a message:
//
//	id, err := store.CreateConversation()
//	err = store.AddMessage(id, model.NewUserMessage("hello", nil))
//
// Switch conversations:
//
//	msgs, ok := store.SelectConversation(otherID)
//
// # Storage Location
//
// The file driver writes ~/.cocreate/data/cocreate.conversations.json; the
// sqlite driver uses ~/.cocreate/cocreate.db.
package storage
