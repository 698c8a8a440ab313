// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the live chat session for the active conversation.
//
// The session state is a plain value changed only by Reduce, a pure function
// of (State, Event). Session wraps that core with a mutex, the backend call
// and the observers. A send cycle moves Idle -> Sending -> Idle and always
// appends exactly two messages: the user's message and one bot message, which
// is the backend reply, the offline notice, or the error notice.
//
// # Key Types
//
//   - State: Message list plus loading, availability and knowledge-base flags
//   - Event: Transitions applied by Reduce
//   - Session: Concurrency-safe owner of a State that talks to a Gateway
//   - Gateway: The backend operations the session depends on
//
// # Usage
//
//	sess := chat.NewSession(ctx, client, chat.Options{
//	    OnMessageSent: func(m model.Message) { store.AddMessage(convID, m) },
//	    OnError:       func(err error) { logger.Error("send failed", "err", err) },
//	})
//	<-sess.ProbeDone()
//	err := sess.SendMessage(ctx, "How is @[Atlas](project:1) going?")
package chat
