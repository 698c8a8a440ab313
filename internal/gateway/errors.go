// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway provides the HTTP client for the CoCreateAI chat backend.
package gateway

import (
	"context"
	"errors"
	"fmt"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeUnavailable
	ErrTypeTimeout
	ErrTypeConnection
	ErrTypeServer
	ErrTypeInvalidRequest
	ErrTypeInvalidResponse
)

// String returns a short name for the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeUnavailable:
		return "unavailable"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeConnection:
		return "connection"
	case ErrTypeServer:
		return "server"
	case ErrTypeInvalidRequest:
		return "invalid_request"
	case ErrTypeInvalidResponse:
		return "invalid_response"
	default:
		return "unknown"
	}
}

// ClientError represents an error from the backend client.
type ClientError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Cause      error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel errors by type, so errors.Is(err, ErrTimeout)
// holds for every timeout regardless of message.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	return ok && isSentinel(t) && t.Type == e.Type
}

// Sentinel errors for easy checking.
var (
	ErrUnavailable = &ClientError{Type: ErrTypeUnavailable, Message: "backend is not reachable"}
	ErrTimeout     = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrServer      = &ClientError{Type: ErrTypeServer, Message: "backend returned an error"}

	ErrInvalidResponse = &ClientError{Type: ErrTypeInvalidResponse, Message: "backend reply has no response text"}
)

func isSentinel(err *ClientError) bool {
	return err == ErrUnavailable || err == ErrTimeout || err == ErrServer || err == ErrInvalidResponse
}

// transportError converts an http.Client error into a ClientError.
func transportError(err error) *ClientError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ClientError{Type: ErrTypeTimeout, Message: ErrTimeout.Message, Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return &ClientError{Type: ErrTypeConnection, Message: "request canceled", Cause: err}
	}
	return &ClientError{Type: ErrTypeUnavailable, Message: ErrUnavailable.Message, Cause: err}
}

// statusError builds the error for a non-2xx response.
func statusError(op string, status int, statusText, detail string) *ClientError {
	msg := fmt.Sprintf("%s failed: %s", op, statusText)
	if detail != "" {
		msg = fmt.Sprintf("%s failed: %s", op, detail)
	}
	typ := ErrTypeServer
	if status >= 400 && status < 500 {
		typ = ErrTypeInvalidRequest
	}
	return &ClientError{Type: typ, Message: msg, StatusCode: status}
}
