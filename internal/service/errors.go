package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service error for the calling layer.
type Kind int

const (
	// KindNotFound means a referenced group, member, or expense does not
	// exist. Never retried.
	KindNotFound Kind = iota + 1
	// KindInvalidInput means the payload failed validation before any
	// write happened. Never retried.
	KindInvalidInput
	// KindPersistence means the store rejected a write. The enclosing
	// transaction has been rolled back.
	KindPersistence
)

// Error is a structured service error with a kind and a human-readable
// reason (e.g., which member ID was not found).
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFoundf builds a KindNotFound error.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// InvalidInputf builds a KindInvalidInput error.
func InvalidInputf(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// PersistenceError wraps a storage failure.
func PersistenceError(message string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: message, Err: err}
}

// KindOf extracts the Kind from an error chain, or 0 if it is not a
// service error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
