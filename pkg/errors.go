// Package pkg holds utilities shared across the service.
// This file defines the domain-level errors.
//
// Errors are compared by identity, never by message:
//
//	if errors.Is(err, pkg.ErrNotFound) { ... }
package pkg

import (
	"errors"
	"fmt"
)

// Domain-level errors.
// Services return them (usually wrapped with %w); handlers map them to
// HTTP status codes.
var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrAlreadyExists   = errors.New("already exists")
	ErrBadRequest      = errors.New("bad request")
	ErrConflict        = errors.New("conflict")
	ErrCanceled        = errors.New("canceled")
	ErrTooManyRequests = errors.New("too many requests")
	ErrInternal        = errors.New("internal error")
)

// Notice is an error that carries a user-facing message key.
//
// Kind is one of the sentinels above and decides the HTTP status. Key is an
// i18n key such as "recommend.selectCrop"; the transport layer translates it
// into the session's language. Cause is optional and only logged.
//
//	return pkg.NewNotice(pkg.ErrBadRequest, "recommend.selectCrop")
type Notice struct {
	Kind  error
	Key   string
	Cause error
}

// NewNotice builds a Notice without a cause.
func NewNotice(kind error, key string) *Notice {
	return &Notice{Kind: kind, Key: key}
}

// WrapNotice builds a Notice that keeps cause in the chain.
func WrapNotice(kind error, key string, cause error) *Notice {
	return &Notice{Kind: kind, Key: key, Cause: cause}
}

func (n *Notice) Error() string {
	if n.Cause != nil {
		return fmt.Sprintf("%v: %s: %v", n.Kind, n.Key, n.Cause)
	}
	return fmt.Sprintf("%v: %s", n.Kind, n.Key)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (n *Notice) Unwrap() []error {
	if n.Cause != nil {
		return []error{n.Kind, n.Cause}
	}
	return []error{n.Kind}
}

// NoticeKey returns the message key carried anywhere in err's chain.
func NoticeKey(err error) (string, bool) {
	var n *Notice
	if errors.As(err, &n) {
		return n.Key, true
	}
	return "", false
}
