package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies domain errors so callers can branch without string matching
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindInvalidCategory
	KindProtected
	KindConflict
	KindUnauthorized
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation error"
	case KindNotFound:
		return "not found"
	case KindInvalidCategory:
		return "invalid category"
	case KindProtected:
		return "protected resource"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	}
	return "internal error"
}

// Error is a domain error with a kind and a message safe to show to the caller
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Retryable reports whether the whole operation may be attempted again
func (e *Error) Retryable() bool { return e.Kind == KindConflict }

var (
	ErrValidation      = &Error{Kind: KindValidation, Message: KindValidation.String()}
	ErrNotFound        = &Error{Kind: KindNotFound, Message: KindNotFound.String()}
	ErrInvalidCategory = &Error{Kind: KindInvalidCategory, Message: "Invalid category"}
	ErrProtected       = &Error{Kind: KindProtected, Message: KindProtected.String()}
	ErrConflict        = &Error{Kind: KindConflict, Message: KindConflict.String()}
	ErrUnauthorized    = &Error{Kind: KindUnauthorized, Message: KindUnauthorized.String()}
)

// NewError builds a domain error of the given kind
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds a domain error of the given kind around a cause
func WrapError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
