package services

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure
type Kind int

const (
	KindUpstream Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindValidation
	KindInvalidState
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindInvalidState:
		return "invalid_state"
	default:
		return "upstream_failure"
	}
}

// Error is a service failure carrying its kind and a caller-facing message
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

// KindOf returns the kind of err. Errors not produced by this package are upstream failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUpstream
}

// MessageOf returns the caller-facing message for err
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Kind == KindUpstream && e.Err != nil {
			return e.Err.Error()
		}
		return e.Message
	}
	return err.Error()
}

func unauthenticated() error {
	return &Error{Kind: KindUnauthenticated, Message: "Unauthorized"}
}

func forbidden() error {
	return &Error{Kind: KindForbidden, Message: "Forbidden"}
}

func notFound(message string, err error) error {
	return &Error{Kind: KindNotFound, Message: message, Err: err}
}

func invalid(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

func invalidState(message string, err error) error {
	return &Error{Kind: KindInvalidState, Message: message, Err: err}
}

func upstream(message string, err error) error {
	return &Error{Kind: KindUpstream, Message: message, Err: err}
}
