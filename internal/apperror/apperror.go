// Package apperror tags errors with the request-level failure class so a
// single handler-side formatter can pick the HTTP status for any error
// raised inside a service.
package apperror

import "errors"

type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindForbidden
	KindInvalidState
	KindValidation
)

type Error struct {
	kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }

func NotFound(msg string) error     { return &Error{kind: KindNotFound, msg: msg} }
func Forbidden(msg string) error    { return &Error{kind: KindForbidden, msg: msg} }
func InvalidState(msg string) error { return &Error{kind: KindInvalidState, msg: msg} }
func Validation(msg string) error   { return &Error{kind: KindValidation, msg: msg} }

// KindOf reports the kind of err, unwrapping as needed. Errors that did not
// originate from this package report KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindUnknown
}
