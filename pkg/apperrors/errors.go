// Package apperrors defines the error kinds the service reports to clients.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmptyCart  = errors.New("cart is empty")
	ErrValidation = errors.New("validation failed")
	ErrStorage    = errors.New("storage failure")
)

// Error carries a client-facing message and one of the kinds above.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

func EmptyCart() error {
	return &Error{Kind: ErrEmptyCart, Msg: "Cart is empty"}
}

// Storage wraps an I/O failure so it is not mistaken for an internal bug.
func Storage(err error, format string, args ...interface{}) error {
	return &Error{Kind: ErrStorage, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Message returns the client-facing part of err, or "" when err is not an *Error.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return ""
}
