// Package errors wraps pkg/errors and adds string error codes so callers can
// classify a failure without depending on the concrete error value.
package errors

import (
	"github.com/pkg/errors"
)

// Code identifies a class of error. Codes are compared with Is(), which
// matches any error in the chain carrying the same code.
type Code string

// ErrUncoded is the code carried by errors that never chose one.
const ErrUncoded Code = "Uncoded"

// New returns an error carrying code with a stack trace attached.
func New(code Code, message string) error {
	return errors.WithStack(codedError{
		code:    code,
		message: message,
	})
}

// Newf is New with formatting.
func Newf(code Code, format string, args ...interface{}) error {
	return errors.WithStack(codedError{
		code:    code,
		message: errors.Errorf(format, args...).Error(),
	})
}

// Wrap annotates err with code and message, keeping err in the chain. A nil
// err returns nil.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(codedError{
		code:    code,
		message: message,
		cause:   err,
	})
}

// Is reports whether any error in err's chain carries code.
func Is(err error, code Code) bool {
	return errors.Is(err, codedError{code: code})
}

// CodeOf returns the code of the outermost coded error in err's chain, or
// ErrUncoded if there is none.
func CodeOf(err error) Code {
	var ce codedError
	if errors.As(err, &ce) {
		return ce.code
	}
	return ErrUncoded
}

// Cause returns the underlying cause of err, per pkg/errors.
func Cause(err error) error { return errors.Cause(err) }

// Errorf forwards to pkg/errors.
func Errorf(format string, args ...interface{}) error {
	return errors.Errorf(format, args...)
}

// WithMessage forwards to pkg/errors.
func WithMessage(err error, message string) error {
	return errors.WithMessage(err, message)
}

// WithMessagef forwards to pkg/errors.
func WithMessagef(err error, format string, args ...interface{}) error {
	return errors.WithMessagef(err, format, args...)
}

// WithStack forwards to pkg/errors.
func WithStack(err error) error { return errors.WithStack(err) }

// Wrapf annotates err with a formatted message, without changing its code.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// Unwrap forwards to pkg/errors.
func Unwrap(err error) error { return errors.Unwrap(err) }

// codedError is the value carrying a Code through an error chain.
type codedError struct {
	code    Code
	message string
	cause   error
}

func (ce codedError) Error() string {
	if ce.cause != nil {
		return ce.message + ": " + ce.cause.Error()
	}
	return ce.message
}

func (ce codedError) Unwrap() error { return ce.cause }

// Is matches on code alone so that Is(err, Code) works across wrapping.
func (ce codedError) Is(err error) bool {
	if e, ok := err.(codedError); ok && ce.code == e.code {
		return true
	}
	return false
}
