// Package errors defines TinyFS's error taxonomy: a small, closed set of
// sentinel error kinds (one per distinct failure mode in the public API)
// plus a wrapper that lets a kind carry additional context without losing
// its identity under errors.Is.
package errors

import "fmt"

// TinyFSError is the interface implemented by every error TinyFS returns
// from its public API.
type TinyFSError interface {
	error
	WithMessage(message string) TinyFSError
	WrapError(err error) TinyFSError
}

// Kind is a bare sentinel error, one of the constants in errno.go. It
// implements TinyFSError directly so callers can return it unadorned, or
// call WithMessage/WrapError to attach context.
type Kind string

func (k Kind) Error() string {
	return string(k)
}

// WithMessage attaches a human-readable detail to the error. The result
// still compares equal to the sentinel under errors.Is.
func (k Kind) WithMessage(message string) TinyFSError {
	return customError{
		message: fmt.Sprintf("%s: %s", string(k), message),
		kind:    k,
	}
}

// WrapError attaches an underlying error, e.g. one from the host file
// system, to the error kind.
func (k Kind) WrapError(err error) TinyFSError {
	return customError{
		message:       fmt.Sprintf("%s: %s", string(k), err.Error()),
		kind:          k,
		originalError: err,
	}
}

// customError pairs a sentinel Kind with additional context.
type customError struct {
	message       string
	kind          Kind
	originalError error
}

func (e customError) Error() string {
	return e.message
}

func (e customError) WithMessage(message string) TinyFSError {
	return customError{
		message:       fmt.Sprintf("%s: %s", e.message, message),
		kind:          e.kind,
		originalError: e,
	}
}

func (e customError) WrapError(err error) TinyFSError {
	return customError{
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		kind:          e.kind,
		originalError: err,
	}
}

func (e customError) Unwrap() error {
	if e.originalError != nil {
		return e.originalError
	}
	return e.kind
}

// Is lets errors.Is(err, errors.ErrBadFD) succeed regardless of how much
// context has been layered onto the error via WithMessage/WrapError.
func (e customError) Is(target error) bool {
	return e.kind == target
}
