package virt

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package is an *OpError whose
// kind matches one of these with errors.Is.
var (
	ErrConnect   = errors.New("connection failed")
	ErrQuery     = errors.New("query failed")
	ErrDefine    = errors.New("define failed")
	ErrLifecycle = errors.New("lifecycle operation failed")
	ErrNotFound  = errors.New("domain not found")

	// ErrClosed is returned by any method called after Close.
	ErrClosed = errors.New("handle already released")

	// ErrRefFailed means the native reference count could not be
	// incremented. It indicates a broken invariant (a clone of a dead
	// session) rather than a recoverable query failure.
	ErrRefFailed = errors.New("reference count increment failed")
)

// OpError records a failed operation, its kind and the native cause.
type OpError struct {
	// Op describes the operation, e.g. "start domain vm-a".
	Op string
	// Kind is one of the Err* sentinels above.
	Kind error
	// Err is the underlying native error, if any.
	Err error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("failed to %s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("failed to %s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the native cause to errors.Is/As.
func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func opError(kind error, err error, format string, args ...any) error {
	return &OpError{Op: fmt.Sprintf(format, args...), Kind: kind, Err: err}
}

// NotFoundError reports that no domain with the given name exists.
func NotFoundError(name string) error {
	return opError(ErrNotFound, nil, "look up domain %s", name)
}
