package errs

import (
	cr "github.com/cockroachdb/errors"
)

// Error kinds. Domain packages mark their sentinel errors with one of these
// so callers can classify a failure without knowing every sentinel.
var (
	KindValidation     = cr.New("validation error")
	KindNotFound       = cr.New("not found")
	KindForbidden      = cr.New("forbidden")
	KindConflict       = cr.New("conflict")
	KindQuotaExhausted = cr.New("quota exhausted")
	KindNoSubscription = cr.New("no active subscription")
	KindInternal       = cr.New("internal error")
)

// New creates an error with a captured stack trace.
func New(msg string) error {
	return cr.New(msg)
}

// Wrap annotates err with msg, preserving the stack trace. Returns nil for nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return cr.Wrap(err, msg)
}

// Wrapf annotates err with a formatted message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return cr.Wrapf(err, format, args...)
}

// Internal annotates a storage or infrastructure failure and marks it
// KindInternal, keeping it distinct from a not-found rejection so callers can
// decide whether a retry makes sense.
func Internal(err error, msg string) error {
	if err == nil {
		return nil
	}
	return cr.Mark(cr.Wrap(err, msg), KindInternal)
}

// Mark makes err satisfy errors.Is against markErr without changing its message.
func Mark(err error, markErr error) error {
	if err == nil {
		return nil
	}
	return cr.Mark(err, markErr)
}

// Sentinel creates a sentinel error carrying the given kind. Both the sentinel
// itself and the kind match under errors.Is.
func Sentinel(msg string, kind error) error {
	return cr.Mark(cr.NewWithDepth(1, msg), kind)
}
