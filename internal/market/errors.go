package market

import (
	"errors"
	"fmt"
)

// Kind classifies an engine failure so callers can decide whether to
// retry, back off, or surface the error to the user.
type Kind string

const (
	KindInvalidArgument Kind = "invalid_argument"
	KindNotFound        Kind = "not_found"
	KindRateLimited     Kind = "rate_limited"
	KindUpstream        Kind = "upstream"
)

// Error is the error type returned across the engine boundary.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds a classified error with a formatted cause.
func Errorf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap classifies an existing error. A nil err returns nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the classification of err; unclassified errors are
// treated as upstream failures.
func KindOf(err error) Kind {
	var me *Error
	if errors.As(err, &me) {
		return me.Kind
	}
	return KindUpstream
}

// IsRetryable reports whether the caller should back off and retry
// rather than fail permanently.
func IsRetryable(err error) bool {
	return KindOf(err) == KindRateLimited
}
