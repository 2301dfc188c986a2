// Package apperr carries the failure taxonomy shared by every service.
// Expected business failures are returned as *Error values with a Kind;
// storage faults and other surprises use KindInfrastructure.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindInvalidInput marks null/empty/malformed arguments, checked
	// before any lookup.
	KindInvalidInput Kind = iota + 1
	// KindNotFound marks a referenced entity that does not exist.
	KindNotFound
	// KindPreconditionFailed marks a valid target in the wrong state:
	// already submitted, timer expired, exam not published, and so on.
	KindPreconditionFailed
	// KindIntegrityViolation marks tampered timestamps or inconsistent
	// client-reported timing.
	KindIntegrityViolation
	// KindTransientConflict marks a lost compare-and-set race; callers
	// should treat it as "already submitted" rather than retry.
	KindTransientConflict
	// KindInfrastructure marks unexpected storage or system faults.
	KindInfrastructure
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindPreconditionFailed:
		return "precondition_failed"
	case KindIntegrityViolation:
		return "integrity_violation"
	case KindTransientConflict:
		return "transient_conflict"
	case KindInfrastructure:
		return "infrastructure"
	}
	return "unknown"
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a business error with the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying error.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the Kind from err, or KindInfrastructure when err does
// not carry one. A nil err yields 0.
func KindOf(err error) Kind {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInfrastructure
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
