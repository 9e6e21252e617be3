// Package fault defines the error taxonomy shared by the store and service
// layers. Every error that crosses a layer boundary carries a machine-readable
// kind plus an optional violation tag so request handlers can map it to a
// transport status without parsing message text.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping.
type Kind string

const (
	// KindAlreadyExists signals a unique-constraint violation on create.
	KindAlreadyExists Kind = "already_exists"
	// KindNotFound signals that a get/update/delete target does not exist.
	KindNotFound Kind = "not_found"
	// KindBadRequest signals that a business-rule hook vetoed the operation.
	KindBadRequest Kind = "bad_request"
	// KindPreconditionFailed signals an ETag mismatch or a failed domain
	// precondition.
	KindPreconditionFailed Kind = "precondition_failed"
	// KindValidation signals a builder field that fails a domain constraint.
	KindValidation Kind = "validation"
	// KindConflict signals a non-uniqueness business conflict.
	KindConflict Kind = "conflict"
	// KindUnavailable signals that the store or a dependent external service
	// cannot be reached.
	KindUnavailable Kind = "service_unavailable"
)

// Violation tags attached by specific hooks and preconditions.
const (
	ViolationCannotDeleteDefaultZone         = "cannot-delete-default-zone"
	ViolationCannotDeleteDefaultResourcePool = "cannot-delete-default-resource-pool"
	ViolationUserOwnsResources               = "user-owns-resources"
	ViolationNotDismissable                  = "notification-not-dismissable"
	ViolationEtagMismatch                    = "etag-precondition-failed"
	ViolationUniqueConstraint                = "unique-constraint"
)

// Error is the catalog error type. It wraps an optional cause.
type Error struct {
	Kind      Kind
	Violation string
	Message   string
	cause     error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a catalog error with the given kind and violation tag.
func New(kind Kind, violation, format string, args ...any) *Error {
	return &Error{Kind: kind, Violation: violation, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds a catalog error around an underlying cause.
func Wrap(err error, kind Kind, violation, format string, args ...any) *Error {
	return &Error{Kind: kind, Violation: violation, Message: fmt.Sprintf(format, args...), cause: err}
}

// NotFound reports a missing entity.
func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, "", format, args...)
}

// AlreadyExists reports a unique-constraint violation.
func AlreadyExists(format string, args ...any) *Error {
	return New(KindAlreadyExists, ViolationUniqueConstraint, format, args...)
}

// PreconditionFailed reports an ETag mismatch or failed domain precondition.
func PreconditionFailed(violation, format string, args ...any) *Error {
	return New(KindPreconditionFailed, violation, format, args...)
}

// BadRequest reports a vetoed operation.
func BadRequest(violation, format string, args ...any) *Error {
	return New(KindBadRequest, violation, format, args...)
}

// Validation reports a builder field that fails a domain constraint.
func Validation(err error, format string, args ...any) *Error {
	return Wrap(err, KindValidation, "", format, args...)
}

// Conflict reports a business conflict detected by a hook.
func Conflict(violation, format string, args ...any) *Error {
	return New(KindConflict, violation, format, args...)
}

// Unavailable reports an unreachable store or dependent service.
func Unavailable(err error, format string, args ...any) *Error {
	return Wrap(err, KindUnavailable, "", format, args...)
}

// KindOf returns the kind of err, or the empty string when err carries none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// ViolationOf returns the violation tag of err, if any.
func ViolationOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Violation
	}
	return ""
}
