package apperrors

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Kind is the machine-readable error category surfaced to clients.
type Kind string

const (
	KindDuplicateActiveGrant        Kind = "duplicate_active_grant"
	KindCategoryNotAllowed          Kind = "category_not_allowed"
	KindUnknownExternalTransaction  Kind = "unknown_external_transaction"
	KindStaleStateTransition        Kind = "stale_state_transition"
	KindExternalProviderUnavailable Kind = "external_provider_unavailable"
)

// Error pairs a Kind with a client-safe message. Internal detail travels in
// the wrapped error and stays server-side.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error around an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind from an error chain, or "" when the error does
// not carry one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether the chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps a kind to the status code the API answers with.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindDuplicateActiveGrant:
		return fiber.StatusConflict
	case KindCategoryNotAllowed:
		return fiber.StatusUnprocessableEntity
	case KindUnknownExternalTransaction:
		return fiber.StatusNotFound
	case KindStaleStateTransition:
		return fiber.StatusConflict
	case KindExternalProviderUnavailable:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
