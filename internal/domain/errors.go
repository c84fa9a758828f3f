package domain

import "errors"

type Kind string

const (
	KindInvalidCredentials Kind = "INVALID_CREDENTIALS"
	KindAccountNotActive   Kind = "ACCOUNT_NOT_ACTIVE"
	KindAccountNotFound    Kind = "ACCOUNT_NOT_FOUND"
	KindInvalidToken       Kind = "INVALID_TOKEN"
	KindUnauthenticated    Kind = "UNAUTHENTICATED"
	KindForbidden          Kind = "FORBIDDEN"
	KindValidationFailed   Kind = "VALIDATION_FAILED"
	KindNotFound           Kind = "NOT_FOUND"
	KindConflict           Kind = "CONFLICT"
)

// Error is an expected, caller-facing failure. Message is safe to show to the
// client; Err carries the underlying cause for logs only.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func WrapError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// holds for every not-found error regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrInvalidCredentials = NewError(KindInvalidCredentials, "invalid email or password")
	ErrAccountNotActive   = NewError(KindAccountNotActive, "account is not active")
	ErrAccountNotFound    = NewError(KindAccountNotFound, "account not found")
	ErrInvalidToken       = NewError(KindInvalidToken, "invalid token")
	ErrUnauthenticated    = NewError(KindUnauthenticated, "authentication required")
	ErrForbidden          = NewError(KindForbidden, "insufficient permissions")
	ErrValidationFailed   = NewError(KindValidationFailed, "invalid input")
	ErrNotFound           = NewError(KindNotFound, "resource not found")
	ErrConflict           = NewError(KindConflict, "conflict")
)

// KindOf returns the kind of err, or the empty kind for unexpected errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
