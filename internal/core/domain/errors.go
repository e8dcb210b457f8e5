package domain

import "net/http"

// ErrorKind is the stable tag callers switch on.
type ErrorKind string

const (
	KindUserNotFound            ErrorKind = "USER_NOT_FOUND"
	KindUserEmailExists         ErrorKind = "USER_EMAIL_EXISTS"
	KindInsufficientPermissions ErrorKind = "AUTH_INSUFFICIENT_PERMISSIONS"
	KindInvalidCredentials      ErrorKind = "AUTH_INVALID_CREDENTIALS"
	KindOperationNotAllowed     ErrorKind = "OPERATION_NOT_ALLOWED"
	KindValidationFailed        ErrorKind = "VALIDATION_FAILED"
	KindConflict                ErrorKind = "CONFLICT"
)

var kindStatus = map[ErrorKind]int{
	KindUserNotFound:            http.StatusNotFound,
	KindUserEmailExists:         http.StatusBadRequest,
	KindInsufficientPermissions: http.StatusForbidden,
	KindInvalidCredentials:      http.StatusBadRequest,
	KindOperationNotAllowed:     http.StatusBadRequest,
	KindValidationFailed:        http.StatusBadRequest,
	KindConflict:                http.StatusConflict,
}

// Error is a domain rule violation. Two errors match under errors.Is when
// their kinds match, so callers can compare against the sentinels below
// regardless of the message.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// HTTPStatus returns the status code the transport layer should use.
func (e *Error) HTTPStatus() int {
	if s, ok := kindStatus[e.Kind]; ok {
		return s
	}
	return http.StatusBadRequest
}

// NewError builds a domain error with a caller-specific message.
func NewError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

var (
	ErrUserNotFound            = NewError(KindUserNotFound, "user not found")
	ErrPatientProfileNotFound  = NewError(KindUserNotFound, "patient profile not found")
	ErrEmailExists             = NewError(KindUserEmailExists, "a user with this email already exists")
	ErrInsufficientPermissions = NewError(KindInsufficientPermissions, "insufficient permissions")
	ErrInvalidCredentials      = NewError(KindInvalidCredentials, "invalid credentials")
	ErrOperationNotAllowed     = NewError(KindOperationNotAllowed, "operation not allowed")
	ErrValidation              = NewError(KindValidationFailed, "validation failed")
	ErrConcurrentModification  = NewError(KindConflict, "user was modified concurrently, retry the request")
)
