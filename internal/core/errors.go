package core

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrValidation          ErrorCode = "WSO_VALIDATION"
	ErrNotFound            ErrorCode = "WSO_NOT_FOUND"
	ErrAlreadyExists       ErrorCode = "WSO_ALREADY_EXISTS"
	ErrOwnershipMismatch   ErrorCode = "WSO_OWNERSHIP_MISMATCH"
	ErrProvisioningFailed  ErrorCode = "WSO_PROVISIONING_FAILED"
	ErrProvisioningTimeout ErrorCode = "WSO_PROVISIONING_TIMEOUT"
	ErrReleaseTimeout      ErrorCode = "WSO_RELEASE_TIMEOUT"
	ErrTransport           ErrorCode = "WSO_TRANSPORT"
	ErrInternal            ErrorCode = "WSO_INTERNAL"
)

// HTTPStatus returns the HTTP status code for this error code.
func (e ErrorCode) HTTPStatus() int {
	switch e {
	case ErrValidation:
		return 400
	case ErrNotFound:
		return 404
	case ErrAlreadyExists, ErrOwnershipMismatch:
		return 409
	case ErrProvisioningFailed, ErrTransport:
		return 502
	case ErrProvisioningTimeout, ErrReleaseTimeout:
		return 504
	default:
		return 500
	}
}

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`

	// Kind names the resource kind that failed to apply (ProvisioningFailed only).
	Kind  string `json:"kind,omitempty"`
	cause error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.cause
}

func NewAppError(code ErrorCode, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// WrapAppError attaches cause to a new AppError.
func WrapAppError(code ErrorCode, msg string, cause error) *AppError {
	return &AppError{Code: code, Message: msg, cause: cause}
}

func Validationf(format string, args ...any) *AppError {
	return NewAppError(ErrValidation, fmt.Sprintf(format, args...))
}

// ProvisioningFailed reports that applying the object of the given kind failed.
// Objects applied before it are left in place.
func ProvisioningFailed(kind string, cause error) *AppError {
	return &AppError{
		Code:    ErrProvisioningFailed,
		Message: fmt.Sprintf("apply %s failed", kind),
		Kind:    kind,
		cause:   cause,
	}
}

// CodeOf returns the ErrorCode carried by err, or ErrInternal.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// AsAppError converts any error into an AppError suitable for a response.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return WrapAppError(ErrInternal, "internal error", err)
}
