package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation            ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound              ErrorType = "NOT_FOUND"
	ErrorTypeUnauthenticated       ErrorType = "UNAUTHENTICATED"
	ErrorTypeForbidden             ErrorType = "FORBIDDEN"
	ErrorTypeInvalidCredentials    ErrorType = "INVALID_CREDENTIALS"
	ErrorTypeInvalidToken          ErrorType = "INVALID_TOKEN"
	ErrorTypeInvalidOrExpiredToken ErrorType = "INVALID_OR_EXPIRED_TOKEN"
	ErrorTypeUpstream              ErrorType = "UPSTREAM_ERROR"
	ErrorTypeInternal              ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed  ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidEmail      ErrorCode = "INVALID_EMAIL"
	ErrCodeEmailTaken        ErrorCode = "EMAIL_TAKEN"
	ErrCodePasswordMismatch  ErrorCode = "PASSWORD_MISMATCH"
	ErrCodeInvalidPermission ErrorCode = "INVALID_PERMISSION"
	ErrCodeInvalidPrice      ErrorCode = "INVALID_PRICE"

	ErrCodeUserNotFound     ErrorCode = "USER_NOT_FOUND"
	ErrCodeItemNotFound     ErrorCode = "ITEM_NOT_FOUND"
	ErrCodeCartItemNotFound ErrorCode = "CART_ITEM_NOT_FOUND"

	ErrCodeLoginRequired     ErrorCode = "LOGIN_REQUIRED"
	ErrCodeInsufficientPerms ErrorCode = "INSUFFICIENT_PERMISSIONS"
	ErrCodeNotOwner          ErrorCode = "NOT_OWNER"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	ErrCodeResetTokenInvalid  ErrorCode = "RESET_TOKEN_INVALID"

	ErrCodeUpstreamFailure ErrorCode = "UPSTREAM_FAILURE"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *AppError with the same type and code, so
// freshly constructed errors match the package sentinels.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// WithCause returns a copy carrying cause. Sentinels are shared, so they are never mutated.
func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthenticatedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthenticated,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInvalidCredentialsError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidCredentials,
		Code:       ErrCodeInvalidCredentials,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewInvalidTokenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidToken,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewInvalidOrExpiredTokenError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidOrExpiredToken,
		Code:       ErrCodeResetTokenInvalid,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewUpstreamError wraps a persistence or notification failure. The cause is kept
// for logging and never rendered to the client.
func NewUpstreamError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeUpstream,
		Code:       ErrCodeUpstreamFailure,
		Message:    message,
		StatusCode: http.StatusServiceUnavailable,
		Cause:      cause,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       ErrCodeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrUnauthenticated       = NewUnauthenticatedError("You must be logged in to do that!", ErrCodeLoginRequired)
	ErrForbidden             = NewForbiddenError("You don't have permission to do that!", ErrCodeInsufficientPerms)
	ErrNotOwner              = NewForbiddenError("You don't have permission to do that!", ErrCodeNotOwner)
	ErrInvalidCredentials    = NewInvalidCredentialsError("Invalid password")
	ErrInvalidToken          = NewInvalidTokenError("Invalid session token", ErrCodeInvalidToken)
	ErrTokenExpired          = NewInvalidTokenError("Session token has expired", ErrCodeTokenExpired)
	ErrInvalidOrExpiredToken = NewInvalidOrExpiredTokenError("This reset token is either invalid or expired")
	ErrPasswordMismatch      = NewValidationError("Your passwords don't match", ErrCodePasswordMismatch)
	ErrEmailTaken            = NewValidationError("An account with this email already exists", ErrCodeEmailTaken)

	ErrUserNotFound     = NewNotFoundError("No such user found", ErrCodeUserNotFound)
	ErrItemNotFound     = NewNotFoundError("Item not found", ErrCodeItemNotFound)
	ErrCartItemNotFound = NewNotFoundError("No cart item found!", ErrCodeCartItemNotFound)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err carries an *AppError of the given type.
func IsType(err error, t ErrorType) bool {
	appErr, ok := IsAppError(err)
	return ok && appErr.Type == t
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
