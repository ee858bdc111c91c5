// Package errors provides custom error types for kanboard.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes as constants
const (
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeValidationError    = "VALIDATION_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"

	// Board client codes.
	ErrCodeFetchFailed = "FETCH_FAILED"
	ErrCodeMoveFailed  = "MOVE_FAILED"
)

// AppError represents an application-specific error with additional context.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"http_status"`
	Err        error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for use with errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a new not found error for a resource.
func NotFound(resource string, id string) *AppError {
	return &AppError{
		Code:       ErrCodeNotFound,
		Message:    fmt.Sprintf("%s with id '%s' not found", resource, id),
		HTTPStatus: http.StatusNotFound,
	}
}

// BadRequest creates a new bad request error.
func BadRequest(message string) *AppError {
	return &AppError{
		Code:       ErrCodeBadRequest,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// InternalError creates a new internal server error with a wrapped underlying error.
func InternalError(message string, err error) *AppError {
	return &AppError{
		Code:       ErrCodeInternalError,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// Conflict creates a new conflict error.
func Conflict(message string) *AppError {
	return &AppError{
		Code:       ErrCodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// ValidationError creates a new validation error for a specific field.
func ValidationError(field string, message string) *AppError {
	return &AppError{
		Code:       ErrCodeValidationError,
		Message:    fmt.Sprintf("validation failed for field '%s': %s", field, message),
		HTTPStatus: http.StatusBadRequest,
	}
}

// ServiceUnavailable creates a new service unavailable error.
func ServiceUnavailable(service string) *AppError {
	return &AppError{
		Code:       ErrCodeServiceUnavailable,
		Message:    fmt.Sprintf("service '%s' is currently unavailable", service),
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// FetchFailed reports a failed Task Repository call made by the board client.
// The HTTP status of the underlying error is preserved when it has one.
func FetchFailed(op string, err error) *AppError {
	status := http.StatusBadGateway
	var appErr *AppError
	if errors.As(err, &appErr) {
		status = appErr.HTTPStatus
	}
	return &AppError{
		Code:       ErrCodeFetchFailed,
		Message:    fmt.Sprintf("task repository %s failed", op),
		HTTPStatus: status,
		Err:        err,
	}
}

// MoveFailed reports a move whose column patch was rejected; the board cache
// has been restored to its pre-move state when this is returned.
func MoveFailed(taskID string, err error) *AppError {
	return &AppError{
		Code:       ErrCodeMoveFailed,
		Message:    fmt.Sprintf("move of task '%s' was reverted", taskID),
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// Wrap wraps an existing error with additional context, returning an AppError.
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}

	// Preserve code and status of an existing AppError
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{
			Code:       appErr.Code,
			Message:    fmt.Sprintf("%s: %s", message, appErr.Message),
			HTTPStatus: appErr.HTTPStatus,
			Err:        err,
		}
	}

	return &AppError{
		Code:       ErrCodeInternalError,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// hasCode reports whether any AppError in err's chain carries one of codes.
func hasCode(err error, codes ...string) bool {
	var appErr *AppError
	for errors.As(err, &appErr) {
		for _, code := range codes {
			if appErr.Code == code {
				return true
			}
		}
		err = appErr.Err
	}
	return false
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// IsBadRequest checks if the error is a bad request error.
func IsBadRequest(err error) bool {
	return hasCode(err, ErrCodeBadRequest, ErrCodeValidationError)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return hasCode(err, ErrCodeValidationError)
}

// IsConflict checks if the error is a conflict error.
func IsConflict(err error) bool {
	return hasCode(err, ErrCodeConflict)
}

// IsFetch checks if the error is a failed repository call.
func IsFetch(err error) bool {
	return hasCode(err, ErrCodeFetchFailed)
}

// IsMove checks if the error is a reverted move.
func IsMove(err error) bool {
	return hasCode(err, ErrCodeMoveFailed)
}

// GetHTTPStatus returns the HTTP status code for an error.
// Returns 500 Internal Server Error if the error is not an AppError.
func GetHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
