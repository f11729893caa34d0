package apperrors

import (
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrStorage        ErrorType = "STORAGE_ERROR"
	ErrAuthFailed     ErrorType = "AUTH_FAILED"
	ErrInvalidRequest ErrorType = "INVALID_REQUEST"
	ErrInternal       ErrorType = "INTERNAL_ERROR"
	ErrNotFound       ErrorType = "NOT_FOUND"
)

// AppError is the standard error struct for the application
type AppError struct {
	Type       ErrorType `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"-"`
	Cause      error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(errType ErrorType, msg string, cause error) *AppError {
	return &AppError{
		Type:       errType,
		Message:    msg,
		Cause:      cause,
		HTTPStatus: mapTypeToStatus(errType),
	}
}

// NewStorage wraps a persistence failure. Recording calls never retry;
// the failure surfaces to whoever triggered the write.
func NewStorage(msg string, cause error) *AppError {
	return New(ErrStorage, msg, cause)
}

func NewInvalidRequest(msg string) *AppError {
	return New(ErrInvalidRequest, msg, nil)
}

func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return New(ErrInternal, err.Error(), err)
}

func mapTypeToStatus(t ErrorType) int {
	switch t {
	case ErrInvalidRequest:
		return http.StatusBadRequest
	case ErrAuthFailed:
		return http.StatusUnauthorized
	case ErrNotFound:
		return http.StatusNotFound
	case ErrStorage:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
