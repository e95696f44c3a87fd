package services

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

type AppError struct {
	HTTPCode int
	Message  string
	Data     interface{}
	Err      error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newAppError(httpCode int, message string, err error) *AppError {
	return &AppError{HTTPCode: httpCode, Message: message, Err: err}
}

func newAppErrorWithData(httpCode int, message string, data interface{}, err error) *AppError {
	return &AppError{HTTPCode: httpCode, Message: message, Data: data, Err: err}
}

// validationError wraps ozzo-validation errors so the field messages reach the client.
func validationError(err error) *AppError {
	return newAppErrorWithData(http.StatusBadRequest, "validation failed", err, err)
}

// lookupError maps a repository read failure to 404 or 500.
func lookupError(err error, notFoundMsg, failedMsg string) *AppError {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newAppError(http.StatusNotFound, notFoundMsg, nil)
	}
	return newAppError(http.StatusInternalServerError, failedMsg, err)
}

// asAppError passes AppErrors through unchanged and wraps anything else as a 500.
func asAppError(err error, failedMsg string) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return newAppError(http.StatusInternalServerError, failedMsg, err)
}
