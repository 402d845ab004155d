package http

import (
	"fmt"
	"net/http"
)

// AppError is an error that knows its HTTP status and error code.
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Field   string                 `json:"field,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Status  int                    `json:"-"`
	Err     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func NewAppError(code, field, message string, status int) *AppError {
	return &AppError{Code: code, Field: field, Message: message, Status: status}
}

func (e *AppError) WithParam(key string, value interface{}) *AppError {
	if e.Params == nil {
		e.Params = make(map[string]interface{})
	}
	e.Params[key] = value
	return e
}

// WithError keeps err for logs. It is never serialised.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

func statusError(status int, code, format string, a []interface{}) *AppError {
	msg := format
	if len(a) > 0 {
		msg = fmt.Sprintf(format, a...)
	}
	return NewAppError(code, "", msg, status)
}

func BadRequestErrorf(format string, a ...interface{}) *AppError {
	return statusError(http.StatusBadRequest, "ERR_BAD_REQUEST", format, a)
}

func NotFoundErrorf(format string, a ...interface{}) *AppError {
	return statusError(http.StatusNotFound, "ERR_NOT_FOUND", format, a)
}

func TooManyRequestsError(message string) *AppError {
	return statusError(http.StatusTooManyRequests, "ERR_RATE_LIMITED", message, nil)
}

func InternalError(message string) *AppError {
	return statusError(http.StatusInternalServerError, "ERR_INTERNAL", message, nil)
}

func ServiceUnavailableError(message string) *AppError {
	return statusError(http.StatusServiceUnavailable, "ERR_UNAVAILABLE", message, nil)
}
