package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound         = "NOT_FOUND"
	CodeValidation       = "VALIDATION_ERROR"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeConflict         = "CONFLICT"
	CodeInternal         = "INTERNAL_ERROR"
	CodeBadRequest       = "BAD_REQUEST"
	CodeTimeout          = "TIMEOUT"
	CodeUnavailable      = "SERVICE_UNAVAILABLE"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeRateLimited      = "RATE_LIMITED"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeUnsupportedMedia = "UNSUPPORTED_MEDIA_TYPE"
)

// statusByCode is the HTTP status each code maps to unless the caller picks one with New.
var statusByCode = map[string]int{
	CodeNotFound:         http.StatusNotFound,
	CodeValidation:       http.StatusUnprocessableEntity,
	CodeUnauthorized:     http.StatusUnauthorized,
	CodeForbidden:        http.StatusForbidden,
	CodeConflict:         http.StatusConflict,
	CodeInternal:         http.StatusInternalServerError,
	CodeBadRequest:       http.StatusBadRequest,
	CodeTimeout:          http.StatusGatewayTimeout,
	CodeUnavailable:      http.StatusServiceUnavailable,
	CodeInvalidInput:     http.StatusBadRequest,
	CodeRateLimited:      http.StatusTooManyRequests,
	CodePayloadTooLarge:  http.StatusRequestEntityTooLarge,
	CodeUnsupportedMedia: http.StatusUnsupportedMediaType,
}

// AppError is the error type every layer returns to the HTTP boundary. Only Code, Message
// and Details reach the client; Err stays in the logs.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	if e.HTTPStatus != 0 {
		return e.HTTPStatus
	}
	if status, ok := statusByCode[e.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func (e *AppError) Response() ErrorResponse {
	return ErrorResponse{Code: e.Code, Message: e.Message, Details: e.Details}
}

func (e *AppError) ToJSON() []byte {
	data, _ := json.Marshal(e.Response())
	return data
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// ErrorResponse is the JSON body written for every failed request.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

func Wrap(err error, code, message string, httpStatus int) *AppError {
	return New(code, message, httpStatus).WithCause(err)
}

func coded(code, message string) *AppError {
	return New(code, message, statusByCode[code])
}

func NotFound(resource string) *AppError {
	return coded(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func NotFoundWithID(resource, id string) *AppError {
	return NotFound(resource).WithDetails(map[string]any{"resource": resource, "id": id})
}

func Validation(message string, details map[string]any) *AppError {
	return coded(CodeValidation, message).WithDetails(details)
}

func InvalidInput(message string) *AppError    { return coded(CodeInvalidInput, message) }
func Unauthorized(message string) *AppError    { return coded(CodeUnauthorized, message) }
func Forbidden(message string) *AppError       { return coded(CodeForbidden, message) }
func Conflict(message string) *AppError        { return coded(CodeConflict, message) }
func Timeout(message string) *AppError         { return coded(CodeTimeout, message) }
func RateLimited(message string) *AppError     { return coded(CodeRateLimited, message) }
func PayloadTooLarge(message string) *AppError { return coded(CodePayloadTooLarge, message) }

func UnsupportedMediaType(message string) *AppError {
	return coded(CodeUnsupportedMedia, message)
}

func Internal(message string, err error) *AppError {
	return coded(CodeInternal, message).WithCause(err)
}

// Unavailable reports a dependency, such as the store, that cannot be reached right now.
func Unavailable(service string) *AppError {
	return coded(CodeUnavailable, fmt.Sprintf("%s is temporarily unavailable", service))
}

func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// HasCode reports whether err is, or wraps, an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Code == code
}

// AsAppError unwraps an AppError from err; anything else becomes an opaque internal error.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}
