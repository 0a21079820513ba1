package errors

import (
	"fmt"
	"maps"
	"net/http"
	"strings"
)

// AppError is the error every stage and entry point returns. Message is
// safe to show callers; upstream payloads only ever travel in Cause, which
// never leaves the process.
type AppError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

func (e *AppError) Error() string {
	msg := string(e.Code) + ": " + e.Message
	if e.Cause != nil {
		msg += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return msg
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause, WithDetail and WithDetails mutate and return e for chaining.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetail(key string, value any) *AppError {
	return e.WithDetails(map[string]any{key: value})
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	maps.Copy(e.Details, details)
	return e
}

// New derives Retryable from the code.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus, Retryable: IsRetryableCode(code)}
}

// --- Validation ---

// Validation creates a new AppError for a request that violates its schema.
func Validation(message string) *AppError {
	return New(ErrCodeValidation, message, http.StatusBadRequest)
}

// InvalidField creates a validation error for a single field.
func InvalidField(field, reason string) *AppError {
	return Validation(fmt.Sprintf("Invalid %s: %s", field, reason)).
		WithDetail("field", field)
}

// UnsupportedMediaType creates a validation error for a non-JSON request body.
func UnsupportedMediaType(contentType string) *AppError {
	e := New(ErrCodeValidation, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
	if contentType != "" {
		e.WithDetail("content_type", contentType)
	}
	return e
}

// --- Retrieval ---

// PayloadTooLarge creates a new AppError for a resource over the byte ceiling.
func PayloadTooLarge(limit int64) *AppError {
	return New(ErrCodePayloadTooLarge,
		fmt.Sprintf("The remote file exceeds the maximum allowed size of %d bytes.", limit),
		http.StatusRequestEntityTooLarge).
		WithDetail("max_bytes", limit)
}

// DownloadTimeout creates a new AppError for a retrieval that ran out of time.
func DownloadTimeout(timeoutSeconds float64) *AppError {
	return New(ErrCodeDownloadTimeout,
		"The remote file could not be downloaded in time.",
		http.StatusGatewayTimeout).
		WithDetail("timeout_seconds", timeoutSeconds)
}

// Upstream creates a new AppError for a non-2xx answer or unreachable host.
// A zero statusCode means no HTTP response was received.
func Upstream(statusCode int) *AppError {
	e := New(ErrCodeUpstream, "The remote host returned an error.", http.StatusBadGateway)
	if statusCode > 0 {
		e.Message = fmt.Sprintf("The remote host returned HTTP %d.", statusCode)
		e.WithDetail("status_code", statusCode)
		e.Retryable = statusCode >= 500 || statusCode == http.StatusTooManyRequests
	} else {
		e.Message = "The remote host could not be reached."
	}
	return e
}

// --- Stages ---

// Transcription creates a transcription stage failure.
func Transcription(message string, cause error) *AppError {
	return stage(ErrCodeTranscription, message, cause)
}

// DurationExceeded reports audio longer than the allowed maximum.
func DurationExceeded(duration, maxSeconds float64) *AppError {
	return New(ErrCodeDurationExceeded,
		fmt.Sprintf("Audio duration %.1fs exceeds the maximum of %.0fs.", duration, maxSeconds),
		http.StatusUnprocessableEntity).
		WithDetails(map[string]any{"duration_seconds": duration, "max_duration": maxSeconds})
}

// Extraction creates an extraction stage failure.
func Extraction(message string, cause error) *AppError {
	return stage(ErrCodeExtraction, message, cause)
}

// Generation creates a diagnosis stage failure.
func Generation(message string, cause error) *AppError {
	return stage(ErrCodeGeneration, message, cause)
}

// MalformedUpstream describes a recoverable defect in upstream output.
func MalformedUpstream(field, reason string) *AppError {
	return New(ErrCodeMalformedUpstream, reason, http.StatusBadGateway).
		WithDetail("field", field)
}

func stage(code ErrorCode, message string, cause error) *AppError {
	e := New(code, message, StatusFor(code))
	e.Cause = cause
	if inner, ok := AsAppError(cause); ok && code == ErrCodeTranscription && IsRetrievalCode(inner.Code) {
		e.WithDetail("cause", "retrieval")
	}
	return e
}

// --- Routing ---

// NotFound creates a new AppError for an unknown route.
func NotFound(path string) *AppError {
	return New(ErrCodeNotFound, "The requested endpoint does not exist.", http.StatusNotFound).
		WithDetail("path", path)
}

// MethodNotAllowed creates a new AppError for a route hit with the wrong method.
func MethodNotAllowed(method string) *AppError {
	return New(ErrCodeMethodNotAllowed,
		fmt.Sprintf("Method %s is not allowed for this endpoint.", strings.ToUpper(method)),
		http.StatusMethodNotAllowed)
}

// RateLimited creates a new AppError for too many requests.
func RateLimited() *AppError {
	return New(ErrCodeRateLimited, "Too many requests. Please wait a moment and try again.",
		http.StatusTooManyRequests)
}

// Internal creates a new AppError for an internal server error.
func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "An unexpected error occurred. Please try again or contact support.",
		http.StatusInternalServerError).WithCause(cause)
}
