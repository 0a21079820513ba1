package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorCode classifies a failed call.
type ErrorCode string

const (
	ErrCodeTimeout    ErrorCode = "timeout"
	ErrCodeCanceled   ErrorCode = "canceled"
	ErrCodeConnection ErrorCode = "connection"
	ErrCodeTooLarge   ErrorCode = "too_large"
	ErrCodeAuth       ErrorCode = "auth"
	ErrCodeNotFound   ErrorCode = "not_found"
	ErrCodeRateLimit  ErrorCode = "rate_limit"
	// ErrCodeValidation covers other 4xx replies and requests that could not be built.
	ErrCodeValidation ErrorCode = "validation"
	ErrCodeServer     ErrorCode = "server"
)

// Error is a classified failure. StatusCode is 0 when no reply arrived.
type Error struct {
	StatusCode int
	Code       ErrorCode
	Message    string
	Retryable  bool
	// Body is a bounded prefix of an error reply. It is for server logs only.
	Body []byte
	// Limit is the byte ceiling that was exceeded, for ErrCodeTooLarge.
	Limit int64
	Err   error
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("httpclient: %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func wrapped(code ErrorCode, retryable bool, err error) *Error {
	return &Error{Code: code, Message: err.Error(), Retryable: retryable, Err: err}
}

// NewTooLargeError reports a body over limit bytes.
func NewTooLargeError(limit int64) *Error {
	return &Error{Code: ErrCodeTooLarge, Message: fmt.Sprintf("response body exceeds %d bytes", limit), Limit: limit}
}

func invalidRequest(format string, args ...any) *Error {
	return &Error{Code: ErrCodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ClassifyStatusCode maps a non-2xx status to an Error; 2xx gives nil.
// Rate limiting and 5xx replies are retryable.
func ClassifyStatusCode(status int, body []byte) *Error {
	if status >= 200 && status < 300 {
		return nil
	}
	e := &Error{StatusCode: status, Message: http.StatusText(status), Body: body, Code: ErrCodeServer}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Code = ErrCodeAuth
	case status == http.StatusNotFound:
		e.Code = ErrCodeNotFound
	case status == http.StatusTooManyRequests:
		e.Code, e.Retryable = ErrCodeRateLimit, true
	case status >= 400 && status < 500:
		e.Code = ErrCodeValidation
	case status >= 500:
		e.Retryable = true
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("HTTP %d", status)
	}
	return e
}

// transportError classifies a failure that produced no reply. The caller's
// cancellation is never retryable; deadlines and network faults are.
func transportError(ctx context.Context, err error) *Error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return wrapped(ErrCodeCanceled, false, err)
	}
	var netErr net.Error
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return wrapped(ErrCodeTimeout, true, err)
	}
	return wrapped(ErrCodeConnection, true, err)
}

// AsError finds an *Error in err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

func hasCode(err error, code ErrorCode) bool {
	e, ok := AsError(err)
	return ok && e.Code == code
}

func IsTimeout(err error) bool  { return hasCode(err, ErrCodeTimeout) }
func IsCanceled(err error) bool { return hasCode(err, ErrCodeCanceled) }
func IsTooLarge(err error) bool { return hasCode(err, ErrCodeTooLarge) }

// IsRetryable reports whether err carries a retryable *Error.
func IsRetryable(err error) bool {
	e, ok := AsError(err)
	return ok && e.Retryable
}
