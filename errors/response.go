package errors

import (
	stderrors "errors"
	"net/http"
)

// ErrorBody contains the error details sent to clients.
type ErrorBody struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Details   map[string]any `json:"details,omitempty"`
}

// ToBody converts an AppError to the client-facing body. Cause is never included.
func (e *AppError) ToBody() ErrorBody {
	var details map[string]any
	if len(e.Details) > 0 {
		details = make(map[string]any, len(e.Details))
		for k, v := range e.Details {
			details[k] = v
		}
	}
	return ErrorBody{
		Code:      e.Code,
		Message:   e.Message,
		Retryable: e.Retryable,
		Details:   details,
	}
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Resolve maps any error to the AppError a client should see.
//
// Untyped errors become InternalError. A stage error wrapping a retrieval or
// validation failure is reported with the inner code, tagged with the stage.
// A bare MalformedUpstreamResponse escaping a stage is reported as InternalError.
func Resolve(err error) *AppError {
	outer, ok := AsAppError(err)
	if !ok {
		return Internal(err)
	}
	if IsStageCode(outer.Code) {
		if inner, found := innerClientError(outer.Code, outer.Cause); found {
			resolved := *inner
			resolved.Details = nil
			resolved.WithDetails(inner.Details)
			resolved.WithDetail("stage", stageName(outer.Code))
			return &resolved
		}
	}
	if outer.Code == ErrCodeMalformedUpstream {
		return Internal(outer)
	}
	if outer.HTTPStatus == 0 {
		outer.HTTPStatus = StatusFor(outer.Code)
	}
	return outer
}

// innerClientError finds the client-facing error under a stage wrapper.
// Retrieval codes only belong to transcription, the one stage that downloads.
func innerClientError(stage ErrorCode, err error) (*AppError, bool) {
	for err != nil {
		if app, ok := err.(*AppError); ok {
			retrieval := stage == ErrCodeTranscription && IsRetrievalCode(app.Code)
			if retrieval || app.Code == ErrCodeValidation || app.Code == ErrCodeDurationExceeded {
				return app, true
			}
		}
		err = stderrors.Unwrap(err)
	}
	return nil, false
}

func stageName(code ErrorCode) string {
	switch code {
	case ErrCodeTranscription:
		return "transcription"
	case ErrCodeExtraction:
		return "extraction"
	case ErrCodeGeneration:
		return "diagnosis"
	}
	return ""
}

// Status returns the HTTP status for err after resolution.
func Status(err error) int {
	r := Resolve(err)
	if r.HTTPStatus == 0 {
		return http.StatusInternalServerError
	}
	return r.HTTPStatus
}
