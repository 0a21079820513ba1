package errors

import "net/http"

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Request errors
const (
	// ErrCodeValidation indicates the caller's input violates schema or bounds.
	ErrCodeValidation ErrorCode = "ValidationError"
	// ErrCodeNotFound indicates the route does not exist.
	ErrCodeNotFound ErrorCode = "NotFound"
	// ErrCodeMethodNotAllowed indicates the route exists for another method.
	ErrCodeMethodNotAllowed ErrorCode = "MethodNotAllowed"
	// ErrCodeRateLimited indicates the client is rate limited.
	ErrCodeRateLimited ErrorCode = "RateLimited"
)

// Retrieval errors
const (
	// ErrCodePayloadTooLarge indicates a remote resource exceeded the byte ceiling.
	ErrCodePayloadTooLarge ErrorCode = "PayloadTooLarge"
	// ErrCodeDownloadTimeout indicates a retrieval did not complete in time.
	ErrCodeDownloadTimeout ErrorCode = "DownloadTimeout"
	// ErrCodeUpstream indicates a remote host answered with a non-2xx status or was unreachable.
	ErrCodeUpstream ErrorCode = "UpstreamError"
)

// Stage errors
const (
	// ErrCodeTranscription indicates the transcription stage failed.
	ErrCodeTranscription ErrorCode = "TranscriptionError"
	// ErrCodeDurationExceeded indicates audio longer than the requested ceiling.
	ErrCodeDurationExceeded ErrorCode = "DurationExceeded"
	// ErrCodeExtraction indicates the extraction stage failed.
	ErrCodeExtraction ErrorCode = "ExtractionError"
	// ErrCodeGeneration indicates the diagnosis stage failed.
	ErrCodeGeneration ErrorCode = "GenerationError"
	// ErrCodeMalformedUpstream marks recoverable upstream output. Stages clamp or
	// flag and continue; it is never the code of a failed response on its own.
	ErrCodeMalformedUpstream ErrorCode = "MalformedUpstreamResponse"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected defect.
	ErrCodeInternal ErrorCode = "InternalError"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeRateLimited:      true,
	ErrCodeDownloadTimeout:  true,
	ErrCodeUpstream:         true,
	ErrCodeTranscription:    true,
	ErrCodeExtraction:       true,
	ErrCodeGeneration:       true,
	ErrCodeInternal:         false,
	ErrCodeValidation:       false,
	ErrCodePayloadTooLarge:  false,
	ErrCodeDurationExceeded: false,
}

var statusByCode = map[ErrorCode]int{
	ErrCodeValidation:        http.StatusBadRequest,
	ErrCodeNotFound:          http.StatusNotFound,
	ErrCodeMethodNotAllowed:  http.StatusMethodNotAllowed,
	ErrCodeRateLimited:       http.StatusTooManyRequests,
	ErrCodePayloadTooLarge:   http.StatusRequestEntityTooLarge,
	ErrCodeDownloadTimeout:   http.StatusGatewayTimeout,
	ErrCodeUpstream:          http.StatusBadGateway,
	ErrCodeTranscription:     http.StatusBadGateway,
	ErrCodeDurationExceeded:  http.StatusUnprocessableEntity,
	ErrCodeExtraction:        http.StatusBadGateway,
	ErrCodeGeneration:        http.StatusBadGateway,
	ErrCodeMalformedUpstream: http.StatusBadGateway,
	ErrCodeInternal:          http.StatusInternalServerError,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

// StatusFor returns the HTTP status class for a code, 500 when unknown.
func StatusFor(code ErrorCode) int {
	if s, ok := statusByCode[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// IsRetrievalCode reports whether code belongs to the file retrieval layer.
func IsRetrievalCode(code ErrorCode) bool {
	switch code {
	case ErrCodePayloadTooLarge, ErrCodeDownloadTimeout, ErrCodeUpstream:
		return true
	}
	return false
}

// IsStageCode reports whether code is a stage wrapper.
func IsStageCode(code ErrorCode) bool {
	switch code {
	case ErrCodeTranscription, ErrCodeExtraction, ErrCodeGeneration:
		return true
	}
	return false
}
