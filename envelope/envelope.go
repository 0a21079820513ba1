// Package envelope builds the uniform response wrapper shared by every entry
// point: {success, result | error, metadata}.
//
// A Builder is started when a request is accepted so that
// processing_time_seconds covers the whole request, not just the stage:
//
//	b := envelope.Start(requestID)
//	// ... run the stage ...
//	resp := b.With("symptoms_found", n).Success(info)
package envelope

import (
	"math"
	"time"

	apperrors "github.com/kbukum/medpipe/errors"
)

// Standard metadata keys present on every response.
const (
	KeyTimestamp      = "timestamp"
	KeyProcessingTime = "processing_time_seconds"
	KeyRequestID      = "request_id"
)

// Metadata holds scalar values describing a response.
type Metadata map[string]any

// Response is the wire shape of every response. Exactly one of Result and
// Error is set.
type Response struct {
	Success  bool                 `json:"success"`
	Result   any                  `json:"result,omitempty"`
	Error    *apperrors.ErrorBody `json:"error,omitempty"`
	Metadata Metadata             `json:"metadata"`
}

// Builder accumulates metadata for one request.
type Builder struct {
	start     time.Time
	requestID string
	meta      Metadata
	now       func() time.Time
}

// Start begins timing a request.
func Start(requestID string) *Builder {
	return StartAt(time.Now(), requestID)
}

// StartAt begins timing a request that was accepted at start.
func StartAt(start time.Time, requestID string) *Builder {
	return &Builder{start: start, requestID: requestID, meta: Metadata{}, now: time.Now}
}

// RequestID returns the request ID the builder was started with.
func (b *Builder) RequestID() string { return b.requestID }

// With adds a stage-specific metadata value. Standard keys cannot be overridden.
func (b *Builder) With(key string, value any) *Builder {
	switch key {
	case KeyTimestamp, KeyProcessingTime, KeyRequestID:
		return b
	}
	b.meta[key] = value
	return b
}

// Success wraps result.
func (b *Builder) Success(result any) Response {
	return Response{Success: true, Result: result, Metadata: b.metadata()}
}

// Failure wraps err. Stage metadata added before the failure is kept.
func (b *Builder) Failure(err *apperrors.AppError) Response {
	if err == nil {
		err = apperrors.Internal(nil)
	}
	body := err.ToBody()
	return Response{Success: false, Error: &body, Metadata: b.metadata()}
}

func (b *Builder) metadata() Metadata {
	now := b.now()
	m := make(Metadata, len(b.meta)+3)
	for k, v := range b.meta {
		m[k] = v
	}
	m[KeyTimestamp] = now.UTC().Format(time.RFC3339)
	m[KeyProcessingTime] = Seconds(now.Sub(b.start))
	if b.requestID != "" {
		m[KeyRequestID] = b.requestID
	}
	return m
}

// Seconds rounds d to hundredths of a second.
func Seconds(d time.Duration) float64 {
	if d < 0 {
		d = 0
	}
	return math.Round(d.Seconds()*100) / 100
}
