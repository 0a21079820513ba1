package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeValidation, "bad input", http.StatusBadRequest)
	if err.Code != ErrCodeValidation {
		t.Errorf("expected code %s, got %s", ErrCodeValidation, err.Code)
	}
	if err.HTTPStatus != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, err.HTTPStatus)
	}
	if err.Retryable {
		t.Error("ValidationError should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeDownloadTimeout, "timed out", http.StatusGatewayTimeout)
	if !err.Retryable {
		t.Error("DownloadTimeout should be retryable")
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodePayloadTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeDownloadTimeout, http.StatusGatewayTimeout},
		{ErrCodeUpstream, http.StatusBadGateway},
		{ErrCodeTranscription, http.StatusBadGateway},
		{ErrCodeExtraction, http.StatusBadGateway},
		{ErrCodeGeneration, http.StatusBadGateway},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrorCode("Unknown"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := StatusFor(tt.code); got != tt.want {
				t.Errorf("StatusFor(%s) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}

func TestUpstream_StatusCode(t *testing.T) {
	err := Upstream(http.StatusNotFound)
	if err.Details["status_code"] != http.StatusNotFound {
		t.Errorf("expected status_code 404, got %v", err.Details["status_code"])
	}
	if err.Retryable {
		t.Error("a 404 upstream should not be retryable")
	}
	if !Upstream(http.StatusServiceUnavailable).Retryable {
		t.Error("a 503 upstream should be retryable")
	}
	if _, ok := Upstream(0).Details["status_code"]; ok {
		t.Error("no status_code expected for unreachable host")
	}
}

func TestStage_TagsRetrievalCause(t *testing.T) {
	err := Transcription("download failed", PayloadTooLarge(10))
	if err.Details["cause"] != "retrieval" {
		t.Errorf("expected cause=retrieval, got %v", err.Details["cause"])
	}
	if err.HTTPStatus != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", err.HTTPStatus)
	}
}

func TestStage_RetrievalCauseOnlyForTranscription(t *testing.T) {
	err := Extraction("model failed", Upstream(0))
	if _, ok := err.Details["cause"]; ok {
		t.Errorf("extraction tagged with cause %v", err.Details["cause"])
	}
}

func TestAppError_Error_WithCause(t *testing.T) {
	err := Internal(fmt.Errorf("db down"))
	if !strings.Contains(err.Error(), "db down") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
	if stderrors.Unwrap(err) == nil {
		t.Error("expected Unwrap to return cause")
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   ErrorCode
		wantStatus int
		wantStage  any
	}{
		{"untyped", fmt.Errorf("boom"), ErrCodeInternal, 500, nil},
		{"validation", Validation("text is required"), ErrCodeValidation, 400, nil},
		{"stage wrapping retrieval", Transcription("download failed", PayloadTooLarge(1)), ErrCodePayloadTooLarge, 413, "transcription"},
		{"stage wrapping wrapped retrieval", Transcription("x", fmt.Errorf("fetch: %w", DownloadTimeout(30))), ErrCodeDownloadTimeout, 504, "transcription"},
		{"extraction keeps its code over upstream", Extraction("x", Upstream(0)), ErrCodeExtraction, 502, nil},
		{"generation keeps its code over upstream", Generation("x", fmt.Errorf("call: %w", Upstream(503))), ErrCodeGeneration, 502, nil},
		{"plain stage", Extraction("model failed", fmt.Errorf("500")), ErrCodeExtraction, 502, nil},
		{"malformed escapes", MalformedUpstream("x", "bad"), ErrCodeInternal, 500, nil},
		{"wrapped app error", fmt.Errorf("ctx: %w", Generation("x", nil)), ErrCodeGeneration, 502, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.err)
			if got.Code != tt.wantCode {
				t.Fatalf("code = %s, want %s", got.Code, tt.wantCode)
			}
			if got.HTTPStatus != tt.wantStatus {
				t.Errorf("status = %d, want %d", got.HTTPStatus, tt.wantStatus)
			}
			if tt.wantStage != nil && got.Details["stage"] != tt.wantStage {
				t.Errorf("stage = %v, want %v", got.Details["stage"], tt.wantStage)
			}
		})
	}
}

func TestResolve_DoesNotMutateInner(t *testing.T) {
	inner := PayloadTooLarge(5)
	_ = Resolve(Transcription("x", inner))
	if _, ok := inner.Details["stage"]; ok {
		t.Error("Resolve must not mutate the wrapped error")
	}
}

func TestToBody_OmitsCause(t *testing.T) {
	body := Internal(fmt.Errorf("secret upstream payload")).ToBody()
	if strings.Contains(body.Message, "secret") {
		t.Errorf("message leaked cause: %q", body.Message)
	}
	if body.Code != ErrCodeInternal {
		t.Errorf("expected InternalError, got %s", body.Code)
	}
}

func TestAsAppError(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Validation("x"))
	app, ok := AsAppError(wrapped)
	if !ok || app.Code != ErrCodeValidation {
		t.Fatalf("expected ValidationError, got %v %v", app, ok)
	}
	if IsAppError(fmt.Errorf("plain")) {
		t.Error("plain error is not an AppError")
	}
}
