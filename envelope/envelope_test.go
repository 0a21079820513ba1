package envelope

import (
	"encoding/json"
	"testing"
	"time"

	apperrors "github.com/kbukum/medpipe/errors"
)

func fixedBuilder(elapsed time.Duration) *Builder {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b := StartAt(start, "req-1")
	b.now = func() time.Time { return start.Add(elapsed) }
	return b
}

func TestSuccess(t *testing.T) {
	resp := fixedBuilder(1234*time.Millisecond).
		With("symptoms_found", 2).
		Success(map[string]string{"k": "v"})

	if !resp.Success || resp.Error != nil {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
	if got := resp.Metadata[KeyProcessingTime]; got != 1.23 {
		t.Errorf("processing_time_seconds = %v, want 1.23", got)
	}
	if got := resp.Metadata[KeyTimestamp]; got != "2026-03-01T12:00:01Z" {
		t.Errorf("timestamp = %v", got)
	}
	if resp.Metadata[KeyRequestID] != "req-1" || resp.Metadata["symptoms_found"] != 2 {
		t.Errorf("metadata = %v", resp.Metadata)
	}
}

func TestFailure_WireShape(t *testing.T) {
	resp := fixedBuilder(0).Failure(apperrors.InvalidField("text", "is required"))

	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["success"] != false {
		t.Errorf("success = %v", decoded["success"])
	}
	if _, ok := decoded["result"]; ok {
		t.Error("failure must not carry a result")
	}
	errBody := decoded["error"].(map[string]any)
	if errBody["code"] != "ValidationError" || errBody["retryable"] != false {
		t.Errorf("error = %v", errBody)
	}
	if _, ok := decoded["metadata"].(map[string]any)[KeyTimestamp]; !ok {
		t.Error("metadata.timestamp missing")
	}
}

func TestFailure_NilError(t *testing.T) {
	resp := fixedBuilder(0).Failure(nil)
	if resp.Error == nil || resp.Error.Code != apperrors.ErrCodeInternal {
		t.Fatalf("error = %+v", resp.Error)
	}
}

func TestWith_StandardKeysProtected(t *testing.T) {
	resp := fixedBuilder(0).With(KeyRequestID, "spoofed").Success(nil)
	if resp.Metadata[KeyRequestID] != "req-1" {
		t.Errorf("request_id = %v", resp.Metadata[KeyRequestID])
	}
}

func TestSeconds(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want float64
	}{
		{0, 0},
		{-time.Second, 0},
		{4 * time.Millisecond, 0},
		{5 * time.Millisecond, 0.01},
		{2*time.Second + 499*time.Millisecond, 2.5},
	}
	for _, tt := range tests {
		if got := Seconds(tt.in); got != tt.want {
			t.Errorf("Seconds(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
