package transcription_test

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/kbukum/medpipe/errors"
	"github.com/kbukum/medpipe/provider"
	"github.com/kbukum/medpipe/retriever"
	"github.com/kbukum/medpipe/transcription"
	"github.com/kbukum/medpipe/util"
)

type fakeFetcher struct {
	res      *retriever.Resource
	err      error
	calls    int
	maxBytes int64
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string, _ time.Duration, maxBytes int64) (*retriever.Resource, error) {
	f.calls++
	f.maxBytes = maxBytes
	if f.err != nil {
		return nil, f.err
	}
	return f.res, nil
}

func audio(name string) *fakeFetcher {
	return &fakeFetcher{res: &retriever.Resource{URL: "https://x/" + name, FileName: name, Data: []byte("RIFF")}}
}

func capability(resp transcription.Response, err error, seen *transcription.Request) transcription.Capability {
	return provider.Func("fake-stt", func(_ context.Context, req transcription.Request) (transcription.Response, error) {
		if seen != nil {
			*seen = req
		}
		return resp, err
	})
}

func newStage(t *testing.T, f retriever.Fetcher, c transcription.Capability) *transcription.Stage {
	t.Helper()
	s, err := transcription.NewStage(transcription.Config{}, f, c, nil)
	if err != nil {
		t.Fatalf("NewStage: %v", err)
	}
	return s
}

func code(err error) apperrors.ErrorCode {
	if e, ok := apperrors.AsAppError(err); ok {
		return e.Code
	}
	return ""
}

func TestTranscribe_RequestedLanguageFallback(t *testing.T) {
	var seen transcription.Request
	c := capability(transcription.Response{Text: " Hello ", Duration: util.Ptr(45.2)}, nil, &seen)
	f := audio("a.wav")

	res, err := newStage(t, f, c).Transcribe(context.Background(), "https://x/a.wav", "English", 300)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if res.DurationSeconds != 45.2 || res.LanguageDetected != "english" || res.Transcription != "Hello" {
		t.Errorf("unexpected result %+v", res)
	}
	if res.ModelUsed != "fake-stt" {
		t.Errorf("ModelUsed = %q", res.ModelUsed)
	}
	if seen.Language != "en" || seen.ContentType != "audio/wav" || seen.FileName != "a.wav" {
		t.Errorf("unexpected capability request %+v", seen)
	}
	if f.maxBytes != 50<<20 {
		t.Errorf("maxBytes = %d, want 50MB", f.maxBytes)
	}
}

func TestTranscribe_LanguageDetection(t *testing.T) {
	tests := []struct {
		name      string
		requested string
		reported  string
		want      string
	}{
		{"reported wins", "spanish", "Spanish", "spanish"},
		{"requested fallback", "french", "", "french"},
		{"unknown", "", "", transcription.UnknownLanguage},
		{"detected without hint", "", "german", "german"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen transcription.Request
			c := capability(transcription.Response{Text: "x", Language: tt.reported, Model: "openai-whisper-1"}, nil, &seen)
			res, err := newStage(t, audio("a.mp3"), c).Transcribe(context.Background(), "https://x/a.mp3", tt.requested, 300)
			if err != nil {
				t.Fatalf("Transcribe: %v", err)
			}
			if res.LanguageDetected != tt.want {
				t.Errorf("LanguageDetected = %q, want %q", res.LanguageDetected, tt.want)
			}
			if tt.requested == "" && seen.Language != "" {
				t.Errorf("no hint expected, got %q", seen.Language)
			}
			if res.ModelUsed != "openai-whisper-1" {
				t.Errorf("ModelUsed = %q", res.ModelUsed)
			}
		})
	}
}

func TestTranscribe_UnknownLanguageRejectedBeforeFetch(t *testing.T) {
	f := audio("a.wav")
	_, err := newStage(t, f, capability(transcription.Response{}, nil, nil)).
		Transcribe(context.Background(), "https://x/a.wav", "klingon", 300)
	if code(err) != apperrors.ErrCodeValidation {
		t.Fatalf("got %v, want ValidationError", err)
	}
	if f.calls != 0 {
		t.Error("fetcher should not be called")
	}
}

func TestTranscribe_DurationExceeded(t *testing.T) {
	c := capability(transcription.Response{Text: "x", Duration: util.Ptr(301.0)}, nil, nil)
	_, err := newStage(t, audio("a.wav"), c).Transcribe(context.Background(), "https://x/a.wav", "", 300)
	if code(err) != apperrors.ErrCodeDurationExceeded {
		t.Fatalf("got %v, want DurationExceeded", err)
	}
}

func TestTranscribe_NoDurationReported(t *testing.T) {
	c := capability(transcription.Response{Text: "x"}, nil, nil)
	res, err := newStage(t, audio("a.wav"), c).Transcribe(context.Background(), "https://x/a.wav", "", 1)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if res.DurationSeconds != 0 {
		t.Errorf("DurationSeconds = %v", res.DurationSeconds)
	}
}

func TestTranscribe_RetrievalFailureIsWrapped(t *testing.T) {
	f := &fakeFetcher{err: apperrors.PayloadTooLarge(10)}
	_, err := newStage(t, f, capability(transcription.Response{}, nil, nil)).
		Transcribe(context.Background(), "https://x/a.wav", "", 300)

	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeTranscription || appErr.Details["cause"] != "retrieval" {
		t.Fatalf("expected TranscriptionError{cause: retrieval}, got %v", err)
	}
	if resolved := apperrors.Resolve(err); resolved.Code != apperrors.ErrCodePayloadTooLarge {
		t.Errorf("resolved code = %s", resolved.Code)
	}
}

func TestTranscribe_CapabilityFailure(t *testing.T) {
	c := capability(transcription.Response{}, errors.New("boom"), nil)
	_, err := newStage(t, audio("a.wav"), c).Transcribe(context.Background(), "https://x/a.wav", "", 300)
	if code(err) != apperrors.ErrCodeTranscription {
		t.Fatalf("got %v, want TranscriptionError", err)
	}
}

func TestTranscribe_CallerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := provider.Func("slow", func(ctx context.Context, _ transcription.Request) (transcription.Response, error) {
		cancel()
		<-ctx.Done()
		return transcription.Response{}, ctx.Err()
	})
	_, err := newStage(t, audio("a.wav"), c).Transcribe(ctx, "https://x/a.wav", "", 300)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewStage_Config(t *testing.T) {
	if _, err := transcription.NewStage(transcription.Config{}, nil, nil, nil); err == nil {
		t.Error("expected error for missing collaborators")
	}
	_, err := transcription.NewStage(transcription.Config{MaxFileSize: "lots"}, audio("a"), capability(transcription.Response{}, nil, nil), nil)
	if err == nil {
		t.Error("expected error for bad max_file_size")
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := map[string]string{
		"a.MP3": "audio/mpeg", "b.wav": "audio/wav", "c.m4a": "audio/m4a",
		"d.flac": "audio/flac", "download": "audio/mpeg",
	}
	for in, want := range tests {
		if got := transcription.ContentTypeFor(in); got != want {
			t.Errorf("ContentTypeFor(%q) = %q, want %q", in, got, want)
		}
	}
}
