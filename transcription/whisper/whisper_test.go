package whisper

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kbukum/medpipe/transcription"
)

func TestExecute_MultipartUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		for field, want := range map[string]string{"model": "whisper-1", "response_format": "verbose_json", "language": "en"} {
			if got := r.FormValue(field); got != want {
				t.Errorf("%s = %q, want %q", field, got, want)
			}
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		data, _ := io.ReadAll(f)
		if string(data) != "RIFF" || hdr.Filename != "a.wav" || hdr.Header.Get("Content-Type") != "audio/wav" {
			t.Errorf("unexpected file part %q %q %q", data, hdr.Filename, hdr.Header.Get("Content-Type"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"Hello doctor","duration":45.2,"language":"english"}`))
	}))
	defer srv.Close()

	p, err := New(Config{BaseURL: srv.URL + "/v1", APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	resp, err := p.Execute(context.Background(), transcription.Request{
		Audio: []byte("RIFF"), FileName: "a.wav", ContentType: "audio/wav", Language: "en",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Text != "Hello doctor" || resp.Duration == nil || *resp.Duration != 45.2 ||
		resp.Language != "english" || resp.Model != "whisper-1" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestModelUsed(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"openai", Config{APIKey: "sk-test"}, "openai-whisper-1"},
		{"self-hosted", Config{BaseURL: "http://stt.internal:9000/v1", Model: "large-v3"}, "large-v3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if got := p.modelUsed(); got != tt.want {
				t.Errorf("modelUsed = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExecute_OmitsEmptyLanguageAndMissingDuration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseMultipartForm(1 << 20)
		if _, ok := r.MultipartForm.Value["language"]; ok {
			t.Error("language field should be omitted")
		}
		_, _ = w.Write([]byte(`{"text":"hi"}`))
	}))
	defer srv.Close()

	p, _ := New(Config{BaseURL: srv.URL})
	resp, err := p.Execute(context.Background(), transcription.Request{Audio: []byte("x"), FileName: "a.mp3"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Duration != nil || resp.Language != "" {
		t.Errorf("expected no duration or language, got %+v", resp)
	}
}

func TestExecute_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	p, _ := New(Config{BaseURL: srv.URL})
	if _, err := p.Execute(context.Background(), transcription.Request{Audio: []byte("x")}); err == nil {
		t.Fatal("expected error")
	}
}

func TestIsAvailable(t *testing.T) {
	noKey, _ := New(Config{})
	if noKey.IsAvailable(context.Background()) {
		t.Error("hosted endpoint without key should be unavailable")
	}
	selfHosted, _ := New(Config{BaseURL: "http://localhost:9000/v1"})
	if !selfHosted.IsAvailable(context.Background()) {
		t.Error("self-hosted endpoint should be available")
	}
	if selfHosted.Name() != ProviderName {
		t.Errorf("Name = %q", selfHosted.Name())
	}
}
