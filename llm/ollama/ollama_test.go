package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kbukum/medpipe/llm"
)

func TestBuildRequest(t *testing.T) {
	body, err := (&Dialect{}).BuildRequest(llm.CompletionRequest{
		Model:       "qwen2.5:1.5b",
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
		Temperature: 0.2,
		MaxTokens:   2000,
		JSONMode:    true,
	})
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	cr := body.(chatRequest)
	if cr.Stream || cr.Format != "json" || cr.Options == nil || cr.Options.NumPredict != 2000 {
		t.Errorf("unexpected request: %+v", cr)
	}
}

func TestAdapterRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[]}`))
		case "/api/chat":
			var req map[string]any
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req["stream"] != false {
				t.Errorf("expected non-streaming request, got %v", req["stream"])
			}
			_, _ = w.Write([]byte(`{"model":"qwen","message":{"role":"assistant","content":"{}"},"done":true,"prompt_eval_count":5,"eval_count":2}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	a, err := llm.New(llm.Config{Dialect: DialectName, BaseURL: srv.URL, Model: "qwen"})
	if err != nil {
		t.Fatalf("llm.New: %v", err)
	}
	if !a.IsAvailable(context.Background()) {
		t.Error("expected available")
	}
	resp, err := a.Execute(context.Background(), llm.CompletionRequest{Messages: []llm.Message{{Role: llm.RoleUser, Content: "x"}}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Content != "{}" || resp.Usage.TotalTokens != 7 {
		t.Errorf("unexpected response: %+v", resp)
	}
}
