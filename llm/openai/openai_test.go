package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kbukum/medpipe/llm"
)

func TestRegistered(t *testing.T) {
	for _, name := range []string{DialectName, PerplexityDialectName} {
		if _, err := llm.GetDialect(name); err != nil {
			t.Errorf("dialect %s not registered: %v", name, err)
		}
	}
}

func TestBuildRequest(t *testing.T) {
	req := llm.CompletionRequest{
		Model:        "gpt-4o-mini",
		SystemPrompt: "sys",
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
		Temperature:  0.1,
		MaxTokens:    1000,
		JSONMode:     true,
	}

	body, err := New().BuildRequest(req)
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	cr := body.(chatRequest)
	if cr.ResponseFormat == nil || cr.ResponseFormat.Type != "json_object" {
		t.Error("expected json_object response format")
	}
	if len(cr.Messages) != 2 || cr.Messages[0].Role != llm.RoleSystem {
		t.Errorf("unexpected messages: %+v", cr.Messages)
	}

	body, _ = NewPerplexity().BuildRequest(req)
	if body.(chatRequest).ResponseFormat != nil {
		t.Error("perplexity must not send response_format")
	}

	if _, err := New().BuildRequest(llm.CompletionRequest{}); err == nil {
		t.Error("expected error without a model")
	}
}

func TestParseResponse(t *testing.T) {
	raw := `{"model":"sonar","choices":[{"message":{"content":"{\"x\":1}"},"finish_reason":"stop"}],
		"usage":{"prompt_tokens":3,"completion_tokens":4,"total_tokens":7},
		"citations":["https://a.example","https://b.example"]}`

	resp, err := NewPerplexity().ParseResponse([]byte(raw))
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if resp.Content != `{"x":1}` || resp.Model != "sonar" || resp.Usage.TotalTokens != 7 || len(resp.Citations) != 2 {
		t.Errorf("unexpected response: %+v", resp)
	}

	if _, err := New().ParseResponse([]byte(`{"choices":[]}`)); err == nil {
		t.Error("expected error for empty choices")
	}
	if _, err := New().ParseResponse([]byte(`not json`)); err == nil {
		t.Error("expected decode error")
	}
}

func TestAdapterRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["model"] != "gpt-4o-mini" {
			t.Errorf("unexpected model: %v", body["model"])
		}
		_, _ = w.Write([]byte(`{"model":"gpt-4o-mini","choices":[{"message":{"content":"hello"}}]}`))
	}))
	defer srv.Close()

	a, err := llm.New(llm.Config{Dialect: DialectName, BaseURL: srv.URL, Model: "gpt-4o-mini", APIKey: "k"})
	if err != nil {
		t.Fatalf("llm.New: %v", err)
	}
	got, err := llm.Complete(context.Background(), a, "", "hi")
	if err != nil || got != "hello" {
		t.Fatalf("Complete = %q, %v", got, err)
	}
}
