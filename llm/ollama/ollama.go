// Package ollama implements the llm.Dialect for a local Ollama server's
// native chat API. Importing it registers the "ollama" dialect.
package ollama

import (
	"encoding/json"
	"fmt"

	"github.com/kbukum/medpipe/llm"
)

const (
	// DialectName is the registered name for the Ollama dialect.
	DialectName = "ollama"
	// DefaultBaseURL is where a local Ollama listens.
	DefaultBaseURL = "http://localhost:11434"
)

func init() {
	llm.RegisterDialect(DialectName, &Dialect{})
}

// Dialect maps llm types to Ollama's /api/chat format.
type Dialect struct{}

func (d *Dialect) Name() string       { return DialectName }
func (d *Dialect) ChatPath() string   { return "/api/chat" }
func (d *Dialect) HealthPath() string { return "/api/tags" }

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []llm.Message `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   any           `json:"format,omitempty"`
	Options  *chatOptions  `json:"options,omitempty"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done            bool `json:"done"`
	PromptEvalCount int  `json:"prompt_eval_count"`
	EvalCount       int  `json:"eval_count"`
}

// BuildRequest maps a CompletionRequest to a non-streaming /api/chat body.
func (d *Dialect) BuildRequest(req llm.CompletionRequest) (any, error) {
	body := chatRequest{
		Model:    req.Model,
		Messages: req.AllMessages(),
	}
	if req.JSONMode {
		body.Format = "json"
	}
	if req.Temperature != 0 || req.MaxTokens != 0 {
		body.Options = &chatOptions{Temperature: req.Temperature, NumPredict: req.MaxTokens}
	}
	return body, nil
}

// ParseResponse maps the /api/chat reply to a CompletionResponse.
func (d *Dialect) ParseResponse(body []byte) (*llm.CompletionResponse, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("ollama: decode response: %w", err)
	}
	return &llm.CompletionResponse{
		Content: resp.Message.Content,
		Model:   resp.Model,
		Usage: llm.Usage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		},
	}, nil
}
