// Package openai implements the llm.Dialect for OpenAI-compatible chat
// completion APIs, including Perplexity's search-grounded variant.
//
// Importing the package registers the "openai" and "perplexity" dialects.
package openai

import (
	"encoding/json"
	"fmt"

	"github.com/kbukum/medpipe/llm"
)

const (
	// DialectName is the registered name for OpenAI.
	DialectName = "openai"
	// PerplexityDialectName is the registered name for Perplexity.
	PerplexityDialectName = "perplexity"

	// DefaultBaseURL is the OpenAI API root.
	DefaultBaseURL = "https://api.openai.com/v1"
	// PerplexityBaseURL is the Perplexity API root.
	PerplexityBaseURL = "https://api.perplexity.ai"
)

func init() {
	llm.RegisterDialect(DialectName, New())
	llm.RegisterDialect(PerplexityDialectName, NewPerplexity())
}

// Dialect maps llm types to the /chat/completions wire format.
type Dialect struct {
	name string
	// jsonMode reports whether the backend honors response_format.
	jsonMode bool
}

// New returns the OpenAI dialect.
func New() *Dialect { return &Dialect{name: DialectName, jsonMode: true} }

// NewPerplexity returns the Perplexity dialect. Perplexity does not accept
// response_format json_object, so JSONMode requests are sent as plain chat.
func NewPerplexity() *Dialect { return &Dialect{name: PerplexityDialectName} }

func (d *Dialect) Name() string       { return d.name }
func (d *Dialect) ChatPath() string   { return "/chat/completions" }
func (d *Dialect) HealthPath() string { return "" }

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []llm.Message   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage     llm.Usage `json:"usage"`
	Citations []string  `json:"citations"`
}

// BuildRequest maps a CompletionRequest to the chat completions body.
func (d *Dialect) BuildRequest(req llm.CompletionRequest) (any, error) {
	if req.Model == "" {
		return nil, fmt.Errorf("%s: model is required", d.name)
	}
	body := chatRequest{
		Model:       req.Model,
		Messages:    req.AllMessages(),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSONMode && d.jsonMode {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	return body, nil
}

// ParseResponse reads the first choice. A response without choices is an error.
func (d *Dialect) ParseResponse(body []byte) (*llm.CompletionResponse, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", d.name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s: response has no choices", d.name)
	}
	return &llm.CompletionResponse{
		Content:   resp.Choices[0].Message.Content,
		Model:     resp.Model,
		Citations: resp.Citations,
		Usage:     resp.Usage,
	}, nil
}
