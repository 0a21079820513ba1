package llm

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is what every dialect translates to its wire format.
// Zero values defer to the adapter's configured defaults.
type CompletionRequest struct {
	Model        string    `json:"model,omitempty"`
	SystemPrompt string    `json:"system_prompt,omitempty"`
	Messages     []Message `json:"messages"`
	Temperature  float64   `json:"temperature,omitempty"`
	MaxTokens    int       `json:"max_tokens,omitempty"`
	// JSONMode constrains output to a single JSON object where the
	// backend supports it.
	JSONMode bool `json:"json_mode,omitempty"`
}

// AllMessages is Messages led by the system prompt, if there is one.
func (r CompletionRequest) AllMessages() []Message {
	if r.SystemPrompt == "" {
		return r.Messages
	}
	return append([]Message{{Role: RoleSystem, Content: r.SystemPrompt}}, r.Messages...)
}

// CompletionResponse is the dialect-neutral reply. Citations are only
// filled by search-grounded backends.
type CompletionResponse struct {
	Content   string   `json:"content"`
	Model     string   `json:"model"`
	Citations []string `json:"citations,omitempty"`
	Usage     Usage    `json:"usage"`
}

// Usage counts tokens as the backend reports them.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
