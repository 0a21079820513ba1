package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/kbukum/medpipe/provider"
)

// Completer is any chat-completion capability, usually an *Adapter wrapped
// in provider middleware.
type Completer = provider.RequestResponse[CompletionRequest, CompletionResponse]

// Prompt is a request with a system prompt and a single user turn.
func Prompt(system, user string) CompletionRequest {
	return CompletionRequest{
		SystemPrompt: system,
		Messages:     []Message{{Role: RoleUser, Content: user}},
	}
}

// Complete sends a one-turn prompt and returns the generated text.
func Complete(ctx context.Context, c Completer, system, user string) (string, error) {
	resp, err := c.Execute(ctx, Prompt(system, user))
	return resp.Content, err
}

// DecodeJSON unmarshals the JSON object found in model output into v.
func DecodeJSON(content string, v any) error {
	return json.Unmarshal([]byte(ExtractJSON(content)), v)
}

// ExtractJSON returns the outermost {...} span of model output, looking
// inside a markdown code fence when there is one. Output without an object
// comes back trimmed.
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "```"); ok {
		// Drop the info string ("json") along with the opening fence line.
		if _, body, found := strings.Cut(rest, "\n"); found {
			rest = body
		}
		if i := strings.LastIndex(rest, "```"); i >= 0 {
			rest = rest[:i]
		}
		s = strings.TrimSpace(rest)
	}
	open, end := strings.IndexByte(s, '{'), strings.LastIndexByte(s, '}')
	if open < 0 || end < open {
		return s
	}
	return s[open : end+1]
}
