// Package llm provides a config-driven language-model client built on the
// httpclient/rest foundation.
//
// The adapter works with any provider via the Dialect pattern, similar to
// database/sql drivers:
//   - Universal types: [CompletionRequest], [CompletionResponse], [Message], [Usage]
//   - [Dialect]: maps universal types to and from a provider's HTTP format
//   - [Adapter]: REST client plus a Dialect
//   - Registry: [RegisterDialect] / [GetDialect] for config-driven selection
//   - Helpers: [Prompt], [Complete], [DecodeJSON], [ExtractJSON]
//
// Usage:
//
//	import (
//	    "github.com/kbukum/medpipe/llm"
//	    _ "github.com/kbukum/medpipe/llm/openai" // registers "openai" and "perplexity"
//	)
//
//	adapter, err := llm.New(llm.Config{
//	    Dialect: "openai",
//	    BaseURL: "https://api.openai.com/v1",
//	    Model:   "gpt-4o-mini",
//	    APIKey:  key,
//	})
//
//	resp, err := adapter.Execute(ctx, llm.CompletionRequest{
//	    Messages: []llm.Message{{Role: llm.RoleUser, Content: "Hello"}},
//	    JSONMode: true,
//	})
package llm
