// Package rest provides a JSON-focused REST client built on the HTTP adapter.
//
// It inherits auth, size limits and resilience from httpclient and adds
// typed helpers:
//
//	client, _ := rest.New(httpclient.Config{
//	    BaseURL: "https://api.openai.com/v1",
//	    Auth:    httpclient.BearerAuth(key),
//	})
//	resp, err := rest.Post[json.RawMessage](ctx, client, "/chat/completions", body)
package rest
