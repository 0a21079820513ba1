// Package httpclient provides the outbound HTTP adapter shared by the file
// retriever and every AI capability client.
//
// Bodies are read incrementally and never beyond a byte limit, so a hostile
// or misbehaving upstream cannot force unbounded buffering:
//
//	a, _ := httpclient.New(httpclient.Config{Timeout: 30 * time.Second})
//	resp, err := a.Do(ctx, httpclient.Request{Path: url, MaxBytes: 50 << 20})
//	if httpclient.IsTooLarge(err) { ... }
//
// Retry, circuit breaking, and rate limiting are opt-in through Config.
// The rest subpackage layers typed JSON calls on top.
package httpclient
