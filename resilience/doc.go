// Package resilience provides retry, circuit breaker, bulkhead, and rate
// limiting patterns for calls to upstream services.
//
// Nothing is applied implicitly. Deployments opt in through Settings, which
// the composition root turns into per-capability policies:
//
//	if rc := settings.RetryConfig(httpclient.IsRetryable); rc != nil {
//	    result, err = resilience.Retry(ctx, *rc, call)
//	}
package resilience
