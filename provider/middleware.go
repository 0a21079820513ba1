package provider

// Middleware decorates a capability with a cross-cutting concern.
type Middleware[I, O any] func(RequestResponse[I, O]) RequestResponse[I, O]

// Chain folds middlewares into one. The first listed is the outermost, so
// Chain(logging, tracing)(rr) logs the whole traced call.
func Chain[I, O any](mws ...Middleware[I, O]) Middleware[I, O] {
	return func(rr RequestResponse[I, O]) RequestResponse[I, O] {
		wrapped := rr
		for i := range mws {
			wrapped = mws[len(mws)-1-i](wrapped)
		}
		return wrapped
	}
}
