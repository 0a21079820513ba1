package provider

import "context"

// Provider is the base interface every capability backend implements.
type Provider interface {
	// Name returns the provider's unique name.
	Name() string
	// IsAvailable checks if the provider is ready to handle requests.
	IsAvailable(ctx context.Context) bool
}

// Closeable is implemented by providers that hold resources.
type Closeable interface {
	Close(ctx context.Context) error
}
