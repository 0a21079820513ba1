package llm

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Dialect translates completions to and from one provider's wire format.
// Implementations live in sub-packages and register themselves from init.
type Dialect interface {
	Name() string
	// ChatPath is the completion endpoint relative to the base URL.
	ChatPath() string
	// HealthPath is probed by IsAvailable. Empty skips the probe.
	HealthPath() string
	BuildRequest(req CompletionRequest) (any, error)
	ParseResponse(body []byte) (*CompletionResponse, error)
}

type dialectRegistry struct {
	mu     sync.RWMutex
	byName map[string]Dialect
}

var registry = &dialectRegistry{byName: map[string]Dialect{}}

// RegisterDialect makes d selectable by name from Config.Dialect. A later
// registration under the same name replaces the earlier one.
func RegisterDialect(name string, d Dialect) {
	registry.mu.Lock()
	registry.byName[name] = d
	registry.mu.Unlock()
}

// GetDialect looks up a registered dialect.
func GetDialect(name string) (Dialect, error) {
	registry.mu.RLock()
	d, ok := registry.byName[name]
	registry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("llm: unknown dialect %q (registered: %s)", name, strings.Join(Dialects(), ", "))
	}
	return d, nil
}

// Dialects lists the registered dialect names in order.
func Dialects() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return slices.Sorted(maps.Keys(registry.byName))
}
