package bootstrap

import (
	"context"
	"fmt"
)

// Hook is a lifecycle callback.
type Hook func(ctx context.Context) error

type phase int

const (
	phaseStart phase = iota
	phaseReady
	phaseStop
	phaseCount
)

func (p phase) String() string {
	switch p {
	case phaseStart:
		return "start"
	case phaseReady:
		return "ready"
	default:
		return "stop"
	}
}

type hookSet [phaseCount][]Hook

// run calls the hooks of p in registration order and stops at the first error.
func (h *hookSet) run(ctx context.Context, p phase) error {
	for i, fn := range h[p] {
		if err := fn(ctx); err != nil {
			return fmt.Errorf("%s hook #%d: %w", p, i+1, err)
		}
	}
	return nil
}

// OnStart adds hooks that run once components are started, before the
// configure callbacks.
func (a *App[C]) OnStart(hooks ...Hook) { a.hooks[phaseStart] = append(a.hooks[phaseStart], hooks...) }

// OnReady adds hooks that run after the ready check.
func (a *App[C]) OnReady(hooks ...Hook) { a.hooks[phaseReady] = append(a.hooks[phaseReady], hooks...) }

// OnStop adds hooks that run at shutdown, before components are stopped.
func (a *App[C]) OnStop(hooks ...Hook) { a.hooks[phaseStop] = append(a.hooks[phaseStop], hooks...) }
