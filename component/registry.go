package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/medpipe/logger"
)

// stopTimeout bounds each component's Stop call.
const stopTimeout = 10 * time.Second

type slot struct {
	Component
	running bool
}

// Registry owns a set of uniquely named components. They start in
// registration order and stop in reverse, so register dependencies first.
type Registry struct {
	mu     sync.RWMutex
	slots  []*slot
	byName map[string]*slot
	log    *logger.Logger
}

// NewRegistry returns an empty registry. A nil log discards output.
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{byName: map[string]*slot{}, log: log.WithComponent("components")}
}

// Register adds c. Names must be unique.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, dup := r.byName[name]; dup {
		return fmt.Errorf("component %q already registered", name)
	}
	s := &slot{Component: c}
	r.slots = append(r.slots, s)
	r.byName[name] = s
	r.log.Debug("Component registered", logger.Fields(logger.FieldComponent, name))
	return nil
}

// StartAll starts every component. When one fails, those already running
// are stopped again and the start error is returned with any stop errors.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log.Info("Starting components", logger.Fields("count", len(r.slots)))
	for _, s := range r.slots {
		if err := s.Start(ctx); err != nil {
			r.log.Error("Component failed to start", logger.Fields(
				logger.FieldComponent, s.Name(),
				logger.FieldError, err.Error(),
			))
			return errors.Join(fmt.Errorf("failed to start %s: %w", s.Name(), err), r.stopRunning(ctx))
		}
		s.running = true
	}
	r.log.Info("Components started")
	return nil
}

// StopAll stops every running component, last registered first, giving each
// at most stopTimeout. All stop errors are joined.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log.Info("Stopping components")
	err := r.stopRunning(ctx)
	if err == nil {
		r.log.Info("Components stopped")
	}
	return err
}

func (r *Registry) stopRunning(ctx context.Context) error {
	var errs []error
	for i := len(r.slots) - 1; i >= 0; i-- {
		s := r.slots[i]
		if !s.running {
			continue
		}
		s.running = false
		if err := stopWithin(ctx, s); err != nil {
			r.log.Error("Component failed to stop", logger.Fields(
				logger.FieldComponent, s.Name(),
				logger.FieldError, err.Error(),
			))
			errs = append(errs, fmt.Errorf("failed to stop %s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func stopWithin(ctx context.Context, c Component) error {
	ctx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()
	return c.Stop(ctx)
}

// HealthAll collects every component's health in registration order.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Health, len(r.slots))
	for i, s := range r.slots {
		out[i] = s.Health(ctx)
	}
	return out
}

// Get returns the component registered as name, or nil.
func (r *Registry) Get(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.byName[name]; ok {
		return s.Component
	}
	return nil
}

// All returns the components in registration order.
func (r *Registry) All() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Component, len(r.slots))
	for i, s := range r.slots {
		out[i] = s.Component
	}
	return out
}
