package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kbukum/medpipe/component"
	"github.com/kbukum/medpipe/logger"
)

var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// App owns the lifecycle of a process built from a config of type C.
//
//	a, err := bootstrap.NewApp(cfg)
//	p, err := app.Setup(ctx, a)    // registers components
//	err = a.Run(ctx)               // or a.RunTask(ctx, task)
//
// Components must be registered before Run or RunTask starts them.
type App[C Config] struct {
	Name       string
	Version    string
	Cfg        C
	Components *component.Registry
	Logger     *logger.Logger
	Summary    *Summary

	settings  settings
	configure []func(ctx context.Context, a *App[C]) error
	hooks     hookSet
}

// NewApp defaults and validates cfg, then prepares the logger, the component
// registry and the startup summary.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	svc := cfg.Service()
	s := newSettings(opts)

	log := s.logger
	if log == nil {
		log = logger.Init(svc.Logging)
	}
	return &App[C]{
		Name:       svc.Name,
		Version:    svc.Version,
		Cfg:        cfg,
		Components: component.NewRegistry(log),
		Logger:     log,
		Summary:    NewSummary(svc.Name, svc.Version),
		settings:   s,
	}, nil
}

// RegisterComponent adds c to the registry.
func (a *App[C]) RegisterComponent(c component.Component) error {
	return a.Components.Register(c)
}

// OnConfigure adds a callback that runs after components and start hooks,
// with typed access to the app.
func (a *App[C]) OnConfigure(fn func(ctx context.Context, a *App[C]) error) {
	a.configure = append(a.configure, fn)
}

// ReadyCheck reports every component that is not healthy.
func (a *App[C]) ReadyCheck(ctx context.Context) error {
	var bad []string
	for _, h := range a.Components.HealthAll(ctx) {
		if h.Status == component.StatusHealthy {
			continue
		}
		s := h.Name + " " + string(h.Status)
		if h.Message != "" {
			s += ": " + h.Message
		}
		bad = append(bad, s)
	}
	if len(bad) == 0 {
		return nil
	}
	return errors.New("not ready: " + strings.Join(bad, "; "))
}

// Run starts the app, blocks until ctx is done or a shutdown signal arrives,
// then shuts down gracefully.
func (a *App[C]) Run(ctx context.Context) error {
	if err := a.start(ctx); err != nil {
		return err
	}
	a.Logger.Info("Ready, waiting for shutdown signal")
	a.WaitForSignal(ctx)
	return a.stop(ctx)
}

// RunTask starts the app, runs task and shuts down when it returns. The
// task context is canceled on SIGINT or SIGTERM. A task error takes
// precedence over a shutdown error.
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	if err := a.start(ctx); err != nil {
		return err
	}
	taskCtx, cancel := signal.NotifyContext(ctx, shutdownSignals...)
	err := task(taskCtx)
	cancel()

	if stopErr := a.stop(ctx); err == nil {
		err = stopErr
	}
	return err
}

// WaitForSignal blocks until a shutdown signal arrives or ctx is done. It
// returns nil in the latter case.
func (a *App[C]) WaitForSignal(ctx context.Context) os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, shutdownSignals...)
	defer signal.Stop(ch)

	select {
	case sig := <-ch:
		a.Logger.Info("Shutdown signal received", logger.Fields("signal", sig.String()))
		return sig
	case <-ctx.Done():
		a.Logger.Info("Context done, shutting down")
		return nil
	}
}

// Shutdown runs stop hooks and stops components, for callers that manage
// their own lifecycle.
func (a *App[C]) Shutdown(ctx context.Context) error {
	return a.stop(ctx)
}

// DisplaySummary writes the startup summary unless it was suppressed.
func (a *App[C]) DisplaySummary() {
	if a.settings.summary != nil {
		a.Summary.Write(a.settings.summary, a.Components)
	}
}

func (a *App[C]) start(ctx context.Context) error {
	began := time.Now()
	a.Logger.Info("Starting", logger.Fields("name", a.Name, "version", a.Version))

	if err := a.Components.StartAll(ctx); err != nil {
		return fmt.Errorf("start components: %w", err)
	}
	if err := a.prepare(ctx); err != nil {
		// Components are up at this point; take them down again.
		return errors.Join(err, a.Components.StopAll(ctx))
	}

	a.Summary.SetStartupDuration(time.Since(began))
	a.DisplaySummary()
	return nil
}

func (a *App[C]) prepare(ctx context.Context) error {
	if err := a.hooks.run(ctx, phaseStart); err != nil {
		return err
	}
	for _, fn := range a.configure {
		if err := fn(ctx, a); err != nil {
			return fmt.Errorf("configure: %w", err)
		}
	}
	// Health problems are logged, not fatal: the probes expose them.
	if err := a.ReadyCheck(ctx); err != nil {
		a.Logger.Warn("Started with unhealthy components", logger.Fields(logger.FieldError, err.Error()))
	}
	return a.hooks.run(ctx, phaseReady)
}

// stop is bounded by the graceful timeout. It survives cancellation of ctx
// so that shutdown after a signal still completes.
func (a *App[C]) stop(ctx context.Context) error {
	a.Logger.Info("Shutting down", logger.Fields("timeout", a.settings.grace.String()))
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.settings.grace)
	defer cancel()

	hookErr := a.hooks.run(ctx, phaseStop)
	if hookErr != nil {
		a.Logger.Error("Stop hook failed", logger.Fields(logger.FieldError, hookErr.Error()))
	}
	err := errors.Join(hookErr, a.Components.StopAll(ctx))
	if err != nil {
		a.Logger.Error("Shutdown finished with errors", logger.Fields(logger.FieldError, err.Error()))
		return err
	}
	a.Logger.Info("Shutdown complete")
	return nil
}
