// Package bootstrap runs the lifecycle of a medpipe process: it applies
// config defaults, validates, initializes the logger, starts registered
// components, runs configure callbacks and hooks, prints a startup summary,
// and shuts everything down in reverse order.
//
// Long-running services use Run, which blocks until SIGINT/SIGTERM. One-shot
// commands use RunTask, which returns when the task does:
//
//	app, err := bootstrap.NewApp(&cfg)
//	if err != nil {
//	    return err
//	}
//	app.RegisterComponent(server.NewComponent(srv))
//	return app.Run(ctx)
package bootstrap
