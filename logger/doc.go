// Package logger provides structured logging on top of zerolog.
//
// Loggers are created once at startup and scoped per component:
//
//	log := logger.New(&cfg.Logging, "medpipe").WithComponent("retriever")
//	log.Info("fetched", logger.Fields(logger.FieldBytes, n))
package logger
