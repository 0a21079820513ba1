package bootstrap

import (
	"io"
	"os"
	"time"

	"github.com/kbukum/medpipe/logger"
)

// DefaultGracefulTimeout bounds shutdown when no timeout is given.
const DefaultGracefulTimeout = 15 * time.Second

// Option customizes NewApp. Options carry no config type parameter, so the
// same option works for every App.
type Option func(*settings)

type settings struct {
	logger  *logger.Logger
	grace   time.Duration
	summary io.Writer
}

func newSettings(opts []Option) settings {
	s := settings{grace: DefaultGracefulTimeout, summary: os.Stderr}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithLogger replaces the logger built from the config's logging section.
func WithLogger(l *logger.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithGracefulTimeout bounds how long stop hooks and component shutdown may take.
func WithGracefulTimeout(d time.Duration) Option {
	return func(s *settings) { s.grace = d }
}

// WithSummaryOutput redirects the startup summary, stderr by default.
func WithSummaryOutput(w io.Writer) Option {
	return func(s *settings) { s.summary = w }
}

// WithoutSummary suppresses the startup summary. One-shot CLI runs use it
// so that stdout carries only their result.
func WithoutSummary() Option {
	return WithSummaryOutput(nil)
}
