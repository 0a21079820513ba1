package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Output formats.
const (
	FormatConsole = "console"
	FormatPretty  = "pretty"
	FormatJSON    = "json"
)

// Logger is a zerolog logger bound to one service. Derived loggers share its
// writer and level.
type Logger struct {
	zl      zerolog.Logger
	service string
}

// Init builds the process logger from cfg after applying its defaults.
func Init(cfg Config) *Logger {
	cfg.ApplyDefaults()
	return New(&cfg, cfg.Service)
}

// New writes to the stream named by cfg.Output.
func New(cfg *Config, service string) *Logger {
	var w io.Writer = os.Stdout
	if strings.EqualFold(cfg.Output, "stderr") {
		w = os.Stderr
	}
	return NewWithWriter(cfg, service, w)
}

// NewWithWriter writes to w. Unknown levels fall back to info.
func NewWithWriter(cfg *Config, service string, w io.Writer) *Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var ctx zerolog.Context
	if isConsole(cfg.Format) {
		ctx = zerolog.New(consoleWriter(cfg, service, w)).With()
	} else {
		ctx = zerolog.New(w).With()
		if service != "" {
			ctx = ctx.Str(FieldService, service)
		}
	}
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	return &Logger{zl: ctx.Logger().Level(level), service: service}
}

// NewDefault is an info-level console logger with timestamps.
func NewDefault(service string) *Logger {
	return New(&Config{Level: "info", Format: FormatConsole, Timestamp: true}, service)
}

func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

func (l *Logger) derive(with func(zerolog.Context) zerolog.Context) *Logger {
	return &Logger{zl: with(l.zl.With()).Logger(), service: l.service}
}

// WithComponent tags every entry with the component name.
func (l *Logger) WithComponent(name string) *Logger {
	return l.derive(func(c zerolog.Context) zerolog.Context { return c.Str(FieldComponent, name) })
}

// WithError attaches err to every entry.
func (l *Logger) WithError(err error) *Logger {
	return l.derive(func(c zerolog.Context) zerolog.Context { return c.Err(err) })
}

// WithContext tags entries with the request ID carried by ctx. Without one,
// l itself is returned.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	id := RequestIDFromContext(ctx)
	if id == "" {
		return l
	}
	return l.derive(func(c zerolog.Context) zerolog.Context { return c.Str(FieldRequestID, id) })
}

type requestIDKey struct{}

// ContextWithRequestID stores id for WithContext.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (l *Logger) Debug(msg string, fields ...map[string]any) { write(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...map[string]any)  { write(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...map[string]any)  { write(l.zl.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields ...map[string]any) { write(l.zl.Error(), msg, fields) }

// write is a no-op for a disabled level; zerolog returns a nil event.
func write(e *zerolog.Event, msg string, fields []map[string]any) {
	if e == nil {
		return
	}
	for _, m := range fields {
		e.Fields(m)
	}
	e.Msg(msg)
}
