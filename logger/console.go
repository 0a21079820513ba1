package logger

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

const (
	ansiReset = "\033[0m"
	ansiBlue  = "\033[34m"
)

var levelStyle = map[string][2]string{
	"debug": {"DBG", "\033[36m"},
	"info":  {"INF", "\033[32m"},
	"warn":  {"WRN", "\033[33m"},
	"error": {"ERR", "\033[31m"},
	"fatal": {"FTL", "\033[35m"},
}

func isConsole(format string) bool {
	f := strings.ToLower(format)
	return f == FormatConsole || f == FormatPretty
}

func paint(s, color string, noColor bool) string {
	if noColor {
		return s
	}
	return color + s + ansiReset
}

// consoleWriter prints "[MED][INF] message key:value", the first prefix
// being the upper-cased first three letters of the service name.
func consoleWriter(cfg *Config, service string, w io.Writer) zerolog.ConsoleWriter {
	var prefix string
	if len(service) >= 3 {
		prefix = paint("["+strings.ToUpper(service[:3])+"]", ansiBlue, cfg.NoColor)
	}
	return zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
		NoColor:    cfg.NoColor,
		FormatLevel: func(i any) string {
			name := strings.ToLower(fmt.Sprint(i))
			style, ok := levelStyle[name]
			if !ok {
				return prefix + "[" + strings.ToUpper(name) + "]"
			}
			return prefix + paint("["+style[0]+"]", style[1], cfg.NoColor)
		},
		FormatFieldName: func(i any) string { return fmt.Sprint(i) + ":" },
	}
}
