package logger

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

var (
	levels  = []string{"trace", "debug", "info", "warn", "error", "fatal"}
	formats = []string{FormatJSON, FormatConsole, FormatPretty}
)

// Config selects level, format and destination. Output is "stdout" or
// "stderr".
type Config struct {
	// Service overrides the service tag; empty means the application name.
	Service   string `yaml:"service" mapstructure:"service"`
	Level     string `yaml:"level" mapstructure:"level"`
	Format    string `yaml:"format" mapstructure:"format"`
	Output    string `yaml:"output" mapstructure:"output"`
	NoColor   bool   `yaml:"no_color" mapstructure:"no_color"`
	Timestamp bool   `yaml:"timestamp" mapstructure:"timestamp"`
	Caller    bool   `yaml:"caller" mapstructure:"caller"`
}

// ApplyDefaults lower-cases the level and always enables timestamps.
func (c *Config) ApplyDefaults() {
	c.Level = cmp.Or(strings.ToLower(c.Level), "info")
	c.Format = cmp.Or(c.Format, FormatConsole)
	c.Output = cmp.Or(c.Output, "stdout")
	c.Timestamp = true
}

func (c *Config) Validate() error {
	if !slices.Contains(levels, c.Level) {
		return fmt.Errorf("logging.level must be one of %v (got: %s)", levels, c.Level)
	}
	if !slices.Contains(formats, c.Format) {
		return fmt.Errorf("logging.format must be one of %v (got: %s)", formats, c.Format)
	}
	return nil
}
