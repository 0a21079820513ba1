package config

import (
	"fmt"
	"slices"

	"github.com/kbukum/medpipe/logger"
)

// Deployment environments.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

var environments = []string{EnvDevelopment, EnvStaging, EnvProduction}

// ServiceConfig holds the identity and logging settings of the process.
// Application configs embed it with `mapstructure:",squash"` so its keys sit
// at the top level of the file.
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// Service exposes the embedded ServiceConfig through promoted methods.
func (c *ServiceConfig) Service() *ServiceConfig { return c }

// ApplyDefaults turns debug on in development and lowers the log level with it.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = EnvDevelopment
	}
	c.Debug = c.Debug || c.Environment == EnvDevelopment
	if c.Logging.Service == "" {
		c.Logging.Service = c.Name
	}
	if c.Logging.Level == "" && c.Debug {
		c.Logging.Level = "debug"
	}
	c.Logging.ApplyDefaults()
}

func (c *ServiceConfig) Validate() error {
	switch {
	case c.Name == "":
		return fmt.Errorf("config.name is required")
	case !slices.Contains(environments, c.Environment):
		return fmt.Errorf("config.environment must be one of %v (got: %s)", environments, c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}
