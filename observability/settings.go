package observability

import "time"

// Settings is the deployment-facing observability configuration.
// Tracing and metrics export are off unless enabled.
type Settings struct {
	Tracing struct {
		Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
		Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
		Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
		SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
	} `yaml:"tracing" mapstructure:"tracing"`

	Metrics struct {
		Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
		Endpoint string        `yaml:"endpoint" mapstructure:"endpoint"`
		Insecure bool          `yaml:"insecure" mapstructure:"insecure"`
		Interval time.Duration `yaml:"interval" mapstructure:"interval"`
	} `yaml:"metrics" mapstructure:"metrics"`
}

// An unset endpoint means the local collector, which speaks plain HTTP.
func endpoint(configured string, insecure bool) (string, bool) {
	if configured == "" {
		return DefaultEndpoint, true
	}
	return configured, insecure
}

// TracerConfig resolves the tracing settings for res. Every trace is kept
// unless a sample rate is set.
func (s Settings) TracerConfig(res Resource) TracerConfig {
	cfg := TracerConfig{Resource: res, SampleRate: 1}
	cfg.Endpoint, cfg.Insecure = endpoint(s.Tracing.Endpoint, s.Tracing.Insecure)
	if s.Tracing.SampleRate > 0 {
		cfg.SampleRate = s.Tracing.SampleRate
	}
	return cfg
}

// MeterConfig resolves the metrics settings for res.
func (s Settings) MeterConfig(res Resource) MeterConfig {
	cfg := MeterConfig{Resource: res, Interval: DefaultExportInterval}
	cfg.Endpoint, cfg.Insecure = endpoint(s.Metrics.Endpoint, s.Metrics.Insecure)
	if s.Metrics.Interval > 0 {
		cfg.Interval = s.Metrics.Interval
	}
	return cfg
}
