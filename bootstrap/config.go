package bootstrap

import "github.com/kbukum/medpipe/config"

// Config constrains the configuration an App runs with. Embedding
// config.ServiceConfig provides all three methods; an application overriding
// ApplyDefaults or Validate should call the embedded version too.
//
//	type Config struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Server server.Config `yaml:"server" mapstructure:"server"`
//	}
type Config interface {
	Service() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
