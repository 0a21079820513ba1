package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileSystem abstracts file lookups so tests can resolve paths without disk access.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// OSFileSystem implements FileSystem on the real filesystem.
type OSFileSystem struct{}

func (OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (OSFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// Sources records which files fed a configuration load.
type Sources struct {
	ConfigFile string
	EnvFile    string
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
	Defaults   map[string]any
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithDefaults seeds viper defaults before files and environment are read.
func WithDefaults(defaults map[string]any) LoaderOption {
	return func(lc *LoaderConfig) { lc.Defaults = defaults }
}

// Resolve finds the config and env files for a service. Explicit paths win.
func Resolve(serviceName string, lc LoaderConfig) Sources {
	src := Sources{ConfigFile: lc.ConfigFile, EnvFile: lc.EnvFile}
	if src.ConfigFile == "" {
		src.ConfigFile = firstExisting(lc.FileSystem, []string{
			fmt.Sprintf("./cmd/%s/config.yml", serviceName),
			"./config/config.yml",
			"./config.yml",
			fmt.Sprintf("/etc/%s/config.yml", serviceName),
		})
	}
	if src.EnvFile == "" {
		src.EnvFile = firstExisting(lc.FileSystem, []string{
			fmt.Sprintf("./.env.%s", serviceName),
			fmt.Sprintf("./cmd/%s/.env", serviceName),
			"./.env",
		})
	}
	return src
}

func firstExisting(fs FileSystem, paths []string) string {
	for _, p := range paths {
		if fs.Exists(p) {
			return p
		}
	}
	return ""
}

// LoadConfig loads configuration for a service into cfg.
// Order of precedence, lowest first: defaults, config.yml, .env, process environment.
func LoadConfig(serviceName string, cfg interface{}, opts ...LoaderOption) (Sources, error) {
	lc := LoaderConfig{FileSystem: OSFileSystem{}}
	for _, opt := range opts {
		opt(&lc)
	}
	src := Resolve(serviceName, lc)

	v := viper.New()
	for k, val := range lc.Defaults {
		v.SetDefault(k, val)
	}

	if src.ConfigFile != "" {
		v.SetConfigFile(src.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return src, fmt.Errorf("read config file %s: %w", src.ConfigFile, err)
		}
	}

	// .env never overrides variables already present in the process environment.
	if src.EnvFile != "" {
		if err := lc.FileSystem.LoadEnv(src.EnvFile); err != nil {
			return src, fmt.Errorf("load env file %s: %w", src.EnvFile, err)
		}
	}

	v.AutomaticEnv()
	bindEnviron(v, os.Environ())

	if err := v.Unmarshal(cfg); err != nil {
		return src, fmt.Errorf("failed to unmarshal config for service %s: %w", serviceName, err)
	}
	return src, nil
}

// bindEnviron maps UPPER_SNAKE variables onto every nested key they could address.
func bindEnviron(v *viper.Viper, environ []string) {
	for _, env := range environ {
		key, value, ok := strings.Cut(env, "=")
		if !ok || key == "" {
			continue
		}
		for _, variant := range envKeyVariants(key) {
			v.Set(variant, value)
		}
	}
}

// envKeyVariants expands an environment key into candidate viper keys.
//
//	EXTRACTION_LLM_API_KEY -> extraction_llm_api_key, extraction.llm.api.key,
//	                          extraction.llm_api_key, extraction.llm.api_key, ...
func envKeyVariants(envKey string) []string {
	lower := strings.ToLower(envKey)
	parts := strings.Split(lower, "_")
	if len(parts) <= 1 {
		return []string{lower}
	}

	variants := []string{lower, strings.Join(parts, ".")}
	// split once at every position: a.b_c_d, a.b.c_d, ...
	for i := 1; i < len(parts); i++ {
		variants = append(variants, strings.Join(parts[:i], ".")+"."+strings.Join(parts[i:], "_"))
	}
	// first segment as a section, rest split once: a.b.c_d, a.b_c.d
	if len(parts) >= 3 {
		for i := 2; i < len(parts); i++ {
			variants = append(variants, parts[0]+"."+strings.Join(parts[1:i], "_")+"."+strings.Join(parts[i:], "_"))
		}
	}

	seen := make(map[string]bool, len(variants))
	out := variants[:0]
	for _, s := range variants {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
