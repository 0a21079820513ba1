package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/medpipe/app"
	"github.com/kbukum/medpipe/config"
)

var (
	configFile string
	envFile    string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "medpipe",
	Short: "Medical AI pipeline: transcription, extraction and diagnosis",
	Long: `medpipe turns a consultation recording into structured medical data and
a diagnosis. Each stage is available over HTTP (medpipe serve) and as a
one-shot command that prints the same JSON envelope the HTTP API returns.

Configuration is read from config.yml, .env and the process environment,
in increasing order of precedence. OPENAI_API_KEY and PERPLEXITY_API_KEY
supply every capability that has no key of its own.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config.yml")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to a .env file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(transcribeCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(diagnoseCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig() (*app.Config, error) {
	var opts []config.LoaderOption
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	if envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}
	cfg := &app.Config{}
	if _, err := config.LoadConfig(app.ServiceName, cfg, opts...); err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}
