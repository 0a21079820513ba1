package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/medpipe/app"
	"github.com/kbukum/medpipe/bootstrap"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pipeline over HTTP",
	Long: `Starts the HTTP API: POST /transcribe, /extract and /diagnose plus their
legacy aliases, GET / for usage, and /health, /livez, /readyz, /version, /info.

Examples:
  medpipe serve
  medpipe serve --port 9000 --config ./config.yml`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen host (overrides server.host)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Listen port (overrides server.port)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serveHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}

	a, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	p, err := app.Setup(ctx, a)
	if err != nil {
		return err
	}
	if _, err := app.Mount(a, p); err != nil {
		return err
	}
	return a.Run(ctx)
}
