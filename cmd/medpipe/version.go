package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/medpipe/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		info := version.Get()
		fmt.Fprintf(cmd.OutOrStdout(), "medpipe %s\n", info)
		fmt.Fprintf(cmd.OutOrStdout(), "  go: %s %s\n", info.GoVersion, info.Platform)
	},
}
