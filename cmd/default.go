package cmd

import (
	"github.com/spf13/cobra"
)

func init() {
	// Running without a subcommand starts the browser editor.
	rootCmd.Args = cobra.NoArgs
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	}
}
