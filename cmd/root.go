package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "modpack-editor",
	Short: "Edit CurseForge modpacks and their server setup config",
	Long: `modpack-editor edits a modpack folder holding a Curse manifest.json and a
ServerStarter server-setup-config.yaml, either from the browser (serve) or
from the terminal (edit).`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("ip", "", "The ip that the HTTP server listens on (EDITOR_IP)")
	flags.Int("port", 0, "The port that the HTTP server listens on (EDITOR_PORT)")
	flags.Bool("no-cache", false, "Do not read or write the metadata cache (CACHE_DISABLED)")
	flags.Int("workers", 0, "Concurrent metadata lookups (RESOLVE_WORKERS)")

	for key, name := range map[string]string{
		"EDITOR_IP":       "ip",
		"EDITOR_PORT":     "port",
		"CACHE_DISABLED":  "no-cache",
		"RESOLVE_WORKERS": "workers",
	} {
		_ = viper.BindPFlag(key, flags.Lookup(name))
	}
}
