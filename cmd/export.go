package cmd

import (
	"fmt"
	"io"
	"os"

	"modpack-editor/logger"
	"modpack-editor/modpack"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var exportCmd = &cobra.Command{
	Use:   "export <folder>",
	Short: "Print the manifest of a modpack",
	Long: `Prints the manifest.json of the modpack in <folder> as indented JSON.
With --server the server-setup-config.yaml is printed instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		server, _ := cmd.Flags().GetBool("server")
		return exportPack(cmd.OutOrStdout(), args[0], server)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().Bool("server", false, "Print the server setup config instead of the manifest")
}

func exportPack(w io.Writer, folder string, server bool) error {
	pack, err := modpack.Load(folder)
	if err != nil {
		logger.Log.Errorw("Failed to load modpack", zap.String("folder", folder), zap.Error(err))
		return err
	}

	var data []byte
	if server {
		data, err = pack.ServerSetupConfig.Marshal()
	} else {
		data, err = pack.CurseManifest.MarshalIndent()
	}
	if err != nil {
		return fmt.Errorf("encoding %s: %w", folder, err)
	}

	if _, err := w.Write(data); err != nil {
		return err
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		_, err = fmt.Fprintln(w)
	}
	return err
}

// readInput reads a whole file, or stdin when name is "-".
func readInput(name string, stdin io.Reader) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(name)
}
