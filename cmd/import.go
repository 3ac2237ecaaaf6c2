package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"modpack-editor/logger"
	"modpack-editor/modpack"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var importCmd = &cobra.Command{
	Use:   "import <file|-> <folder>",
	Short: "Write a manifest into a modpack folder",
	Long: `Validates a Curse manifest.json document read from <file> (or stdin
when <file> is -) and writes it into the modpack in <folder>. The folder is
created from the blank pack template when it does not exist yet.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(args[0], cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		pack, err := importManifest(data, args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %s %s into %s (%d files)\n",
			pack.CurseManifest.Name, pack.CurseManifest.Version, pack.Folder, len(pack.CurseManifest.Files))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}

// importManifest replaces the manifest of the pack in folder with data. The
// server setup config of an existing pack is kept.
func importManifest(data []byte, folder string) (*modpack.Modpack, error) {
	manifest, err := modpack.ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	pack, err := modpack.Load(folder)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Log.Infow("Creating modpack", zap.String("folder", folder))
		pack, err = modpack.Create(folder)
	}
	if err != nil {
		logger.Log.Errorw("Failed to open modpack", zap.String("folder", folder), zap.Error(err))
		return nil, err
	}

	pack.CurseManifest = manifest
	if err := pack.WriteFiles(); err != nil {
		logger.Log.Errorw("Failed to write modpack", zap.String("folder", pack.Folder), zap.Error(err))
		return nil, err
	}
	logger.Log.Infow("Imported manifest", zap.String("folder", pack.Folder), zap.Int("files", len(manifest.Files)))
	return pack, nil
}
