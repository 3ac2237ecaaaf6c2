package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"modpack-editor/config"
	"modpack-editor/db"
	"modpack-editor/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errCacheDisabled = errors.New("metadata cache is disabled")

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or prune the CurseForge metadata cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show how many entries the cache holds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cache, err := loadCache()
		if err != nil {
			return err
		}
		return printCacheStats(cmd.OutOrStdout(), cache)
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove cache entries older than a given age",
	Long: `Removes cached project entries that were last queried longer ago than
--older-than. File and slug lookups and the last opened pack are kept.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		olderThan, _ := cmd.Flags().GetDuration("older-than")
		cache, err := loadCache()
		if err != nil {
			return err
		}
		return pruneCache(cmd.OutOrStdout(), cache, time.Now().Add(-olderThan))
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cache, err := loadCache()
		if err != nil {
			return err
		}
		if err := cache.Clear(); err != nil {
			logger.Log.Errorw("Failed to clear cache", zap.Error(err))
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd, cachePruneCmd, cacheClearCmd)
	cachePruneCmd.Flags().Duration("older-than", 7*24*time.Hour, "Age after which entries are removed")
}

func loadCache() (*db.Cache, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Errorw("Failed to load configuration", zap.Error(err))
		return nil, err
	}
	cache := openCache(cfg)
	if cache == nil {
		return nil, errCacheDisabled
	}
	return cache, nil
}

func printCacheStats(w io.Writer, cache *db.Cache) error {
	stats, err := cache.Stats()
	if err != nil {
		logger.Log.Errorw("Failed to read cache stats", zap.Error(err))
		return err
	}
	fmt.Fprintf(w, "Projects: %d\nFiles:    %d\nSlugs:    %d\n", stats.Addons, stats.Files, stats.Slugs)
	if folder, ok := cache.LastOpened(); ok {
		fmt.Fprintf(w, "Last opened: %s\n", folder)
	}
	return nil
}

func pruneCache(w io.Writer, cache *db.Cache, cutoff time.Time) error {
	removed, err := cache.Prune(cutoff)
	if err != nil {
		logger.Log.Errorw("Failed to prune cache", zap.Time("cutoff", cutoff), zap.Error(err))
		return err
	}
	logger.Log.Infow("Pruned cache", zap.Int64("removed", removed), zap.Time("cutoff", cutoff))
	fmt.Fprintf(w, "Removed %d entries\n", removed)
	return nil
}
