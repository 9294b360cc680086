package commands

import (
	"fmt"
	"time"

	"github.com/penwyp/go-dreyevr-parser/internal/data/cache"
	"github.com/penwyp/go-dreyevr-parser/internal/util"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear cached results",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached result",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fileCache, err := cache.NewFileCache(appConfig.CacheDir)
		if err != nil {
			return err
		}
		if err := fileCache.Clear(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		util.LogInfo("Cache cleared")
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", appConfig.CacheDir)
		return nil
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "List cached results",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd, cacheStatsCmd)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	fileCache, err := cache.NewFileCache(appConfig.CacheDir)
	if err != nil {
		return err
	}
	stats, err := fileCache.Stats()
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Cache directory: %s\n", appConfig.CacheDir)
	fmt.Fprintf(w, "Entries: %d, partitions: %d, size: %s\n",
		len(stats.Entries), stats.Partitions, util.FormatBytes(stats.TotalBytes))
	if len(stats.Entries) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s %s %s\n",
		util.PadRight("Identity", 20), util.PadLeft("Size", 10), util.PadRight("Source modified", 20), "Source")
	for _, entry := range stats.Entries {
		modified := "-"
		if entry.Meta.ModTime > 0 {
			modified = time.Unix(entry.Meta.ModTime, 0).Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%s %s %s %s\n",
			util.PadRight(util.Truncate(entry.Identity, 20), 20),
			util.PadLeft(util.FormatBytes(entry.Bytes), 10),
			util.PadRight(modified, 20),
			entry.Meta.SourcePath)
	}
	return nil
}
