package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var cachePruneAge time.Duration

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and prune the result cache",
	Long: `Answered records are cached by model, options, question and context so
repeated inputs are not scored twice. These commands inspect and shrink
that cache.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache size and age",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached result",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove cached results older than --older-than",
	Args:  cobra.NoArgs,
	RunE:  runCachePrune,
}

func init() {
	cachePruneCmd.Flags().DurationVar(&cachePruneAge, "older-than", 30*24*time.Hour, "remove results stored longer ago than this")
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd, cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	if cacheService == nil {
		return errors.New("cache service not configured")
	}

	stats, err := cacheService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}

	cmd.Printf("Location: %s\n", stats.Location)
	cmd.Printf("Entries:  %d\n", stats.Entries)
	cmd.Printf("Hits:     %d\n", stats.Hits)
	if stats.Entries > 0 {
		cmd.Printf("Oldest:   %s\n", stats.Oldest.Local().Format(time.DateTime))
		cmd.Printf("Newest:   %s\n", stats.Newest.Local().Format(time.DateTime))
	}
	return nil
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	if cacheService == nil {
		return errors.New("cache service not configured")
	}

	n, err := cacheService.Clear(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	cmd.Printf("Removed %d cached results.\n", n)
	return nil
}

func runCachePrune(cmd *cobra.Command, _ []string) error {
	if cacheService == nil {
		return errors.New("cache service not configured")
	}

	n, err := cacheService.Prune(cmd.Context(), cachePruneAge)
	if err != nil {
		return fmt.Errorf("failed to prune cache: %w", err)
	}
	cmd.Printf("Removed %d cached results older than %s.\n", n, cachePruneAge)
	return nil
}
