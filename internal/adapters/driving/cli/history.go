package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent runs",
	Long:  `Lists recent answer runs with their model, record counts and duration.`,
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of runs")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	runs, err := historyService.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	if len(runs) == 0 {
		cmd.Println("No runs recorded.")
		return nil
	}

	for _, r := range runs {
		cmd.Printf("%s  %s\n", r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.ID)
		cmd.Printf("    Model:    %s\n", r.Model)
		cmd.Printf("    Records:  %d (%d failed, %d cached)\n", r.Examples, r.Failures, r.CacheHits)
		cmd.Printf("    Duration: %s\n", r.Duration.Round(time.Millisecond))
	}
	return nil
}
