package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List known question answering models",
	Long: `Lists the default model for every language and any other model loaded
in this process, with whether its files are already downloaded.`,
	Args: cobra.NoArgs,
	RunE: runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, _ []string) error {
	if modelService == nil {
		return errors.New("model service not configured")
	}

	models, err := modelService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	if len(models) == 0 {
		cmd.Println("No models configured.")
		return nil
	}

	cmd.Println("Models:")
	cmd.Println()
	for _, m := range models {
		lang := m.Lang
		if lang == "" {
			lang = "-"
		}
		status := "not downloaded"
		if m.Local {
			status = "downloaded"
		}
		if m.Loaded {
			status += ", loaded"
		}
		cmd.Printf("  %-4s %s (%s)\n", lang, m.Name, status)
	}
	return nil
}
