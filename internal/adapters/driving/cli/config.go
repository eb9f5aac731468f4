package cli

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage quanswer settings",
	Long: `View and change settings stored in ~/.quanswer/config.toml.

Settings use dot-notation keys such as qa.workers or models.nl. Environment
variables prefixed with QUANSWER_ override the file for a single run.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List settable keys",
	RunE:  runConfigKeys,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file location",
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configKeysCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	cmd.Println("Models")
	cmd.Printf("  Directory:       %s\n", orDefault(settings.Models.Dir))
	cmd.Printf("  Runtime library: %s\n", orDefault(settings.Models.RuntimeLibrary))
	if len(settings.Models.Languages) > 0 {
		langs := make([]string, 0, len(settings.Models.Languages))
		for lang := range settings.Models.Languages {
			langs = append(langs, lang)
		}
		sort.Strings(langs)
		for _, lang := range langs {
			cmd.Printf("  %-16s %s\n", lang+":", settings.Models.Languages[lang])
		}
	}
	cmd.Println()

	cmd.Println("Question answering")
	cmd.Printf("  Max sequence:    %d tokens\n", settings.QA.MaxSeqLen)
	cmd.Printf("  Max answer:      %d tokens\n", settings.QA.MaxAnswerLen)
	cmd.Printf("  Workers:         %d\n", settings.QA.Workers)
	cmd.Printf("  Batch:           %d\n", settings.QA.Batch)
	cmd.Printf("  Alignment:       %s\n", settings.QA.Alignment.Description())
	cmd.Printf("  Context first:   %s\n", orModel(settings.QA.Layout.ContextFirst))
	cmd.Printf("  Pad left:        %s\n", orModel(settings.QA.Layout.PadLeft))
	cmd.Printf("  Pad to max:      %s\n", orModel(settings.QA.Layout.PadToMax))
	cmd.Println()

	cmd.Println("Cache")
	cmd.Printf("  Enabled:         %t\n", settings.Cache.Enabled)
	cmd.Printf("  Directory:       %s\n", orDefault(settings.Cache.Dir))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("%s = %s\n", args[0], args[1])
	return nil
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Println(settingsService.Path())
	return nil
}

// orModel renders an optional layout override.
func orModel(b *bool) string {
	if b == nil {
		return "(from model)"
	}
	return strconv.FormatBool(*b)
}

func orDefault(s string) string {
	if s == "" {
		return "(default)"
	}
	return s
}
