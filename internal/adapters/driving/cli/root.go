// Package cli implements the quanswer command line.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/quanswer/internal/core/ports/driving"
	"github.com/custodia-labs/quanswer/internal/logger"
)

// version is set at build time with -ldflags.
var version = "dev"

// Services used by the commands. Set by the factory before a command runs.
var (
	answerService   driving.AnswerService
	modelService    driving.ModelService
	settingsService driving.SettingsService
	historyService  driving.HistoryService
	cacheService    driving.CacheService
	closeServices   func() error
)

// Config carries the global flags the service factory needs.
type Config struct {
	// ConfigPath overrides the default config file location.
	ConfigPath string

	// NoCache disables the persistent result cache for this run.
	NoCache bool
}

// Services bundles the driving ports the commands depend on.
type Services struct {
	Answer   driving.AnswerService
	Models   driving.ModelService
	Settings driving.SettingsService
	History  driving.HistoryService
	Cache    driving.CacheService

	// Close releases models and stores. May be nil.
	Close func() error
}

// Factory builds the services for one invocation.
type Factory func(ctx context.Context, cfg Config) (*Services, error)

var factory Factory

// SetFactory installs the service factory. Called once from main.
func SetFactory(f Factory) {
	factory = f
}

// SetVersion sets the version reported by "quanswer version".
func SetVersion(v string) {
	version = v
}

// Global flags.
var (
	configPath string
	noCache    bool
	verbose    bool
)

// skipServices marks commands that run without the service factory.
const skipServices = "skip-services"

var rootCmd = &cobra.Command{
	Use:   "quanswer [file]",
	Short: "Answer questions against context passages",
	Long: `Answers natural-language questions against a supplied passage with an
extractive question answering model.

Records are read from the file argument or stdin, as JSON lines or CSV with
"context" and "question" columns, or as a SQuAD dataset file. With --tokens
every context word is scored with the probability that it lies inside the
answer.`,
	Args:               cobra.MaximumNArgs(1),
	SilenceUsage:       true,
	PersistentPreRunE:  setupServices,
	PersistentPostRunE: teardownServices,
	RunE:               runAnswer,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.quanswer/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "do not read or write the persistent result cache")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

func setupServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if _, ok := cmd.Annotations[skipServices]; ok || factory == nil {
		return nil
	}

	svc, err := factory(cmd.Context(), Config{ConfigPath: configPath, NoCache: noCache})
	if err != nil {
		return err
	}
	answerService = svc.Answer
	modelService = svc.Models
	settingsService = svc.Settings
	historyService = svc.History
	cacheService = svc.Cache
	closeServices = svc.Close
	return nil
}

func teardownServices(_ *cobra.Command, _ []string) error {
	if closeServices == nil {
		return nil
	}
	err := closeServices()
	closeServices = nil
	return err
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if cerr := teardownServices(nil, nil); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// ErrItemsFailed is returned when at least one record could not be answered.
var ErrItemsFailed = errors.New("some records failed")
