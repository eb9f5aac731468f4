package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/quanswer/internal/adapters/driving/tui"
	"github.com/custodia-labs/quanswer/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/quanswer/internal/logger"
)

var (
	askPassage    string
	askModel      string
	askTopK       int
	askMustAnswer bool
)

var askCmd = &cobra.Command{
	Use:   "ask [file]",
	Short: "Ask questions about a passage interactively",
	Long: `Opens an interactive terminal UI over one passage, read from the file
argument, --context or stdin. A passage file is reloaded when it changes.
Every question is answered with its top
candidates and the passage is shaded by inclusion probability.

Controls:
  Enter          - Ask
  ↓/Tab, ↑       - Select answer candidate
  Esc            - Clear (quit when empty)
  Ctrl+C         - Quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().SetNormalizeFunc(langAlias)
	askCmd.Flags().StringVarP(&askPassage, "context", "c", "", "passage to ask about")
	askCmd.Flags().StringVar(&askModel, "model", "en", "language code or model to use (alias --lang)")
	askCmd.Flags().IntVar(&askTopK, "topk", 3, "number of answer candidates")
	askCmd.Flags().BoolVar(&askMustAnswer, "mustanswer", false, "disallow the empty answer")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) (err error) {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	passage, err := readPassage(cmd, args)
	if err != nil {
		return err
	}
	if !isTerminal(cmd.OutOrStdout()) {
		return errors.New("ask needs an interactive terminal")
	}

	opts, _ := answerOptions()
	opts.TopK = askTopK
	opts.MustAnswer = askMustAnswer

	app, err := tui.NewApp(&tui.Ports{Answer: answerService}, tui.Config{
		Model:   askModel,
		Passage: passage,
		Options: opts,
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in TUI: %v\n%s", r, debug.Stack())
		}
	}()

	progOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(cmd.Context())}
	if stdinIsPipe() {
		progOpts = append(progOpts, tea.WithInputTTY())
	}
	p := tea.NewProgram(app, progOpts...)

	if askPassage == "" && len(args) == 1 && args[0] != "-" {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		err := watchPassage(ctx, args[0], func(passage string) {
			p.Send(messages.PassageChanged{Passage: passage})
		})
		if err != nil {
			logger.Warn("Not watching %s: %v", args[0], err)
		}
	}
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// readPassage takes the passage from --context, the file argument or stdin.
func readPassage(cmd *cobra.Command, args []string) (string, error) {
	if askPassage != "" {
		return askPassage, nil
	}

	in, closeInput, err := openInput(cmd, args)
	if err != nil {
		if errors.Is(err, errNoInput) {
			return "", errors.New("no passage: pass a file, --context or pipe text on stdin")
		}
		return "", err
	}
	defer closeInput()

	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("reading passage: %w", err)
	}
	if len(data) == 0 {
		return "", tui.ErrEmptyPassage
	}
	return string(data), nil
}

// stdinIsPipe reports whether stdin was redirected, which leaves the TUI
// without keyboard input.
func stdinIsPipe() bool {
	return !isTerminal(os.Stdin)
}
