package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/quanswer/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/quanswer/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/quanswer/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/quanswer/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/quanswer/internal/core/domain"
)

// Config selects the passage and how questions about it are answered.
type Config struct {
	// Model is the language code or model name.
	Model string

	// Passage is the context every question is asked against.
	Passage string

	// Options configures answering. Token scores are always requested.
	Options domain.AnswerOptions
}

// App is the question answering TUI following the Elm architecture.
type App struct {
	ports   *Ports
	ctx     context.Context
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	input   *input.QuestionInput
	spinner spinner.Model
	help    help.Model

	model   string
	passage string
	opts    domain.AnswerOptions

	question string
	result   *domain.Result
	selected int
	asked    int
	busy     bool
	err      error

	width  int
	height int
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates the TUI for one passage.
func NewApp(ports *Ports, cfg Config) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	if strings.TrimSpace(cfg.Passage) == "" {
		return nil, ErrEmptyPassage
	}

	opts := cfg.Options
	opts.TokenScores = true

	s := styles.DefaultStyles()
	return &App{
		ports:   ports,
		ctx:     context.Background(),
		styles:  s,
		keymap:  keymap.DefaultKeyMap(),
		input:   input.NewQuestionInput(s),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(s.Title)),
		help:    help.New(),
		model:   cfg.Model,
		passage: cfg.Passage,
		opts:    opts.WithDefaults(),
		width:   80,
		height:  24,
	}, nil
}

// WithContext sets the context for answer calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("quanswer"),
		a.input.Init(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.SetWidth(msg.Width)
		a.help.Width = msg.Width
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.AnswerCompleted:
		a.busy = false
		a.question = msg.Question
		if msg.Err != nil {
			a.err = msg.Err
			a.result = nil
			return a, nil
		}
		a.err = nil
		a.result = msg.Result
		a.selected = 0
		return a, nil

	case messages.PassageChanged:
		if strings.TrimSpace(msg.Passage) == "" {
			return a, nil
		}
		a.passage = msg.Passage
		a.result = nil
		a.selected = 0
		return a, nil

	case spinner.TickMsg:
		if !a.busy {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if keymap.Matches(key, a.keymap.Quit) {
		return a, tea.Quit
	}
	if a.busy {
		return a, nil
	}

	switch {
	case keymap.Matches(key, a.keymap.Ask):
		question := strings.TrimSpace(a.input.Value())
		if question == "" {
			return a, nil
		}
		a.busy = true
		a.err = nil
		return a, tea.Batch(a.spinner.Tick, a.ask(question))

	case keymap.Matches(key, a.keymap.Clear):
		if a.result == nil && a.err == nil && a.input.Value() == "" {
			return a, tea.Quit
		}
		a.result, a.err, a.question = nil, nil, ""
		a.input.Reset()
		return a, nil

	case keymap.Matches(key, a.keymap.Next):
		if a.result != nil && a.selected < len(a.result.Answers)-1 {
			a.selected++
		}
		return a, nil

	case keymap.Matches(key, a.keymap.Prev):
		if a.selected > 0 {
			a.selected--
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// ask answers question in the background.
func (a *App) ask(question string) tea.Cmd {
	a.asked++
	ex := domain.Example{ID: strconv.Itoa(a.asked), Question: question, Context: a.passage}
	ctx, model, opts, svc := a.ctx, a.model, a.opts, a.ports.Answer

	return func() tea.Msg {
		items, err := svc.Answer(ctx, model, []domain.Example{ex}, opts)
		switch {
		case err != nil:
			return messages.AnswerCompleted{Question: question, Err: err}
		case len(items) == 0:
			return messages.AnswerCompleted{Question: question, Err: fmt.Errorf("no result for %q", question)}
		case items[0].Err != nil:
			return messages.AnswerCompleted{Question: question, Err: items[0].Err}
		}
		return messages.AnswerCompleted{Question: question, Result: items[0].Result}
	}
}

// View implements tea.Model.
func (a *App) View() string {
	width := max(a.width-2, 20)
	wrap := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	b.WriteString(a.styles.Title.Render("quanswer") + " " + a.styles.Muted.Render(a.model))
	b.WriteString("\n\n")

	passage := a.passage
	if a.result != nil {
		passage = a.styles.Shade(a.passage, a.result.TokenScores, a.result.TokenSpans)
	}
	b.WriteString(wrap.Render(passage))
	b.WriteString("\n\n")
	b.WriteString(a.input.View())
	b.WriteString("\n\n")

	switch {
	case a.busy:
		b.WriteString(a.spinner.View() + " Answering...")
	case a.err != nil:
		b.WriteString(a.styles.Error.Render("Error: " + a.err.Error()))
	case a.result != nil:
		b.WriteString(a.renderAnswers())
	}
	b.WriteString("\n\n")
	b.WriteString(a.help.ShortHelpView(a.keymap.ShortHelp()))
	return b.String()
}

func (a *App) renderAnswers() string {
	var b strings.Builder
	if a.result.IsAnswered != nil {
		b.WriteString(a.styles.Muted.Render(fmt.Sprintf("Answered: %.3f", *a.result.IsAnswered)))
		b.WriteString("\n")
	}
	if len(a.result.Answers) == 0 {
		b.WriteString(a.styles.Muted.Render("(no answer)"))
		return b.String()
	}
	for i, ans := range a.result.Answers {
		marker := "  "
		text := ans.Text
		if text == "" {
			text = "(no answer)"
		}
		if i == a.selected {
			marker = "> "
			text = a.styles.Answer.Render(text)
		}
		fmt.Fprintf(&b, "%s%d. %s %s\n", marker, i+1, text,
			a.styles.Muted.Render(fmt.Sprintf("%.3f [%d:%d]", ans.Score, ans.Start, ans.End)))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Passage returns the passage questions are asked against.
func (a *App) Passage() string {
	return a.passage
}

// Result returns the last answered result, or nil.
func (a *App) Result() *domain.Result {
	return a.result
}

// Selected returns the index of the highlighted answer candidate.
func (a *App) Selected() int {
	return a.selected
}

// Err returns the last error.
func (a *App) Err() error {
	return a.err
}
