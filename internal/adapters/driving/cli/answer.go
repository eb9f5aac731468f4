package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/quanswer/internal/core/domain"
	"github.com/custodia-labs/quanswer/internal/logger"
)

// Answer flags.
var (
	answerModel      string
	answerTopK       int
	answerDict       bool
	answerMustAnswer bool
	answerTokens     bool
	answerWorkers    int
	answerBatch      int
	answerMaxLen     int
	answerSlow       bool
	answerHighlight  bool
)

func init() {
	flags := rootCmd.Flags()
	flags.SetNormalizeFunc(langAlias)
	flags.StringVar(&answerModel, "model", "en", "language code or model to use (alias --lang)")
	flags.IntVar(&answerTopK, "topk", 1, "number of answer candidates per record")
	flags.BoolVar(&answerDict, "dict", false, "print full results as JSON objects")
	flags.BoolVar(&answerMustAnswer, "mustanswer", false, "disallow the empty answer (SQuAD v1 behaviour)")
	flags.BoolVar(&answerTokens, "tokens", false, "include per-word inclusion probabilities")
	flags.IntVar(&answerWorkers, "workers", 0, "records answered in parallel (default qa.workers)")
	flags.IntVar(&answerBatch, "batch", 0, "records per batch (default qa.batch)")
	flags.IntVar(&answerMaxLen, "max-answer-len", 0, "longest answer in tokens (default qa.max_answer_len)")
	flags.BoolVar(&answerSlow, "slow", false, "align through whitespace words instead of tokenizer offsets")
	flags.BoolVar(&answerHighlight, "highlight", false, "shade context words by inclusion probability on a terminal")
}

// langAlias accepts --lang as a synonym of --model.
func langAlias(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	if name == "lang" {
		name = "model"
	}
	return pflag.NormalizedName(name)
}

func runAnswer(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	in, closeInput, err := openInput(cmd, args)
	if err != nil {
		return err
	}
	examples, format, err := ReadExamples(in)
	closeInput()
	if err != nil {
		return err
	}
	logger.Debug("Read %d records (%s)", len(examples), format)

	opts, batch := answerOptions()
	out := cmd.OutOrStdout()
	results := newResultWriter(out, outputOptions{
		Dict:       answerDict,
		MustAnswer: answerMustAnswer,
		Tokens:     answerTokens,
		TopK:       opts.TopK,
	})

	var hl *highlighter
	if answerHighlight {
		if isTerminal(out) {
			hl = newHighlighter(out)
		} else {
			logger.Warn("--highlight ignored: output is not a terminal")
		}
	}

	start := time.Now()
	failed := 0
	for lo := 0; lo < len(examples); lo += batch {
		hi := min(lo+batch, len(examples))
		items, err := answerService.Answer(cmd.Context(), answerModel, examples[lo:hi], opts)
		if err != nil {
			return fmt.Errorf("answer failed: %w", err)
		}

		for _, item := range items {
			ex := examples[lo+item.Index]
			if item.Err != nil {
				failed++
				if answerDict {
					if err := results.WriteError(ex.ID, item.Err); err != nil {
						return err
					}
				} else {
					logger.Error("record %s: %v", ex.ID, item.Err)
				}
				continue
			}
			if err := results.Write(item.Result); err != nil {
				return err
			}
			if hl != nil {
				if err := hl.Write(ex, item.Result); err != nil {
					return err
				}
			}
		}
	}
	logger.Elapsed(fmt.Sprintf("Answered %d records", len(examples)), start)

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrItemsFailed, failed, len(examples))
	}
	return nil
}

// answerOptions merges flags over the configured defaults.
func answerOptions() (domain.AnswerOptions, int) {
	defaults := domain.DefaultAppSettings()
	qa := defaults.QA
	if settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			qa = settings.QA
		} else {
			logger.Warn("using default settings: %v", err)
		}
	}

	opts := domain.AnswerOptions{
		TopK:          answerTopK,
		MaxAnswerLen:  qa.MaxAnswerLen,
		MustAnswer:    answerMustAnswer,
		TokenScores:   answerTokens || answerHighlight,
		SlowAlignment: answerSlow || qa.Alignment == domain.AlignmentSlow,
		Workers:       qa.Workers,
	}
	if answerMaxLen > 0 {
		opts.MaxAnswerLen = answerMaxLen
	}
	if answerWorkers > 0 {
		opts.Workers = answerWorkers
	}

	batch := qa.Batch
	if answerBatch > 0 {
		batch = answerBatch
	}
	if batch <= 0 {
		batch = defaults.QA.Batch
	}
	return opts.WithDefaults(), batch
}

// openInput opens the file argument, or stdin when none is given.
func openInput(cmd *cobra.Command, args []string) (io.Reader, func(), error) {
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, nil, fmt.Errorf("opening input: %w", err)
		}
		return f, func() { _ = f.Close() }, nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && isTerminal(f) {
		return nil, nil, errNoInput
	}
	return in, func() {}, nil
}
