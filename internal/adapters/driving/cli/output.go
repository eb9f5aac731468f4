package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/custodia-labs/quanswer/internal/core/domain"
)

// floatPrecision is the number of decimals printed for every score.
const floatPrecision = 5

// fixed is a float printed with floatPrecision decimals.
type fixed float64

func (f fixed) String() string {
	return strconv.FormatFloat(float64(f), 'f', floatPrecision, 64)
}

// field is one key of an ordered JSON object.
type field struct {
	key   string
	value any
}

// object is a JSON object that keeps its keys in insertion order.
type object []field

// encodeJSON writes v with ", " and ": " separators. It handles the value
// types resultWriter produces and defers everything else to encoding/json.
func encodeJSON(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case object:
		buf.WriteByte('{')
		for i, f := range val {
			if i > 0 {
				buf.WriteString(", ")
			}
			if err := encodeJSON(buf, f.key); err != nil {
				return err
			}
			buf.WriteString(": ")
			if err := encodeJSON(buf, f.value); err != nil {
				return fmt.Errorf("encode %s: %w", f.key, err)
			}
		}
		buf.WriteByte('}')
	case []object:
		return encodeList(buf, len(val), func(i int) any { return val[i] })
	case []fixed:
		return encodeList(buf, len(val), func(i int) any { return val[i] })
	case [][2]int:
		return encodeList(buf, len(val), func(i int) any { return []int{val[i][0], val[i][1]} })
	case []int:
		return encodeList(buf, len(val), func(i int) any { return val[i] })
	case fixed:
		buf.WriteString(val.String())
	case int:
		buf.WriteString(strconv.Itoa(val))
	default:
		enc := json.NewEncoder(buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return err
		}
		// Encode terminates with a newline.
		buf.Truncate(buf.Len() - 1)
	}
	return nil
}

func encodeList(buf *bytes.Buffer, n int, item func(int) any) error {
	buf.WriteByte('[')
	for i := range n {
		if i > 0 {
			buf.WriteString(", ")
		}
		if err := encodeJSON(buf, item(i)); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

// writeLine encodes obj on a single line.
func writeLine(w io.Writer, obj object) error {
	var buf bytes.Buffer
	if err := encodeJSON(&buf, obj); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

// outputOptions selects what a resultWriter prints.
type outputOptions struct {
	Dict       bool
	MustAnswer bool
	Tokens     bool
	TopK       int
}

// resultWriter prints one line per answered record.
type resultWriter struct {
	w    io.Writer
	opts outputOptions
}

func newResultWriter(w io.Writer, opts outputOptions) *resultWriter {
	return &resultWriter{w: w, opts: opts}
}

// Write prints the result of one record.
func (rw *resultWriter) Write(res *domain.Result) error {
	if !rw.opts.Dict {
		_, err := fmt.Fprintln(rw.w, rw.bareScore(res))
		return err
	}

	if err := writeLine(rw.w, rw.resultObject(res)); err != nil {
		return fmt.Errorf("formatting result %s: %w", res.ID, err)
	}
	return nil
}

// WriteError prints a failed record. Failures only reach stdout in dict mode.
func (rw *resultWriter) WriteError(id string, itemErr error) error {
	return writeLine(rw.w, object{
		{key: "id", value: id},
		{key: "error", value: itemErr.Error()},
	})
}

// bareScore is the answered confidence, or the best answer score when
// answering is mandatory.
func (rw *resultWriter) bareScore(res *domain.Result) fixed {
	if rw.opts.MustAnswer || res.IsAnswered == nil {
		return fixed(res.Best().Score)
	}
	return fixed(*res.IsAnswered)
}

func (rw *resultWriter) resultObject(res *domain.Result) object {
	best := res.Best()

	obj := object{}
	if !rw.opts.MustAnswer && res.IsAnswered != nil {
		obj = append(obj, field{"is_answered", fixed(*res.IsAnswered)})
	}
	obj = append(obj, answerObject(best)...)

	if rw.opts.TopK > 1 {
		answers := make([]object, 0, len(res.Answers))
		for _, a := range res.Answers {
			answers = append(answers, answerObject(a))
		}
		obj = append(obj, field{"answers", answers})
	}

	if rw.opts.Tokens {
		scores := make([]fixed, len(res.TokenScores))
		for i, s := range res.TokenScores {
			scores[i] = fixed(s)
		}
		spans := make([][2]int, len(res.TokenSpans))
		for i, s := range res.TokenSpans {
			spans[i] = [2]int{s.Start, s.End}
		}
		obj = append(obj, field{"token_scores", scores}, field{"token_spans", spans})
	}
	return obj
}

func answerObject(a domain.Answer) object {
	return object{
		{"score", fixed(a.Score)},
		{"start", a.Start},
		{"end", a.End},
		{"answer", a.Text},
	}
}
