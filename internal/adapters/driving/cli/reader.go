package cli

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/custodia-labs/quanswer/internal/core/domain"
)

// InputFormat names a recognised record layout.
type InputFormat string

// Supported input formats.
const (
	FormatJSONLines InputFormat = "jsonl"
	FormatCSV       InputFormat = "csv"
	FormatSQuAD     InputFormat = "squad"
)

// record is one JSON-lines input record.
type record struct {
	ID       any    `json:"id"`
	Question string `json:"question"`
	Context  string `json:"context"`
}

// squadFile is the SQuAD v1/v2 dataset layout.
type squadFile struct {
	Data []struct {
		Paragraphs []struct {
			Context string `json:"context"`
			Qas     []struct {
				ID       string `json:"id"`
				Question string `json:"question"`
			} `json:"qas"`
		} `json:"paragraphs"`
	} `json:"data"`
}

// ReadExamples reads every record from r.
//
// If the first line is a JSON object the input is JSON lines, unless the whole
// input is a single SQuAD document. Otherwise it is CSV, with an optional
// header naming "context" and "question" columns; without a header the
// columns are context,question.
func ReadExamples(r io.Reader) ([]domain.Example, InputFormat, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("reading input: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return []domain.Example{}, FormatJSONLines, nil
	}

	if examples, ok := readSQuAD(data); ok {
		return examples, FormatSQuAD, nil
	}
	if isJSONObject(firstLine(data)) {
		examples, err := readJSONLines(data)
		return examples, FormatJSONLines, err
	}
	examples, err := readCSV(data)
	return examples, FormatCSV, err
}

func firstLine(data []byte) []byte {
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) > 0 {
			return bytes.TrimSpace(line)
		}
	}
	return nil
}

func isJSONObject(line []byte) bool {
	var obj map[string]any
	return json.Unmarshal(line, &obj) == nil
}

func readSQuAD(data []byte) ([]domain.Example, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, false
	}
	if _, ok := raw["data"]; !ok {
		return nil, false
	}
	var file squadFile
	if err := json.Unmarshal(trimmed, &file); err != nil {
		return nil, false
	}

	examples := []domain.Example{}
	for _, article := range file.Data {
		for _, p := range article.Paragraphs {
			for _, qa := range p.Qas {
				id := qa.ID
				if id == "" {
					id = strconv.Itoa(len(examples))
				}
				examples = append(examples, domain.Example{ID: id, Question: qa.Question, Context: p.Context})
			}
		}
	}
	return examples, true
}

func readJSONLines(data []byte) ([]domain.Example, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	examples := []domain.Example{}
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(text, &rec); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", domain.ErrInvalidInput, line, err)
		}
		if rec.Question == "" && rec.Context == "" {
			return nil, fmt.Errorf("%w: line %d: missing question and context", domain.ErrInvalidInput, line)
		}
		examples = append(examples, domain.Example{
			ID:       recordID(rec.ID, len(examples)),
			Question: rec.Question,
			Context:  rec.Context,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return examples, nil
}

func readCSV(data []byte) ([]domain.Example, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: csv: %v", domain.ErrInvalidInput, err)
	}
	if len(rows) == 0 {
		return []domain.Example{}, nil
	}

	header := []string{"context", "question"}
	if isHeader(rows[0]) {
		header = rows[0]
		rows = rows[1:]
	}
	col := func(name string) int {
		return slices.IndexFunc(header, func(h string) bool {
			return strings.EqualFold(strings.TrimSpace(h), name)
		})
	}
	ctxCol, qCol, idCol := col("context"), col("question"), col("id")

	examples := make([]domain.Example, 0, len(rows))
	for i, row := range rows {
		if ctxCol >= len(row) || qCol >= len(row) {
			return nil, fmt.Errorf("%w: csv row %d has %d columns", domain.ErrInvalidInput, i+1, len(row))
		}
		var id any
		if idCol >= 0 && idCol < len(row) && row[idCol] != "" {
			id = row[idCol]
		}
		examples = append(examples, domain.Example{
			ID:       recordID(id, i),
			Context:  row[ctxCol],
			Question: row[qCol],
		})
	}
	return examples, nil
}

// isHeader reports whether a CSV row names both required columns.
func isHeader(row []string) bool {
	has := func(name string) bool {
		return slices.ContainsFunc(row, func(c string) bool {
			return strings.EqualFold(strings.TrimSpace(c), name)
		})
	}
	return has("context") && has("question")
}

// recordID renders an id field, defaulting to the record index.
func recordID(v any, index int) string {
	switch id := v.(type) {
	case nil:
		return strconv.Itoa(index)
	case string:
		if id == "" {
			return strconv.Itoa(index)
		}
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		b, err := json.Marshal(id)
		if err != nil {
			return strconv.Itoa(index)
		}
		return string(b)
	}
}

// errNoInput is returned when stdin is a terminal and no file was given.
var errNoInput = errors.New("no input: pass a file or pipe records on stdin")
