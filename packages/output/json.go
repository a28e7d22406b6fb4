package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/colrun/packages/core/env"
	"github.com/abdul-hamid-achik/colrun/packages/core/runner"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	Summary     JSONSummary      `json:"summary"`
	Runs        []JSONRun        `json:"runs"`
	Environment *env.Environment `json:"environment,omitempty"`
	Duration    float64          `json:"duration"`
	Time        string           `json:"time"`
}

// JSONSummary totals every run in the output
type JSONSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// JSONRun is one batch
type JSONRun struct {
	RunID     string                    `json:"runId"`
	StartedAt time.Time                 `json:"startedAt"`
	Duration  float64                   `json:"duration"`
	Results   []*runner.ExecutionResult `json:"results"`
	Latency   runner.Summary            `json:"latency"`
}

// JSONFormatter formats run results as JSON
type JSONFormatter struct {
	writer io.Writer
	reveal bool
	runs   []JSONRun
	last   *env.Environment
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
		runs:   make([]JSONRun, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

// JSONWithReveal disables masking of the final environment.
func JSONWithReveal(reveal bool) JSONOption {
	return func(f *JSONFormatter) {
		f.reveal = reveal
	}
}

func (f *JSONFormatter) FormatResult(result *runner.BatchResult) {
	f.runs = append(f.runs, JSONRun{
		RunID:     result.RunID,
		StartedAt: result.StartedAt,
		Duration:  float64(result.Duration.Milliseconds()),
		Results:   result.Results,
		Latency:   result.Summary,
	})
	f.last = result.Environment
}

func (f *JSONFormatter) FormatError(err error) {
	// Errors are included in individual results
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	var summary JSONSummary
	for _, run := range f.runs {
		for _, r := range run.Results {
			summary.Total++
			if r.Succeeded() {
				summary.Succeeded++
			} else {
				summary.Failed++
			}
		}
	}

	environment := f.last
	if !f.reveal {
		environment = MaskEnvironment(environment)
	}

	output := JSONOutput{
		Summary:     summary,
		Runs:        f.runs,
		Environment: environment,
		Duration:    float64(totalDuration.Milliseconds()),
		Time:        time.Now().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
