package runner

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/google/uuid"

	"github.com/abdul-hamid-achik/colrun/packages/core/env"
)

// maxTrackableMs caps recorded response times at one hour.
const maxTrackableMs = 3_600_000

// Aggregator collects results in the order they are added.
type Aggregator struct {
	runID     string
	startedAt time.Time
	results   []*ExecutionResult
	succeeded int
	failed    int
	histogram *hdrhistogram.Histogram
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		runID:     uuid.NewString(),
		startedAt: time.Now(),
		histogram: hdrhistogram.New(1, maxTrackableMs, 3),
	}
}

// Add appends r. Results are never reordered or modified afterwards.
func (a *Aggregator) Add(r *ExecutionResult) {
	a.results = append(a.results, r)

	if r.Succeeded() {
		a.succeeded++
	} else {
		a.failed++
	}

	if r.ErrorKind == KindNotFound {
		return
	}

	ms := r.ResponseTimeMs
	if ms < 1 {
		ms = 1
	}
	if ms > maxTrackableMs {
		ms = maxTrackableMs
	}
	_ = a.histogram.RecordValue(ms)
}

func (a *Aggregator) Len() int {
	return len(a.results)
}

// Finish returns the batch result carrying e as the final environment.
func (a *Aggregator) Finish(e *env.Environment) *BatchResult {
	results := a.results
	if results == nil {
		results = []*ExecutionResult{}
	}

	return &BatchResult{
		RunID:       a.runID,
		StartedAt:   a.startedAt,
		Duration:    time.Since(a.startedAt),
		Total:       len(results),
		Succeeded:   a.succeeded,
		Failed:      a.failed,
		Results:     results,
		Environment: e,
		Summary:     a.summary(),
	}
}

func (a *Aggregator) summary() Summary {
	h := a.histogram
	if h.TotalCount() == 0 {
		return Summary{}
	}
	return Summary{
		Count:  h.TotalCount(),
		MinMs:  h.Min(),
		MaxMs:  h.Max(),
		MeanMs: h.Mean(),
		P50Ms:  h.ValueAtQuantile(50),
		P95Ms:  h.ValueAtQuantile(95),
		P99Ms:  h.ValueAtQuantile(99),
	}
}
