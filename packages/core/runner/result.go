package runner

import (
	"time"

	"github.com/abdul-hamid-achik/colrun/packages/core/env"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ErrorKind tells hard transport failures, non-2xx responses and unknown
// references apart.
type ErrorKind string

const (
	KindTransport ErrorKind = "transport"
	KindUpstream  ErrorKind = "upstream"
	KindNotFound  ErrorKind = "not_found"
)

// ExecutionResult is the outcome of one requested item. URL is the
// unsubstituted template so that secrets never end up in results.
type ExecutionResult struct {
	ItemName       string    `json:"itemName"`
	Order          int       `json:"order"`
	Status         Status    `json:"status"`
	ErrorKind      ErrorKind `json:"errorKind,omitempty" required:"false"`
	StatusCode     int       `json:"statusCode,omitempty" required:"false"`
	StatusText     string    `json:"statusText,omitempty" required:"false"`
	Method         string    `json:"method,omitempty" required:"false"`
	URL            string    `json:"url,omitempty" required:"false"`
	ResponseTimeMs int64     `json:"responseTimeMs"`
	ResponseBody   any       `json:"responseBody,omitempty" required:"false"`
	ErrorMessage   string    `json:"errorMessage,omitempty" required:"false"`
	Timestamp      time.Time `json:"timestamp"`

	Err error `json:"-"`
}

func (r *ExecutionResult) Succeeded() bool {
	return r.Status == StatusSuccess
}

// Summary describes response times of the items that reached the transport.
type Summary struct {
	Count  int64   `json:"count"`
	MinMs  int64   `json:"minMs"`
	MaxMs  int64   `json:"maxMs"`
	MeanMs float64 `json:"meanMs"`
	P50Ms  int64   `json:"p50Ms"`
	P95Ms  int64   `json:"p95Ms"`
	P99Ms  int64   `json:"p99Ms"`
}

// BatchResult is everything a run hands back to its caller.
type BatchResult struct {
	RunID       string             `json:"runId"`
	StartedAt   time.Time          `json:"startedAt"`
	Duration    time.Duration      `json:"duration"`
	Total       int                `json:"total"`
	Succeeded   int                `json:"succeeded"`
	Failed      int                `json:"failed"`
	Results     []*ExecutionResult `json:"results"`
	Environment *env.Environment   `json:"environment"`
	Summary     Summary            `json:"summary"`
}

func (b *BatchResult) HasFailures() bool {
	return b.Failed > 0
}
