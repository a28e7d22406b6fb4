package output

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/colrun/packages/core/collection"
	"github.com/abdul-hamid-achik/colrun/packages/core/env"
	"github.com/abdul-hamid-achik/colrun/packages/core/runner"
)

func sampleBatch() *runner.BatchResult {
	return &runner.BatchResult{
		RunID:     "run-1",
		StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration:  120 * time.Millisecond,
		Total:     3,
		Succeeded: 1,
		Failed:    2,
		Results: []*runner.ExecutionResult{
			{ItemName: "login", Order: 1, Status: runner.StatusSuccess, StatusCode: 200, StatusText: "OK", Method: "POST", URL: "{{base}}/login", ResponseTimeMs: 40, ResponseBody: map[string]any{"token": "t"}},
			{ItemName: "profile", Order: 2, Status: runner.StatusError, ErrorKind: runner.KindUpstream, StatusCode: 404, StatusText: "Not Found", ResponseTimeMs: 20, ResponseBody: "missing", ErrorMessage: "404 Not Found"},
			{ItemName: "item 9", Order: 3, Status: runner.StatusError, ErrorKind: runner.KindNotFound, ErrorMessage: "definition not found"},
		},
		Environment: env.FromMap("test", map[string]string{"token": "abcdefghijkl", "user": "ada"}),
		Summary:     runner.Summary{Count: 2, MinMs: 20, MaxMs: 40, MeanMs: 30, P50Ms: 20, P95Ms: 40, P99Ms: 40},
	}
}

func TestConsoleFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true))

	f.FormatResult(sampleBatch())
	out := buf.String()

	assert.Contains(t, out, "1. login 200 OK")
	assert.Contains(t, out, "2. profile 404 Not Found")
	assert.Contains(t, out, "3. item 9 (not found)")
	assert.Contains(t, out, "1 succeeded")
	assert.Contains(t, out, "2 failed")
	assert.Contains(t, out, "3 total")
	assert.Contains(t, out, "p50 20ms")
	assert.Contains(t, out, "abcd••••ijkl")
	assert.NotContains(t, out, "abcdefghijkl")
}

func TestConsoleFormatterReveal(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithReveal(true))

	f.FormatEnvironment(env.FromMap("test", map[string]string{"token": "abcdefghijkl"}))
	assert.Contains(t, buf.String(), "abcdefghijkl")
}

func TestConsoleFormatItems(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))

	f.FormatItems(collection.Info{Name: "Sample"}, []collection.ItemInfo{
		{Index: 0, Name: "Login", Method: "POST", URL: "{{base}}/login"},
		{Index: 1, Name: "List", Folder: "Accounts", Method: "GET", URL: "{{base}}/accounts"},
	})
	out := buf.String()

	assert.Contains(t, out, "Sample (2 items)")
	assert.Contains(t, out, "Accounts/List")
	assert.Contains(t, out, "{{base}}/login")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf))

	f.FormatResult(sampleBatch())
	require.NoError(t, f.Flush(time.Second))

	var out struct {
		Summary JSONSummary `json:"summary"`
		Runs    []struct {
			RunID   string           `json:"runId"`
			Results []map[string]any `json:"results"`
		} `json:"runs"`
		Environment env.Environment `json:"environment"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	assert.Equal(t, JSONSummary{Total: 3, Succeeded: 1, Failed: 2}, out.Summary)
	require.Len(t, out.Runs, 1)
	assert.Equal(t, "run-1", out.Runs[0].RunID)
	require.Len(t, out.Runs[0].Results, 3)
	assert.Equal(t, "login", out.Runs[0].Results[0]["itemName"])
	assert.Equal(t, "upstream", out.Runs[0].Results[1]["errorKind"])
	assert.NotContains(t, out.Runs[0].Results[2], "statusCode")

	tok, _ := out.Environment.Get("token")
	assert.Equal(t, "abcd••••ijkl", tok)
}

func TestJUnitFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJUnitFormatter(JUnitWithWriter(&buf), JUnitWithSuiteName("Sample"))

	f.FormatResult(sampleBatch())
	require.NoError(t, f.Flush(time.Second))

	var suites JUnitTestSuites
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &suites))

	assert.Equal(t, 3, suites.Tests)
	assert.Equal(t, 1, suites.Failures)
	assert.Equal(t, 1, suites.Errors)
	require.Len(t, suites.TestSuites, 1)
	cases := suites.TestSuites[0].TestCases
	require.Len(t, cases, 3)
	assert.Nil(t, cases[0].Failure)
	require.NotNil(t, cases[1].Failure)
	assert.Equal(t, "404 Not Found", cases[1].Failure.Message)
	require.NotNil(t, cases[2].Error)
	assert.Equal(t, "not_found", cases[2].Error.Type)
}

func TestTAPFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewTAPFormatter(TAPWithWriter(&buf))

	f.FormatResult(sampleBatch())
	require.NoError(t, f.Flush(time.Second))
	lines := strings.Split(buf.String(), "\n")

	assert.Equal(t, "TAP version 13", lines[0])
	assert.Equal(t, "1..3", lines[1])
	assert.Equal(t, "ok 1 - login", lines[2])
	assert.Equal(t, "not ok 2 - profile", lines[3])
	assert.Contains(t, buf.String(), "kind: not_found")
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "{object with 1 keys}", formatValue(map[string]any{"a": 1}, 10))
	assert.Equal(t, "[array with 2 items]", formatValue([]any{1, 2}, 10))
	assert.Equal(t, "abc...", formatValue("abcdef", 3))
}
