package output

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/abdul-hamid-achik/colrun/packages/core/collection"
	"github.com/abdul-hamid-achik/colrun/packages/core/env"
	"github.com/abdul-hamid-achik/colrun/packages/core/runner"
)

// formatValue formats a value for display, truncating or summarizing large values
func formatValue(v any, maxLen int) string {
	switch val := v.(type) {
	case []any:
		return fmt.Sprintf("[array with %d items]", len(val))
	case map[string]any:
		return fmt.Sprintf("{object with %d keys}", len(val))
	}
	str := fmt.Sprintf("%v", v)
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
	reveal  bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

// WithReveal disables masking of sensitive environment values.
func WithReveal(reveal bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.reveal = reveal
	}
}

func (f *ConsoleFormatter) FormatResult(result *runner.BatchResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n\n", bold("Run "+result.RunID))

	for _, r := range result.Results {
		switch {
		case r.ErrorKind == runner.KindNotFound:
			fmt.Fprintf(f.writer, "  %s %d. %s %s\n", yellow("?"), r.Order, r.ItemName, yellow("(not found)"))
			continue
		case r.ErrorKind == runner.KindTransport:
			fmt.Fprintf(f.writer, "  %s %d. %s %s\n", red("x"), r.Order, r.ItemName, red(fmt.Sprintf("(%s)", r.ErrorMessage)))
			continue
		}

		symbol := green("✓")
		if !r.Succeeded() {
			symbol = red("✗")
		}

		fmt.Fprintf(f.writer, "  %s %d. %s %s %s\n", symbol, r.Order, r.ItemName,
			fmt.Sprintf("%d %s", r.StatusCode, r.StatusText), cyan(fmt.Sprintf("(%dms)", r.ResponseTimeMs)))

		if f.verbose {
			fmt.Fprintf(f.writer, "    %s %s\n", r.Method, r.URL)
			if r.ResponseBody != nil {
				fmt.Fprintf(f.writer, "    Body: %s\n", formatValue(r.ResponseBody, 100))
			}
		}
	}

	fmt.Fprintf(f.writer, "\n")
	fmt.Fprintf(f.writer, "Items: ")
	if result.Succeeded > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d succeeded", result.Succeeded)))
	}
	if result.Failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", result.Failed)))
	}
	fmt.Fprintf(f.writer, "%d total\n", result.Total)
	fmt.Fprintf(f.writer, "Time:  %dms\n", result.Duration.Milliseconds())
	if s := result.Summary; s.Count > 0 {
		fmt.Fprintf(f.writer, "Latency: p50 %dms, p95 %dms, p99 %dms, max %dms\n", s.P50Ms, s.P95Ms, s.P99Ms, s.MaxMs)
	}

	if f.verbose && result.Environment != nil {
		fmt.Fprintf(f.writer, "\n%s\n", bold("Environment"))
		f.FormatEnvironment(result.Environment)
	}
	fmt.Fprintf(f.writer, "\n")
}

// FormatEnvironment prints one variable per line, masking sensitive values.
func (f *ConsoleFormatter) FormatEnvironment(e *env.Environment) {
	if !f.reveal {
		e = MaskEnvironment(e)
	}
	faint := color.New(color.Faint).SprintFunc()

	tw := tabwriter.NewWriter(f.writer, 0, 4, 2, ' ', 0)
	for _, v := range e.Values {
		line := fmt.Sprintf("  %s\t%s", v.Key, v.Value)
		if !v.Enabled {
			line += "\t" + faint("(disabled)")
		}
		fmt.Fprintln(tw, line)
	}
	_ = tw.Flush()
}

// FormatItems prints collection display metadata with the index used for selection.
func (f *ConsoleFormatter) FormatItems(info collection.Info, items []collection.ItemInfo) {
	bold := color.New(color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	fmt.Fprintf(f.writer, "%s (%d items)\n\n", bold(info.Name), len(items))

	tw := tabwriter.NewWriter(f.writer, 0, 4, 2, ' ', 0)
	for _, it := range items {
		name := it.Name
		if it.Folder != "" {
			name = it.Folder + "/" + it.Name
		}
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\n", it.Index, cyan(it.Method), name, it.URL)
	}
	_ = tw.Flush()
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("colrun"), version)
}
