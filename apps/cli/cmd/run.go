package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/colrun/packages/core/env"
	"github.com/abdul-hamid-achik/colrun/packages/core/runner"
	"github.com/abdul-hamid-achik/colrun/packages/output"
	"github.com/abdul-hamid-achik/colrun/packages/store"
)

var runCmd = &cobra.Command{
	Use:   "run [collection]",
	Short: "Run collection items in order",
	Long: `Run the items of a Postman collection in the chosen order against one
environment. Variables set by a script are visible to every later item.

Examples:
  colrun run api.postman_collection.json
  colrun run api.json -e staging.postman_environment.json --select 0,3,1
  colrun run api.json --item "Auth/Login" --item "Accounts/List"
  colrun run api.json --store-env staging --save-env out.json
  colrun run api.json --output junit --output-file report.xml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	runEnvFlags    environmentFlags
	selectFlag     string
	itemFlags      []string
	saveEnvFlag    string
	saveStoreFlag  string
	delayFlag      string
	timeoutFlag    string
	outputFlag     string
	outputFileFlag string
	verboseFlag    bool
	noColorFlag    bool
	revealFlag     bool
	watchFlag      bool
)

func init() {
	runEnvFlags.register(runCmd.Flags())

	// Selection flags
	runCmd.Flags().StringVarP(&selectFlag, "select", "s", "", "Item indices to run, in order (e.g. 0,3,1 or 2-5)")
	runCmd.Flags().StringArrayVarP(&itemFlags, "item", "i", nil, "Item name or folder path to run; repeatable")

	// Output flags
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("COLRUN_OUTPUT", ""), "Output format: console, json, junit, tap (env: COLRUN_OUTPUT)")
	runCmd.Flags().StringVar(&outputFileFlag, "output-file", getEnvString("COLRUN_OUTPUT_FILE", ""), "Write output to file (default: stdout) (env: COLRUN_OUTPUT_FILE)")
	runCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", getEnvBool("COLRUN_VERBOSE", false), "Show the final environment (env: COLRUN_VERBOSE)")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("COLRUN_NO_COLOR", false), "Disable colored output (env: COLRUN_NO_COLOR)")
	runCmd.Flags().BoolVar(&revealFlag, "reveal", false, "Print sensitive environment values unmasked")

	// Execution flags
	runCmd.Flags().StringVar(&delayFlag, "delay", getEnvString("COLRUN_DELAY", ""), "Minimum time between item starts (e.g. 250ms) (env: COLRUN_DELAY)")
	runCmd.Flags().StringVar(&timeoutFlag, "timeout", getEnvString("COLRUN_TIMEOUT", ""), "Request timeout (e.g. 30s, 1m) (env: COLRUN_TIMEOUT)")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch the collection and environment files and re-run on change")

	// Persistence flags
	runCmd.Flags().StringVar(&saveEnvFlag, "save-env", "", "Write the final environment to this file")
	runCmd.Flags().StringVar(&saveStoreFlag, "save-store", "", "Save the final environment in the store under this name")
}

// Formatter interface for all output formatters
type Formatter interface {
	FormatResult(result *runner.BatchResult)
	FormatError(err error)
	FormatHeader(version string)
}

// Flushable interface for formatters that need to flush output
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

func newFormatter(format string, w io.Writer) Formatter {
	switch strings.ToLower(format) {
	case "json":
		return output.NewJSONFormatter(output.JSONWithWriter(w), output.JSONWithReveal(revealFlag))
	case "junit":
		return output.NewJUnitFormatter(output.JUnitWithWriter(w))
	case "tap":
		return output.NewTAPFormatter(output.TAPWithWriter(w))
	default: // "console"
		return output.NewConsoleFormatter(
			output.WithWriter(w),
			output.WithVerbose(verboseFlag || cfg.GetVerbose()),
			output.WithNoColor(noColorFlag || cfg.GetNoColor()),
			output.WithReveal(revealFlag),
		)
	}
}

// durationFlag parses value when set, otherwise converts the config
// milliseconds.
func durationFlag(name, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, withExitCode(ExitUsageError, fmt.Errorf("invalid %s value %q: %w (use format like 30s, 1m, 500ms)", name, value, err))
	}
	if d < 0 {
		return 0, withExitCode(ExitUsageError, fmt.Errorf("%s must not be negative", name))
	}
	return d, nil
}

func runCommand(cmd *cobra.Command, args []string) error {
	path, err := collectionPath(args)
	if err != nil {
		return err
	}

	format := cfg.Output
	if outputFlag != "" {
		format = outputFlag
	}
	switch strings.ToLower(format) {
	case "console", "json", "junit", "tap":
	default:
		return withExitCode(ExitUsageError, fmt.Errorf("unknown output format %q", format))
	}

	timeout, err := durationFlag("timeout", timeoutFlag, cfg.TimeoutDuration())
	if err != nil {
		return err
	}
	delay, err := durationFlag("delay", delayFlag, cfg.DelayDuration())
	if err != nil {
		return err
	}

	// Setup output writer
	var outWriter io.Writer = cmd.OutOrStdout()
	if outputFileFlag != "" {
		f, err := os.Create(outputFileFlag)
		if err != nil {
			return fmt.Errorf("cannot create output file: %w", err)
		}
		defer f.Close()
		outWriter = f
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := newRunner(timeout, delay)

	runOnce := func() (*runner.BatchResult, error) {
		col, err := loadCollection(path)
		if err != nil {
			return nil, err
		}
		refs, err := resolveSelection(col, selectFlag, itemFlags)
		if err != nil {
			return nil, withExitCode(ExitUsageError, err)
		}
		e, err := runEnvFlags.load(ctx)
		if err != nil {
			return nil, withExitCode(ExitConfigError, err)
		}

		formatter := newFormatter(format, outWriter)
		formatter.FormatHeader(version)

		var result *runner.BatchResult
		if selectFlag == "" && len(itemFlags) == 0 {
			result = r.RunDefinitions(ctx, col.Definitions(), e)
		} else {
			result = r.RunBatch(ctx, col, refs, e)
		}
		formatter.FormatResult(result)

		if flushable, ok := formatter.(Flushable); ok {
			if err := flushable.Flush(result.Duration); err != nil {
				return result, fmt.Errorf("error writing output: %w", err)
			}
		}

		if err := persistEnvironment(ctx, result.Environment); err != nil {
			return result, withExitCode(ExitConfigError, err)
		}
		return result, nil
	}

	result, err := runOnce()
	if !watchFlag {
		if err != nil {
			return err
		}
		if result.HasFailures() {
			return withExitCode(ExitItemFailure, fmt.Errorf("%d of %d items failed", result.Failed, result.Total))
		}
		return nil
	}
	if err != nil {
		newFormatter(format, cmd.ErrOrStderr()).FormatError(err)
	}

	return watch(ctx, cmd, watchedFiles(path), func() {
		if _, err := runOnce(); err != nil {
			newFormatter(format, cmd.ErrOrStderr()).FormatError(err)
		}
	})
}

// persistEnvironment writes the final environment where --save-env and
// --save-store ask for it.
func persistEnvironment(ctx context.Context, e *env.Environment) error {
	if saveEnvFlag != "" {
		if err := env.WriteFile(saveEnvFlag, e); err != nil {
			return fmt.Errorf("saving environment: %w", err)
		}
		logger.Info("environment written", "path", saveEnvFlag)
	}

	if saveStoreFlag != "" {
		s, err := store.Open(runEnvFlags.storePath())
		if err != nil {
			return err
		}
		defer s.Close()

		stored := e.Clone()
		stored.Name = saveStoreFlag
		if err := s.SaveEnvironment(ctx, stored); err != nil {
			return err
		}
		logger.Info("environment stored", "name", saveStoreFlag)
	}
	return nil
}

func watchedFiles(collectionPath string) []string {
	files := []string{collectionPath}
	for _, f := range []string{runEnvFlags.file, runEnvFlags.dotenv, cfg.Environment, cfg.EnvFile} {
		if f != "" {
			files = append(files, f)
		}
	}
	return files
}

// watch re-runs fn whenever one of files is written, until ctx ends.
func watch(ctx context.Context, cmd *cobra.Command, files []string, fn func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	watched := make(map[string]bool)
	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			continue
		}
		watched[abs] = true

		// Editors often replace files, so watch the directory.
		if err := watcher.Add(filepath.Dir(abs)); err != nil {
			return fmt.Errorf("failed to watch %s: %w", file, err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !watched[abs] {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			name := event.Name
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "\n\nFile changed: %s\nRe-running...\n\n", name)
				fn()
				fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", "error", err)
		}
	}
}
