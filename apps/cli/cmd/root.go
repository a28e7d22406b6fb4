package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/colrun/packages/core/config"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	configFlag   string
	logLevelFlag string

	// cfg and logger are set up before every command runs.
	cfg    = config.DefaultConfig()
	logger = hclog.NewNullLogger()
)

var rootCmd = &cobra.Command{
	Use:   "colrun",
	Short: "Run Postman collections from the terminal.",
	Long: `colrun replays the requests of a Postman collection, in the order you
choose, against an environment that pre-request and test scripts can read
and update as the run goes.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		os.Exit(ExitUsageError)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", getEnvString("COLRUN_CONFIG", ""), "Path to config file (env: COLRUN_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", getEnvString("COLRUN_LOG_LEVEL", ""), "Log level: trace, debug, info, warn, error, off (env: COLRUN_LOG_LEVEL)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(envCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads the config file and builds the logger.
func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.LoadConfig(configFlag)
	if err != nil {
		return withExitCode(ExitConfigError, fmt.Errorf("loading config: %w", err))
	}
	cfg = loaded

	level := cfg.LogLevel
	if logLevelFlag != "" {
		level = logLevelFlag
	}
	logger = hclog.New(&hclog.LoggerOptions{
		Name:   "colrun",
		Level:  hclog.LevelFromString(logLevel(level)),
		Output: cmd.ErrOrStderr(),
	})
	return nil
}

func logLevel(lvl string) string {
	lvl = strings.ToLower(strings.TrimSpace(lvl))
	switch lvl {
	case "trace", "debug", "info", "warn", "error", "off":
		return lvl
	default:
		return "info"
	}
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}
