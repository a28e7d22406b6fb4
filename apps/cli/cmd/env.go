package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/colrun/packages/core/env"
	"github.com/abdul-hamid-achik/colrun/packages/output"
	"github.com/abdul-hamid-achik/colrun/packages/store"
)

var (
	envStoreFlag  string
	envRevealFlag bool
	envNameFlag   string
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Inspect and persist environments",
	Long: `Manage environments kept in the local store. The store holds named
environment snapshots so a later run can continue where another stopped.

Examples:
  colrun env import staging.postman_environment.json
  colrun env list
  colrun env show staging
  colrun env export staging out.json
  colrun env delete staging`,
}

var envListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored environments",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		summaries, err := s.ListEnvironments(cmd.Context())
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No stored environments")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tVARIABLES\tUPDATED")
		for _, sum := range summaries {
			fmt.Fprintf(w, "%s\t%d\t%s\n", sum.Name, sum.Variables, sum.UpdatedAt.Local().Format(time.DateTime))
		}
		return w.Flush()
	},
}

var envShowCmd = &cobra.Command{
	Use:   "show <name|file>",
	Short: "Show an environment with sensitive values masked",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := findEnvironment(cmd, args[0])
		if err != nil {
			return err
		}
		output.NewConsoleFormatter(
			output.WithWriter(cmd.OutOrStdout()),
			output.WithNoColor(cfg.GetNoColor()),
			output.WithReveal(envRevealFlag),
		).FormatEnvironment(e)
		return nil
	},
}

var envImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Save an environment file in the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := env.LoadFile(args[0])
		if err != nil {
			return withExitCode(ExitConfigError, err)
		}
		if envNameFlag != "" {
			e.Name = envNameFlag
		}
		if e.Name == "" {
			return withExitCode(ExitUsageError, fmt.Errorf("environment in %s has no name; use --name", args[0]))
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.SaveEnvironment(cmd.Context(), e); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Stored %q (%d variables)\n", e.Name, e.Len())
		return nil
	},
}

var envExportCmd = &cobra.Command{
	Use:   "export <name> <file>",
	Short: "Write a stored environment to a Postman environment file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.LoadEnvironment(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := env.WriteFile(args[1], e); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", args[1])
		return nil
	},
}

var envDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a stored environment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.DeleteEnvironment(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q\n", args[0])
		return nil
	},
}

func init() {
	envCmd.PersistentFlags().StringVar(&envStoreFlag, "store", getEnvString("COLRUN_STORE", ""), "Environment store: file path, sqlite:// or postgres:// URL (env: COLRUN_STORE)")
	envShowCmd.Flags().BoolVar(&envRevealFlag, "reveal", false, "Print sensitive values unmasked")
	envImportCmd.Flags().StringVar(&envNameFlag, "name", "", "Store under this name instead of the file's")

	envCmd.AddCommand(envListCmd, envShowCmd, envImportCmd, envExportCmd, envDeleteCmd)
}

func openStore() (*store.Store, error) {
	path := envStoreFlag
	if path == "" {
		path = cfg.Store
	}
	s, err := store.Open(path)
	if err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}
	return s, nil
}

// findEnvironment treats arg as a file when one exists at that path and as a
// stored name otherwise.
func findEnvironment(cmd *cobra.Command, arg string) (*env.Environment, error) {
	if _, err := os.Stat(arg); err == nil {
		return env.LoadFile(arg)
	}

	s, err := openStore()
	if err != nil {
		return nil, err
	}
	defer s.Close()

	e, err := s.LoadEnvironment(cmd.Context(), arg)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("no environment file or stored environment named %q", arg)
	}
	return e, err
}
