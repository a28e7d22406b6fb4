package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/colrun/packages/output"
)

var listNoColorFlag bool

var listCmd = &cobra.Command{
	Use:   "list [collection]",
	Short: "List the items of a collection",
	Long: `List the flattened items of a collection with the indices that
--select and POST /execute refer to.

Examples:
  colrun list api.postman_collection.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: listCommand,
}

func init() {
	listCmd.Flags().BoolVar(&listNoColorFlag, "no-color", getEnvBool("COLRUN_NO_COLOR", false), "Disable colored output (env: COLRUN_NO_COLOR)")
}

func listCommand(cmd *cobra.Command, args []string) error {
	path, err := collectionPath(args)
	if err != nil {
		return err
	}
	col, err := loadCollection(path)
	if err != nil {
		return err
	}

	f := output.NewConsoleFormatter(
		output.WithWriter(cmd.OutOrStdout()),
		output.WithNoColor(listNoColorFlag || cfg.GetNoColor()),
	)
	f.FormatItems(col.Info, col.Items())
	return nil
}
