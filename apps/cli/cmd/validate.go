package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/colrun/packages/core/collection"
)

var validateCmd = &cobra.Command{
	Use:   "validate <collection>...",
	Short: "Validate collections without running them",
	Long: `Check Postman collections against the collection schema and decode
every item without sending any request.

Examples:
  colrun validate api.postman_collection.json
  colrun validate *.postman_collection.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	hasErrors := false
	for _, file := range args {
		col, err := collection.Load(file)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", file, err)
			hasErrors = true
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s (%d items)\n", file, col.Len())
	}

	if hasErrors {
		return withExitCode(ExitCollectionError, fmt.Errorf("validation failed"))
	}
	return nil
}
