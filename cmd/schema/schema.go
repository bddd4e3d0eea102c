// Package schema provides the schema command.
package schema

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artifact-explorer/artifact-explorer/internal/app"
	"github.com/artifact-explorer/artifact-explorer/internal/conf"
)

// Command creates the schema command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Create the artifact tables if they do not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := app.Open(cmd.Context(), settings)
			if err != nil {
				return err
			}
			defer rt.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Schema ready (%s)\n", rt.Store.Dialect())
			return nil
		},
	}
}
