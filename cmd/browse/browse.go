// Package browse provides the browse command.
package browse

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/artifact-explorer/artifact-explorer/internal/app"
	"github.com/artifact-explorer/artifact-explorer/internal/conf"
	"github.com/artifact-explorer/artifact-explorer/internal/datastore"
)

// Command creates the browse command.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		classification string
		limit          int
	)

	tables := make([]string, 0, 3)
	for _, t := range datastore.Tables() {
		tables = append(tables, t.Name)
	}

	cmd := &cobra.Command{
		Use:       "browse TABLE",
		Short:     "List stored rows of one table, optionally for one classification",
		Long:      fmt.Sprintf("Browse prints rows of one of: %s.", strings.Join(tables, ", ")),
		Args:      cobra.ExactArgs(1),
		ValidArgs: tables,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := app.Open(cmd.Context(), settings)
			if err != nil {
				return err
			}
			defer rt.Close()

			rs, err := rt.Store.Browse(cmd.Context(), args[0], classification, limit)
			if err != nil {
				return err
			}
			return app.WriteResultSet(cmd.OutOrStdout(), rs)
		},
	}

	cmd.Flags().StringVarP(&classification, "classification", "c", "", "Only rows of artifacts with this classification")
	cmd.Flags().IntVarP(&limit, "limit", "l", datastore.DefaultBrowseLimit, "Maximum rows to print")

	return cmd
}
