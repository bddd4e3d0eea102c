// Package query provides the query and queries commands.
package query

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/artifact-explorer/artifact-explorer/internal/app"
	"github.com/artifact-explorer/artifact-explorer/internal/conf"
	"github.com/artifact-explorer/artifact-explorer/internal/queries"
)

// Command creates the query command. It runs either a catalog query
// selected with --name or a read-only statement given as arguments.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		name   string
		params map[string]string
	)

	cmd := &cobra.Command{
		Use:   "query [SQL] [ARGS...]",
		Short: "Run a canned or ad-hoc read-only query",
		Example: `  artifact-explorer query --name top-colors
  artifact-explorer query --name by-department --param department="Asian and Mediterranean Art"
  artifact-explorer query "SELECT title FROM artifact_metadata WHERE id = ?" 42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" && len(args) == 0 {
				return fmt.Errorf("either --name or a SQL statement is required")
			}
			if name != "" && len(args) > 0 {
				return fmt.Errorf("--name and a SQL statement are mutually exclusive")
			}

			rt, err := app.Open(cmd.Context(), settings)
			if err != nil {
				return err
			}
			defer rt.Close()

			if name == "" {
				positional := make([]any, 0, len(args)-1)
				for _, a := range args[1:] {
					positional = append(positional, a)
				}
				rs, err := rt.Store.RunQuery(cmd.Context(), args[0], positional...)
				if err != nil {
					return err
				}
				return app.WriteResultSet(cmd.OutOrStdout(), rs)
			}

			catalog, err := queries.Load()
			if err != nil {
				return err
			}
			q, err := catalog.Lookup(name)
			if err != nil {
				return err
			}
			sql, bound, err := q.Bind(params, rt.Store.Dialect())
			if err != nil {
				return err
			}
			rs, err := rt.Store.RunCannedQuery(cmd.Context(), sql, bound...)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), q.Title)
			return app.WriteResultSet(cmd.OutOrStdout(), rs)
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Catalog query to run (see the queries command)")
	cmd.Flags().StringToStringVarP(&params, "param", "p", nil, "Query parameter as name=value, repeatable")

	return cmd
}

// ListCommand creates the queries command, which prints the catalog.
func ListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "queries",
		Short: "List the canned query catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := queries.Load()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tPARAMS\tTITLE")
			for _, q := range catalog.All() {
				names := make([]string, 0, len(q.Params))
				for _, p := range q.Params {
					names = append(names, p.Name)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", q.Name, strings.Join(names, ","), q.Title)
			}
			return tw.Flush()
		},
	}
}
