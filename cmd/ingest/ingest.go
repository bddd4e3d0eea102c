// Package ingest provides the import command.
package ingest

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/artifact-explorer/artifact-explorer/internal/app"
	"github.com/artifact-explorer/artifact-explorer/internal/conf"
)

// Command creates the import command.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		classification string
		pages          int
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Fetch one classification from the catalog and load it",
		Long: `Import fetches up to --pages pages of the given classification from the
Harvard Art Museums object API and loads metadata, media and color rows.
Artifacts already stored are skipped; color rows are always appended.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pages == 0 {
				pages = settings.Harvard.DefaultPages
			}
			return run(cmd, settings, classification, pages)
		},
	}

	cmd.Flags().StringVarP(&classification, "classification", "c", "", "Classification to import, e.g. Paintings")
	cmd.Flags().IntVarP(&pages, "pages", "p", 0, "Number of pages to fetch (default from config)")
	_ = cmd.MarkFlagRequired("classification")

	return cmd
}

func run(cmd *cobra.Command, settings *conf.Settings, classification string, pages int) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	rt, err := app.Open(ctx, settings)
	if err != nil {
		return err
	}
	defer rt.Close()

	imp, err := rt.Importer()
	if err != nil {
		return err
	}

	if !slices.Contains(imp.Classifications(), classification) {
		fmt.Fprintf(out, "Note: %q is not one of the preset classifications %v\n", classification, imp.Classifications())
	}

	existing, err := imp.ExistingCount(ctx, classification)
	if err != nil {
		return err
	}
	if existing > 0 {
		message.NewPrinter(language.English).Fprintf(out,
			"The database already contains %d %s records; they will be skipped.\n", existing, classification)
	}

	report, err := imp.Import(ctx, classification, pages)
	if werr := app.WriteReport(out, report); werr != nil && err == nil {
		err = werr
	}
	return err
}
