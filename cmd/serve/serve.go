// Package serve provides the serve command, which runs the HTTP API.
package serve

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/artifact-explorer/artifact-explorer/internal/api"
	"github.com/artifact-explorer/artifact-explorer/internal/app"
	"github.com/artifact-explorer/artifact-explorer/internal/conf"
	"github.com/artifact-explorer/artifact-explorer/internal/queries"
)

// Command creates the serve command.
func Command(settings *conf.Settings) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the import and query HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				settings.WebServer.Port = port
			}
			return run(cmd.Context(), settings)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Port to listen on (default from config)")

	return cmd
}

func run(ctx context.Context, settings *conf.Settings) error {
	rt, err := app.Open(ctx, settings)
	if err != nil {
		return err
	}
	defer rt.Close()

	imp, err := rt.Importer()
	if err != nil {
		return err
	}
	catalog, err := queries.Load()
	if err != nil {
		return err
	}

	srv, err := api.New(settings,
		api.WithDataStore(rt.Store),
		api.WithImporter(imp),
		api.WithCatalog(catalog),
		api.WithMetrics(rt.Metrics))
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		return srv.Shutdown(context.WithoutCancel(ctx))
	})
	return g.Wait()
}
