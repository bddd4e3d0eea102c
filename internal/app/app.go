// Package app wires the process-wide components from settings: one store
// handle, the metrics registry, and the catalog client behind the importer.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/artifact-explorer/artifact-explorer/internal/conf"
	"github.com/artifact-explorer/artifact-explorer/internal/datastore"
	"github.com/artifact-explorer/artifact-explorer/internal/errors"
	"github.com/artifact-explorer/artifact-explorer/internal/harvard"
	"github.com/artifact-explorer/artifact-explorer/internal/httpclient"
	"github.com/artifact-explorer/artifact-explorer/internal/importer"
	"github.com/artifact-explorer/artifact-explorer/internal/logger"
	"github.com/artifact-explorer/artifact-explorer/internal/observability"
)

// Runtime owns the components shared by every command.
type Runtime struct {
	Settings *conf.Settings
	Store    *datastore.Store
	Metrics  *observability.Metrics

	http *httpclient.Client
}

func getLogger() logger.Logger {
	return logger.Global().Module("app")
}

// Open builds the metrics registry, opens the configured store and ensures
// its schema. A schema failure closes the store and is returned.
func Open(ctx context.Context, settings *conf.Settings) (*Runtime, error) {
	m, err := observability.NewMetrics()
	if err != nil {
		return nil, errors.New(err).
			Component("app").
			Category(errors.CategoryConfiguration).
			Build()
	}

	store, err := datastore.New(settings)
	if err != nil {
		return nil, err
	}
	store.SetRecorder(m.Import)

	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	return &Runtime{Settings: settings, Store: store, Metrics: m}, nil
}

// Importer builds the catalog client and the import pipeline. The API key is
// checked here, so commands that never import work without one.
func (r *Runtime) Importer() (*importer.Importer, error) {
	if r.http == nil {
		r.http = httpclient.New(&httpclient.Config{
			DefaultTimeout: r.Settings.Harvard.Timeout,
			UserAgent:      userAgent(r.Settings),
		})
		r.http.SetAfterResponseHook(logOutbound)
	}

	h := r.Settings.Harvard
	client, err := harvard.NewClient(harvard.Config{
		APIKey:      h.APIKey,
		BaseURL:     h.BaseURL,
		CacheTTL:    h.CacheTTL,
		RateLimitMS: h.RateLimitMS,
	}, r.http)
	if err != nil {
		return nil, err
	}
	client.SetRecorder(r.Metrics.Import)

	imp := importer.New(client, r.Store, r.Settings.Import.Classifications)
	imp.SetRecorder(r.Metrics.Import)
	return imp, nil
}

// Close releases the HTTP client and the store.
func (r *Runtime) Close() error {
	if r.http != nil {
		r.http.Close()
	}
	return r.Store.Close()
}

func userAgent(settings *conf.Settings) string {
	if settings.Version == "" {
		return "artifact-explorer"
	}
	return "artifact-explorer/" + settings.Version
}

func logOutbound(req *http.Request, resp *http.Response, err error, elapsed time.Duration) {
	fields := []logger.Field{
		logger.String("method", req.Method),
		logger.String("url", errors.ScrubMessage(req.URL.String())),
		logger.Duration("elapsed", elapsed),
	}
	if resp != nil {
		fields = append(fields, logger.Int("status", resp.StatusCode))
	}
	if err != nil {
		fields = append(fields, logger.String("error", errors.ScrubMessage(err.Error())))
	}
	logger.Global().Module("httpclient").Trace("outbound request", fields...)
}
