// Package importer runs the ingestion pipeline: fetch one classification from
// the catalog, split the records and load the three row-sets in order.
package importer

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/artifact-explorer/artifact-explorer/internal/datastore"
	"github.com/artifact-explorer/artifact-explorer/internal/errors"
	"github.com/artifact-explorer/artifact-explorer/internal/harvard"
	"github.com/artifact-explorer/artifact-explorer/internal/logger"
	"github.com/artifact-explorer/artifact-explorer/internal/observability/metrics"
	"github.com/artifact-explorer/artifact-explorer/internal/splitter"
)

// Fetcher retrieves catalog records for a classification.
type Fetcher interface {
	FetchByClassification(ctx context.Context, classification string, maxPages int) ([]harvard.Record, error)
}

// Store is the part of the datastore the importer writes to.
type Store interface {
	LoadBatch(ctx context.Context, table string, columns []string, rows [][]any) (datastore.LoadResult, error)
	CountByClassification(ctx context.Context, classification string) (int64, error)
}

// Report describes one import run.
type Report struct {
	RunID          string                 `json:"run_id"`
	Classification string                 `json:"classification"`
	Pages          int                    `json:"pages"`
	Fetched        int                    `json:"fetched"`
	Tables         []datastore.LoadResult `json:"tables"`
	Status         string                 `json:"status"`
	Error          string                 `json:"error,omitempty"`
	Shared         bool                   `json:"shared"`
	StartedAt      time.Time              `json:"started_at"`
	Duration       time.Duration          `json:"duration"`
}

// Inserted sums the inserted rows over all tables.
func (r Report) Inserted() int64 {
	var n int64
	for _, t := range r.Tables {
		n += t.Inserted
	}
	return n
}

// Importer orchestrates fetch, split and load. It is safe for concurrent use.
type Importer struct {
	fetcher         Fetcher
	store           Store
	classifications []string
	recorder        metrics.Recorder
	group           singleflight.Group
}

// New creates an importer. classifications is the preset list offered to users.
func New(fetcher Fetcher, store Store, classifications []string) *Importer {
	return &Importer{
		fetcher:         fetcher,
		store:           store,
		classifications: classifications,
		recorder:        metrics.NoOpRecorder{},
	}
}

// SetRecorder sets the metrics recorder. A nil recorder disables metrics.
func (i *Importer) SetRecorder(r metrics.Recorder) {
	i.recorder = metrics.OrNoOp(r)
}

// Classifications returns the preset classification list.
func (i *Importer) Classifications() []string {
	return append([]string(nil), i.classifications...)
}

// ExistingCount returns how many artifacts of classification are already stored.
func (i *Importer) ExistingCount(ctx context.Context, classification string) (int64, error) {
	return i.store.CountByClassification(ctx, classification)
}

// Import fetches pages 1..pages of classification and loads them.
//
// A fetch failure writes nothing. A load failure stops the remaining
// row-sets but leaves the ones already committed in place. Concurrent calls
// for the same classification and page count share a single run; the
// returned report is then flagged Shared. The shared run is detached from
// the caller's cancellation, so a caller that gives up only stops waiting.
func (i *Importer) Import(ctx context.Context, classification string, pages int) (Report, error) {
	if pages <= 0 {
		return Report{Classification: classification, Pages: pages, Status: metrics.StatusError},
			errors.Newf("pages must be positive, got %d", pages).
				Component("importer").
				Category(errors.CategoryValidation).
				Build()
	}

	key := classification + "\x00" + strconv.Itoa(pages)
	runCtx := context.WithoutCancel(ctx)
	ch := i.group.DoChan(key, func() (any, error) {
		return i.run(runCtx, classification, pages)
	})

	select {
	case res := <-ch:
		report, _ := res.Val.(Report)
		report.Shared = res.Shared
		return report, res.Err
	case <-ctx.Done():
		return Report{Classification: classification, Pages: pages, Status: metrics.StatusError},
			errors.New(fmt.Errorf("import canceled: %w", ctx.Err())).
				Component("importer").
				Category(errors.CategoryCancellation).
				Build()
	}
}

func (i *Importer) run(ctx context.Context, classification string, pages int) (Report, error) {
	report := Report{
		RunID:          uuid.NewString(),
		Classification: classification,
		Pages:          pages,
		Tables:         []datastore.LoadResult{},
		StartedAt:      time.Now(),
	}
	ctx = logger.WithTraceID(ctx, report.RunID)
	log := getLogger().WithContext(ctx).With(logger.String("classification", classification))

	log.Info("import started", logger.Int("pages", pages))

	records, err := i.fetcher.FetchByClassification(ctx, classification, pages)
	if err != nil {
		return i.finish(log, report, metrics.StatusFetchFailed, err)
	}
	report.Fetched = len(records)

	batch := splitter.Split(records)
	steps := []struct {
		table string
		rows  [][]any
	}{
		{datastore.TableMetadata, datastore.RowValues(batch.Metadata)},
		{datastore.TableMedia, datastore.RowValues(batch.Media)},
		{datastore.TableColors, datastore.RowValues(batch.Colors)},
	}

	for _, step := range steps {
		t, _ := datastore.LookupTable(step.table)
		result, err := i.store.LoadBatch(ctx, step.table, t.ColumnNames(), step.rows)
		report.Tables = append(report.Tables, result)
		if err != nil {
			return i.finish(log, report, metrics.StatusLoadFailed, err)
		}
	}

	return i.finish(log, report, metrics.StatusSuccess, nil)
}

func (i *Importer) finish(log logger.Logger, report Report, status string, err error) (Report, error) {
	report.Status = status
	report.Duration = time.Since(report.StartedAt)
	i.recorder.RecordImport(status)

	if err != nil {
		report.Error = err.Error()
		log.Warn("import failed",
			logger.String("status", status),
			logger.Int("fetched", report.Fetched),
			logger.Int64("inserted", report.Inserted()),
			logger.Error(err))
		return report, err
	}

	log.Info("import completed",
		logger.Int("fetched", report.Fetched),
		logger.Int64("inserted", report.Inserted()),
		logger.Duration("duration", report.Duration))
	return report, nil
}
