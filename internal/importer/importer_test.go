package importer

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/artifact-explorer/artifact-explorer/internal/datastore"
	"github.com/artifact-explorer/artifact-explorer/internal/errors"
	"github.com/artifact-explorer/artifact-explorer/internal/harvard"
	"github.com/artifact-explorer/artifact-explorer/internal/httpclient"
	"github.com/artifact-explorer/artifact-explorer/internal/observability/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const objectURL = "https://api.test/object"

type testRecord struct {
	id     int
	colors int
}

func pageResponse(t *testing.T, totalPages int, records ...testRecord) httpmock.Responder {
	t.Helper()

	out := make([]map[string]any, 0, len(records))
	for _, r := range records {
		colors := make([]map[string]any, 0, r.colors)
		for c := range r.colors {
			colors = append(colors, map[string]any{"color": "#7d7d7d", "hue": "Grey", "percent": 0.1 * float64(c+1)})
		}
		out = append(out, map[string]any{
			"id":             r.id,
			"title":          "Object " + strconv.Itoa(r.id),
			"classification": "Paintings",
			"rank":           r.id * 10,
			"colors":         colors,
		})
	}
	body, err := json.Marshal(map[string]any{"info": map[string]any{"pages": totalPages}, "records": out})
	require.NoError(t, err)

	return func(*http.Request) (*http.Response, error) {
		resp := httpmock.NewBytesResponse(http.StatusOK, body)
		resp.Header.Set("Content-Type", "application/json")
		return resp, nil
	}
}

func servePages(transport *httpmock.MockTransport, pages map[int]httpmock.Responder) {
	transport.RegisterResponder(http.MethodGet, objectURL, func(req *http.Request) (*http.Response, error) {
		n, _ := strconv.Atoi(req.URL.Query().Get("page"))
		if responder, ok := pages[n]; ok {
			return responder(req)
		}
		return httpmock.NewStringResponse(http.StatusInternalServerError, "boom"), nil
	})
}

func newFetcher(t *testing.T, transport *httpmock.MockTransport) *harvard.Client {
	t.Helper()

	hc := httpclient.New(&httpclient.Config{DefaultTimeout: 5 * time.Second, Transport: transport})
	t.Cleanup(hc.Close)

	client, err := harvard.NewClient(harvard.Config{APIKey: "k", BaseURL: "https://api.test"}, hc)
	require.NoError(t, err)
	return client
}

func newStore(t *testing.T) *datastore.Store {
	t.Helper()

	store, err := datastore.OpenSQLite(filepath.Join(t.TempDir(), "artifacts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.EnsureSchema(t.Context()))
	return store
}

func count(t *testing.T, store *datastore.Store, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, store.DB.Table(table).Count(&n).Error)
	return n
}

func TestImport_LoadsAllTables(t *testing.T) {
	t.Parallel()

	transport := httpmock.NewMockTransport()
	servePages(transport, map[int]httpmock.Responder{
		1: pageResponse(t, 2, testRecord{id: 1, colors: 2}, testRecord{id: 2, colors: 0}),
		2: pageResponse(t, 2, testRecord{id: 3, colors: 1}),
	})
	store := newStore(t)
	imp := New(newFetcher(t, transport), store, nil)

	report, err := imp.Import(t.Context(), "Paintings", 2)
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, metrics.StatusSuccess, report.Status)
	assert.Equal(t, 3, report.Fetched)
	assert.False(t, report.Shared)
	require.Len(t, report.Tables, 3)
	assert.Equal(t, datastore.TableMetadata, report.Tables[0].Table)
	assert.Equal(t, int64(3), report.Tables[0].Inserted)
	assert.Equal(t, int64(3), report.Tables[1].Inserted)
	assert.Equal(t, int64(3), report.Tables[2].Inserted)
	assert.Equal(t, int64(9), report.Inserted())

	assert.Equal(t, int64(3), count(t, store, datastore.TableMetadata))
	assert.Equal(t, int64(3), count(t, store, datastore.TableMedia))
	assert.Equal(t, int64(3), count(t, store, datastore.TableColors))

	existing, err := imp.ExistingCount(t.Context(), "Paintings")
	require.NoError(t, err)
	assert.Equal(t, int64(3), existing)
}

func TestImport_FetchFailureWritesNothing(t *testing.T) {
	t.Parallel()

	transport := httpmock.NewMockTransport()
	servePages(transport, map[int]httpmock.Responder{
		1: pageResponse(t, 2, testRecord{id: 1, colors: 1}, testRecord{id: 2, colors: 1}),
	})
	store := newStore(t)
	imp := New(newFetcher(t, transport), store, nil)

	report, err := imp.Import(t.Context(), "Paintings", 2)
	require.ErrorIs(t, err, harvard.ErrFetchFailed)

	assert.Equal(t, metrics.StatusFetchFailed, report.Status)
	assert.Zero(t, report.Fetched)
	assert.Empty(t, report.Tables)
	assert.NotEmpty(t, report.Error)
	for _, table := range []string{datastore.TableMetadata, datastore.TableMedia, datastore.TableColors} {
		assert.Zero(t, count(t, store, table), table)
	}
}

func TestImport_ReimportKeepsKeysAndDuplicatesColors(t *testing.T) {
	t.Parallel()

	transport := httpmock.NewMockTransport()
	servePages(transport, map[int]httpmock.Responder{
		1: pageResponse(t, 1, testRecord{id: 42, colors: 2}),
	})
	store := newStore(t)
	imp := New(newFetcher(t, transport), store, nil)

	_, err := imp.Import(t.Context(), "Paintings", 1)
	require.NoError(t, err)
	report, err := imp.Import(t.Context(), "Paintings", 1)
	require.NoError(t, err)

	assert.Zero(t, report.Tables[0].Inserted)
	assert.Equal(t, int64(1), report.Tables[0].Skipped)
	assert.Zero(t, report.Tables[1].Inserted)
	assert.Equal(t, int64(2), report.Tables[2].Inserted, "color rows have no key and are appended again")

	assert.Equal(t, int64(1), count(t, store, datastore.TableMetadata))
	assert.Equal(t, int64(1), count(t, store, datastore.TableMedia))
	assert.Equal(t, int64(4), count(t, store, datastore.TableColors))
}

func TestImport_RecordWithoutColors(t *testing.T) {
	t.Parallel()

	transport := httpmock.NewMockTransport()
	servePages(transport, map[int]httpmock.Responder{
		1: pageResponse(t, 1, testRecord{id: 7}),
	})
	store := newStore(t)
	imp := New(newFetcher(t, transport), store, nil)

	report, err := imp.Import(t.Context(), "Paintings", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Tables[0].Inserted)
	assert.Equal(t, int64(1), report.Tables[1].Inserted)
	assert.Zero(t, report.Tables[2].Staged)
	assert.Zero(t, count(t, store, datastore.TableColors))
}

// failingStore fails the load of one table and delegates the rest.
type failingStore struct {
	*datastore.Store
	failTable string
}

var errInjected = errors.NewStd("injected load failure")

func (f failingStore) LoadBatch(ctx context.Context, table string, columns []string, rows [][]any) (datastore.LoadResult, error) {
	if table == f.failTable {
		return datastore.LoadResult{Table: table}, errInjected
	}
	return f.Store.LoadBatch(ctx, table, columns, rows)
}

func TestImport_LoadFailureKeepsCommittedRowSets(t *testing.T) {
	t.Parallel()

	transport := httpmock.NewMockTransport()
	servePages(transport, map[int]httpmock.Responder{
		1: pageResponse(t, 1, testRecord{id: 1, colors: 1}),
	})
	store := newStore(t)
	imp := New(newFetcher(t, transport), failingStore{Store: store, failTable: datastore.TableMedia}, nil)

	report, err := imp.Import(t.Context(), "Paintings", 1)
	require.ErrorIs(t, err, errInjected)

	assert.Equal(t, metrics.StatusLoadFailed, report.Status)
	require.Len(t, report.Tables, 2, "colors are never attempted")
	assert.Equal(t, int64(1), count(t, store, datastore.TableMetadata))
	assert.Zero(t, count(t, store, datastore.TableMedia))
	assert.Zero(t, count(t, store, datastore.TableColors))
}

// blockingFetcher holds every fetch until release is closed.
type blockingFetcher struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (b *blockingFetcher) FetchByClassification(ctx context.Context, classification string, maxPages int) ([]harvard.Record, error) {
	if b.calls.Add(1) == 1 {
		close(b.started)
	}
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	id := int64(1)
	return []harvard.Record{{ID: &id, Classification: &classification}}, nil
}

func TestImport_OverlappingRunsAreShared(t *testing.T) {
	t.Parallel()

	fetcher := &blockingFetcher{started: make(chan struct{}), release: make(chan struct{})}
	imp := New(fetcher, newStore(t), nil)

	var wg sync.WaitGroup
	reports := make([]Report, 2)
	errs := make([]error, 2)

	wg.Go(func() { reports[0], errs[0] = imp.Import(t.Context(), "Paintings", 3) })
	<-fetcher.started
	wg.Go(func() { reports[1], errs[1] = imp.Import(t.Context(), "Paintings", 3) })

	// Give the second caller time to join the in-flight run.
	time.Sleep(50 * time.Millisecond)
	close(fetcher.release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, int32(1), fetcher.calls.Load())
	assert.Equal(t, reports[0].RunID, reports[1].RunID)
	assert.True(t, reports[1].Shared)
}

func TestImport_SharedRunSurvivesFirstCallerCancel(t *testing.T) {
	t.Parallel()

	fetcher := &blockingFetcher{started: make(chan struct{}), release: make(chan struct{})}
	imp := New(fetcher, newStore(t), nil)

	ctx, cancel := context.WithCancel(t.Context())
	firstDone := make(chan error, 1)
	go func() {
		_, err := imp.Import(ctx, "Paintings", 3)
		firstDone <- err
	}()
	<-fetcher.started

	var (
		wg     sync.WaitGroup
		report Report
		err    error
	)
	wg.Go(func() { report, err = imp.Import(t.Context(), "Paintings", 3) })

	// Give the second caller time to join the in-flight run.
	time.Sleep(50 * time.Millisecond)
	cancel()
	require.ErrorIs(t, <-firstDone, context.Canceled)

	close(fetcher.release)
	wg.Wait()

	require.NoError(t, err)
	assert.True(t, report.Shared)
	assert.Equal(t, metrics.StatusSuccess, report.Status)
	assert.Equal(t, 1, report.Fetched)
	assert.Equal(t, int32(1), fetcher.calls.Load())
}

func TestImport_CanceledCallerReturnsEarly(t *testing.T) {
	t.Parallel()

	fetcher := &blockingFetcher{started: make(chan struct{}), release: make(chan struct{})}
	imp := New(fetcher, newStore(t), nil)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() {
		_, err := imp.Import(ctx, "Sculpture", 1)
		done <- err
	}()

	<-fetcher.started
	cancel()
	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	close(fetcher.release)
}

func TestImport_RejectsNonPositivePages(t *testing.T) {
	t.Parallel()

	imp := New(&blockingFetcher{}, newStore(t), nil)
	_, err := imp.Import(t.Context(), "Paintings", 0)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

type importRecorder struct {
	metrics.NoOpRecorder
	mu       sync.Mutex
	statuses []string
}

func (r *importRecorder) RecordImport(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func TestImport_RecordsStatus(t *testing.T) {
	t.Parallel()

	transport := httpmock.NewMockTransport()
	servePages(transport, map[int]httpmock.Responder{
		1: pageResponse(t, 2, testRecord{id: 1}, testRecord{id: 2}),
	})
	rec := &importRecorder{}
	imp := New(newFetcher(t, transport), newStore(t), nil)
	imp.SetRecorder(rec)

	_, err := imp.Import(t.Context(), "Paintings", 1)
	require.NoError(t, err)
	_, err = imp.Import(t.Context(), "Paintings", 2)
	require.Error(t, err)

	assert.Equal(t, []string{metrics.StatusSuccess, metrics.StatusFetchFailed}, rec.statuses)
}

func TestClassifications_ReturnsCopy(t *testing.T) {
	t.Parallel()

	imp := New(nil, nil, []string{"Paintings", "Sculpture"})
	got := imp.Classifications()
	got[0] = "changed"
	assert.Equal(t, []string{"Paintings", "Sculpture"}, imp.Classifications())
}
