package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) *ImportMetrics {
	t.Helper()
	m, err := NewImportMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	return m
}

func TestNewImportMetrics_DuplicateRegistration(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	_, err := NewImportMetrics(registry)
	require.NoError(t, err)

	_, err = NewImportMetrics(registry)
	assert.Error(t, err, "registering the same collectors twice must fail")
}

func TestRecordLoad(t *testing.T) {
	t.Parallel()
	m := newTestMetrics(t)

	m.RecordLoad("artifact_metadata", 8, 2, 1, 15*time.Millisecond)
	m.RecordLoad("artifact_metadata", 0, 10, 0, 5*time.Millisecond)

	assert.InDelta(t, 8, testutil.ToFloat64(m.loadRowsTotal.WithLabelValues("artifact_metadata", OutcomeInserted)), 0)
	assert.InDelta(t, 12, testutil.ToFloat64(m.loadRowsTotal.WithLabelValues("artifact_metadata", OutcomeSkipped)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.loadRowsTotal.WithLabelValues("artifact_metadata", OutcomeRejected)), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.loadDuration))
}

func TestRecordFetchCache(t *testing.T) {
	t.Parallel()
	m := newTestMetrics(t)

	m.RecordFetchCache(true)
	m.RecordFetchCache(false)
	m.RecordFetchCache(false)

	assert.InDelta(t, 1, testutil.ToFloat64(m.fetchCacheTotal.WithLabelValues("hit")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.fetchCacheTotal.WithLabelValues("miss")), 0)
}

func TestRecordQuery_CountsErrors(t *testing.T) {
	t.Parallel()
	m := newTestMetrics(t)

	m.RecordQuery(KindAdhoc, time.Millisecond, nil)
	m.RecordQuery(KindAdhoc, time.Millisecond, errors.New("syntax error"))
	m.RecordQuery(KindCanned, time.Millisecond, nil)

	assert.InDelta(t, 1, testutil.ToFloat64(m.queryErrorsTotal.WithLabelValues(KindAdhoc)), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.queryErrorsTotal.WithLabelValues(KindCanned)), 0)
}

func TestRecordImportAndPages(t *testing.T) {
	t.Parallel()
	m := newTestMetrics(t)

	m.RecordImport(StatusSuccess)
	m.RecordImport(StatusFetchFailed)
	m.RecordPageFetch(StatusSuccess, 120*time.Millisecond)
	m.RecordPageFetch(StatusError, 30*time.Millisecond)

	assert.InDelta(t, 1, testutil.ToFloat64(m.importsTotal.WithLabelValues(StatusFetchFailed)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.fetchPagesTotal.WithLabelValues(StatusError)), 0)
}

func TestNilImportMetricsIsSafe(t *testing.T) {
	t.Parallel()

	var m *ImportMetrics
	assert.NotPanics(t, func() {
		m.RecordPageFetch(StatusSuccess, time.Second)
		m.RecordFetchCache(true)
		m.RecordLoad("artifact_colors", 1, 0, 0, time.Second)
		m.RecordImport(StatusSuccess)
		m.RecordQuery(KindBrowse, time.Second, nil)
	})
}

func TestOrNoOp(t *testing.T) {
	t.Parallel()

	assert.IsType(t, NoOpRecorder{}, OrNoOp(nil))

	m := newTestMetrics(t)
	assert.Same(t, m, OrNoOp(m))
}
