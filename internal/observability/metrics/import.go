package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ImportMetrics contains Prometheus metrics for catalog fetches, bulk loads
// and read queries.
type ImportMetrics struct {
	registry *prometheus.Registry

	fetchPagesTotal *prometheus.CounterVec
	fetchDuration   prometheus.Histogram
	fetchCacheTotal *prometheus.CounterVec

	loadRowsTotal *prometheus.CounterVec
	loadDuration  *prometheus.HistogramVec

	importsTotal *prometheus.CounterVec

	queryDuration    *prometheus.HistogramVec
	queryErrorsTotal *prometheus.CounterVec

	collectors []prometheus.Collector
}

var _ Recorder = (*ImportMetrics)(nil)

// NewImportMetrics creates and registers import metrics on registry.
func NewImportMetrics(registry *prometheus.Registry) (*ImportMetrics, error) {
	m := &ImportMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register import metrics: %w", err)
	}
	return m, nil
}

func (m *ImportMetrics) initMetrics() {
	m.fetchPagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artifact_fetch_pages_total",
			Help: "Total number of catalog page requests",
		},
		[]string{"status"}, // success, error
	)

	m.fetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "artifact_fetch_duration_seconds",
		Help:    "Time taken by a single catalog page request",
		Buckets: prometheus.ExponentialBuckets(BucketStart10ms, BucketFactor2, BucketCount13),
	})

	m.fetchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artifact_fetch_cache_total",
			Help: "Fetch cache lookups by result",
		},
		[]string{"result"}, // hit, miss
	)

	m.loadRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artifact_load_rows_total",
			Help: "Rows processed by the bulk loader",
		},
		[]string{"table", "outcome"},
	)

	m.loadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "artifact_load_duration_seconds",
			Help:    "Time taken to stage and merge one row-set",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount13),
		},
		[]string{"table"},
	)

	m.importsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artifact_imports_total",
			Help: "Import runs by final status",
		},
		[]string{"status"},
	)

	m.queryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "artifact_query_duration_seconds",
			Help:    "Time taken by read queries",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount12),
		},
		[]string{"kind"}, // adhoc, canned, browse
	)

	m.queryErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artifact_query_errors_total",
			Help: "Read queries that returned an error",
		},
		[]string{"kind"},
	)

	m.collectors = []prometheus.Collector{
		m.fetchPagesTotal,
		m.fetchDuration,
		m.fetchCacheTotal,
		m.loadRowsTotal,
		m.loadDuration,
		m.importsTotal,
		m.queryDuration,
		m.queryErrorsTotal,
	}
}

// RecordPageFetch records one catalog page request.
func (m *ImportMetrics) RecordPageFetch(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.fetchPagesTotal.WithLabelValues(status).Inc()
	m.fetchDuration.Observe(d.Seconds())
}

// RecordFetchCache records a cache hit or miss.
func (m *ImportMetrics) RecordFetchCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.fetchCacheTotal.WithLabelValues(result).Inc()
}

// RecordLoad records the outcome counts and duration of one row-set.
func (m *ImportMetrics) RecordLoad(table string, inserted, skipped, rejected int64, d time.Duration) {
	if m == nil {
		return
	}
	m.loadRowsTotal.WithLabelValues(table, OutcomeInserted).Add(float64(inserted))
	m.loadRowsTotal.WithLabelValues(table, OutcomeSkipped).Add(float64(skipped))
	m.loadRowsTotal.WithLabelValues(table, OutcomeRejected).Add(float64(rejected))
	m.loadDuration.WithLabelValues(table).Observe(d.Seconds())
}

// RecordImport records the final status of an import run.
func (m *ImportMetrics) RecordImport(status string) {
	if m == nil {
		return
	}
	m.importsTotal.WithLabelValues(status).Inc()
}

// RecordQuery records a read query duration and, when err is set, an error.
func (m *ImportMetrics) RecordQuery(kind string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.queryDuration.WithLabelValues(kind).Observe(d.Seconds())
	if err != nil {
		m.queryErrorsTotal.WithLabelValues(kind).Inc()
	}
}

// Describe implements the prometheus.Collector interface.
func (m *ImportMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors {
		c.Describe(ch)
	}
}

// Collect implements the prometheus.Collector interface.
func (m *ImportMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors {
		c.Collect(ch)
	}
}
