// Package metrics provides custom Prometheus metrics for the artifact ingestion pipeline.
package metrics

import "time"

// Recorder defines the metrics surface used by the fetcher, loader and
// query gateway. Components depend on this interface rather than on
// ImportMetrics so tests can pass a stub.
type Recorder interface {
	// RecordPageFetch records one catalog page request with its status.
	RecordPageFetch(status string, d time.Duration)

	// RecordFetchCache records a fetch cache lookup.
	RecordFetchCache(hit bool)

	// RecordLoad records one LoadBatch row-set.
	RecordLoad(table string, inserted, skipped, rejected int64, d time.Duration)

	// RecordImport records the final status of one import run.
	RecordImport(status string)

	// RecordQuery records a read query. A non-nil err also counts an error.
	RecordQuery(kind string, d time.Duration, err error)
}

// NoOpRecorder discards everything. It is the default when no metrics are wired.
type NoOpRecorder struct{}

func (NoOpRecorder) RecordPageFetch(string, time.Duration) {}
func (NoOpRecorder) RecordFetchCache(bool) {}
func (NoOpRecorder) RecordLoad(string, int64, int64, int64, time.Duration) {}
func (NoOpRecorder) RecordImport(string) {}
func (NoOpRecorder) RecordQuery(string, time.Duration, error) {}

// OrNoOp returns r, or a NoOpRecorder when r is nil.
func OrNoOp(r Recorder) Recorder {
	if r == nil {
		return NoOpRecorder{}
	}
	return r
}
