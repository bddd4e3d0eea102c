package metrics

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	// StatusFetchFailed marks an import aborted before anything was written.
	StatusFetchFailed = "fetch_failed"
	// StatusLoadFailed marks an import stopped by a row-set failure.
	StatusLoadFailed = "load_failed"
)

// Load outcome label values.
const (
	OutcomeInserted = "inserted"
	OutcomeSkipped  = "skipped"
	OutcomeRejected = "rejected"
)

// Query kind label values.
const (
	KindAdhoc  = "adhoc"
	KindCanned = "canned"
	KindBrowse = "browse"
)

// Histogram bucket configuration constants.
const (
	// BucketStart1ms is the starting bucket for 1ms histograms.
	BucketStart1ms = 0.001
	// BucketStart10ms is the starting bucket for 10ms histograms (10ms to ~40s range).
	BucketStart10ms = 0.01

	BucketFactor2 = 2
	// BucketCount12 gives 1ms to ~2s with factor 2.
	BucketCount12 = 12
	// BucketCount13 gives 10ms to ~40s with factor 2.
	BucketCount13 = 13
)
