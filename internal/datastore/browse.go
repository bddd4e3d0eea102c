package datastore

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/artifact-explorer/artifact-explorer/internal/errors"
	"github.com/artifact-explorer/artifact-explorer/internal/observability/metrics"
)

// DefaultBrowseLimit caps Browse results when no limit is given.
const DefaultBrowseLimit = 1000

// Browse lists rows of one destination table whose artifact carries the
// given classification. Media and color rows are matched through their
// metadata row. An empty classification lists every row.
func (s *Store) Browse(ctx context.Context, table, classification string, limit int) (*ResultSet, error) {
	if s == nil || s.DB == nil {
		return nil, ErrNotInitialized
	}
	t, ok := LookupTable(table)
	if !ok {
		return nil, validationError(ErrUnknownTable, "%q", table)
	}
	if limit <= 0 {
		limit = DefaultBrowseLimit
	}

	start := time.Now()
	rs, err := s.readTx(ctx, func(tx *gorm.DB) (*ResultSet, error) {
		rows, err := browseQuery(tx, t, classification).Limit(limit).Rows()
		if err != nil {
			return nil, err
		}
		return scanResultSet(rows)
	})
	s.recorder.RecordQuery(metrics.KindBrowse, time.Since(start), err)
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryQuery).
			Context("table", table).
			Build()
	}
	return rs, nil
}

func browseQuery(tx *gorm.DB, t Table, classification string) *gorm.DB {
	if t.References == "" {
		q := tx.Table(t.Name)
		if classification != "" {
			q = q.Where("classification = ?", classification)
		}
		return q.Order(t.Key)
	}

	q := tx.Table(t.Name + " AS t").
		Select("t.*").
		Joins("JOIN " + t.References + " AS m ON m.id = t." + t.Key)
	if classification != "" {
		q = q.Where("m.classification = ?", classification)
	}
	return q.Order("t." + t.Key)
}
