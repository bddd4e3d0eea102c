package datastore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/artifact-explorer/artifact-explorer/internal/errors"
	"github.com/artifact-explorer/artifact-explorer/internal/logger"
)

// maxBindVars keeps each staging INSERT under SQLite's historic 999
// parameter limit.
const maxBindVars = 900

// stagingSeq orders staged rows so the first occurrence of a key wins.
const stagingSeq = "staging_seq"

// LoadResult summarizes one LoadBatch call.
type LoadResult struct {
	Table    string        `json:"table"`
	Staged   int64         `json:"staged"`
	Inserted int64         `json:"inserted"`
	Skipped  int64         `json:"skipped"`  // key already present
	Rejected int64         `json:"rejected"` // NULL key
	Duration time.Duration `json:"duration"`
}

// LoadBatch merges rows into table without duplicating existing keys.
//
// Rows are staged in a temporary table on one pinned connection and copied
// to the destination with the dialect's insert-or-ignore statement inside a
// single transaction, so the row-set is applied entirely or not at all.
// Rows with a NULL key are counted as rejected. For tables referencing
// artifact_metadata, any staged key without a metadata row fails the whole
// row-set with ErrOrphanRows.
func (s *Store) LoadBatch(ctx context.Context, table string, columns []string, rows [][]any) (LoadResult, error) {
	result := LoadResult{Table: table}
	if s == nil || s.DB == nil {
		return result, ErrNotInitialized
	}

	t, err := validateBatch(table, columns, rows)
	if err != nil {
		return result, err
	}
	if len(rows) == 0 {
		return result, nil
	}

	start := time.Now()
	log := getLogger().WithContext(ctx)

	err = s.DB.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		staging := s.stagingName(t)

		if err := conn.Exec(s.dropStagingSQL(t)).Error; err != nil {
			return dbError(err, "drop_staging", "table", t.Name)
		}
		if err := conn.Exec(s.createStagingSQL(t, columns)).Error; err != nil {
			return dbError(err, "create_staging", "table", t.Name)
		}
		defer func() {
			// The staging table must go even when ctx is already canceled.
			cleanup := conn.WithContext(context.WithoutCancel(ctx))
			if err := cleanup.Exec(s.dropStagingSQL(t)).Error; err != nil {
				log.Warn("failed to drop staging table",
					logger.String("staging", staging),
					logger.Error(err))
			}
		}()

		return conn.Transaction(func(tx *gorm.DB) error {
			if err := insertStaging(tx, staging, columns, rows); err != nil {
				return dbError(err, "stage_rows", "table", t.Name, "rows", len(rows))
			}
			result.Staged = int64(len(rows))

			if t.References != "" {
				if err := s.checkOrphans(tx, t, staging); err != nil {
					return err
				}
			}

			if err := tx.Raw(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s IS NULL", staging, t.Key)).
				Scan(&result.Rejected).Error; err != nil {
				return dbError(err, "count_rejected", "table", t.Name)
			}

			copied := tx.Exec(s.copySQL(t, staging, columns))
			if copied.Error != nil {
				return dbError(copied.Error, "merge_rows", "table", t.Name)
			}
			result.Inserted = copied.RowsAffected
			return nil
		})
	})

	result.Duration = time.Since(start)
	if err != nil {
		result.Inserted = 0
		log.Error("bulk load failed",
			logger.String("table", table),
			logger.Int("rows", len(rows)),
			logger.Error(err))
		return result, wrapLoadError(err, table)
	}

	result.Skipped = result.Staged - result.Rejected - result.Inserted
	s.recorder.RecordLoad(table, result.Inserted, result.Skipped, result.Rejected, result.Duration)

	log.Info("bulk load completed",
		logger.String("table", table),
		logger.Int64("staged", result.Staged),
		logger.Int64("inserted", result.Inserted),
		logger.Int64("skipped", result.Skipped),
		logger.Int64("rejected", result.Rejected),
		logger.Duration("duration", result.Duration))

	return result, nil
}

// validateBatch checks the table, the columns and the row widths.
func validateBatch(table string, columns []string, rows [][]any) (Table, error) {
	t, ok := LookupTable(table)
	if !ok {
		return Table{}, validationError(ErrUnknownTable, "%q", table)
	}
	if len(columns) == 0 {
		return Table{}, validationError(ErrUnknownColumn, "no columns given for %s", table)
	}

	seen := make(map[string]bool, len(columns))
	hasKey := false
	for _, c := range columns {
		if _, ok := t.column(c); !ok {
			return Table{}, validationError(ErrUnknownColumn, "%q is not a column of %s", c, table)
		}
		if seen[c] {
			return Table{}, validationError(ErrUnknownColumn, "%q listed twice", c)
		}
		seen[c] = true
		hasKey = hasKey || c == t.Key
	}
	if !hasKey {
		return Table{}, validationError(ErrUnknownColumn, "key column %q of %s is required", t.Key, table)
	}

	for i, row := range rows {
		if len(row) != len(columns) {
			return Table{}, validationError(ErrRowWidth, "row %d has %d values, want %d", i, len(row), len(columns))
		}
	}
	return t, nil
}

func (s *Store) stagingName(t Table) string {
	if s.dialect == DialectSQLite {
		return "temp.staging_" + t.Name
	}
	return "staging_" + t.Name
}

func (s *Store) dropStagingSQL(t Table) string {
	if s.dialect == DialectSQLite {
		return "DROP TABLE IF EXISTS temp.staging_" + t.Name
	}
	return "DROP TEMPORARY TABLE IF EXISTS staging_" + t.Name
}

// createStagingSQL mirrors the destination column types without constraints.
func (s *Store) createStagingSQL(t Table, columns []string) string {
	var b strings.Builder
	if s.dialect == DialectSQLite {
		b.WriteString("CREATE TEMP TABLE staging_")
		b.WriteString(t.Name)
		b.WriteString(" (" + stagingSeq + " INTEGER PRIMARY KEY")
	} else {
		b.WriteString("CREATE TEMPORARY TABLE staging_")
		b.WriteString(t.Name)
		b.WriteString(" (" + stagingSeq + " BIGINT AUTO_INCREMENT PRIMARY KEY")
	}
	for _, name := range columns {
		c, _ := t.column(name)
		b.WriteString(", ")
		b.WriteString(c.Name)
		b.WriteString(" ")
		b.WriteString(c.sqlType(s.dialect))
	}
	b.WriteString(")")
	return b.String()
}

// insertStaging writes rows in multi-row INSERT chunks.
func insertStaging(tx *gorm.DB, staging string, columns []string, rows [][]any) error {
	perChunk := max(maxBindVars/len(columns), 1)

	rowPlaceholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	prefix := "INSERT INTO " + staging + " (" + strings.Join(columns, ", ") + ") VALUES "

	for start := 0; start < len(rows); start += perChunk {
		end := min(start+perChunk, len(rows))
		chunk := rows[start:end]

		placeholders := make([]string, len(chunk))
		args := make([]any, 0, len(chunk)*len(columns))
		for i, row := range chunk {
			placeholders[i] = rowPlaceholder
			args = append(args, row...)
		}

		if err := tx.Exec(prefix+strings.Join(placeholders, ", "), args...).Error; err != nil {
			return err
		}
	}
	return nil
}

// checkOrphans fails when a staged key has no row in the referenced table.
func (s *Store) checkOrphans(tx *gorm.DB, t Table, staging string) error {
	ref, _ := LookupTable(t.References)

	var orphans int64
	query := fmt.Sprintf(
		"SELECT COUNT(*) FROM %s s WHERE s.%s IS NOT NULL AND NOT EXISTS (SELECT 1 FROM %s r WHERE r.%s = s.%s)",
		staging, t.Key, ref.Name, ref.Key, t.Key)
	if err := tx.Raw(query).Scan(&orphans).Error; err != nil {
		return dbError(err, "check_orphans", "table", t.Name)
	}
	if orphans > 0 {
		return errors.New(fmt.Errorf("%w: %d rows in %s", ErrOrphanRows, orphans, t.Name)).
			Component("datastore").
			Category(errors.CategoryConflict).
			Context("table", t.Name).
			Context("orphans", orphans).
			Build()
	}
	return nil
}

// copySQL renders the insert-or-ignore copy from staging to the destination.
func (s *Store) copySQL(t Table, staging string, columns []string) string {
	verb := "INSERT IGNORE INTO "
	if s.dialect == DialectSQLite {
		verb = "INSERT OR IGNORE INTO "
	}
	cols := strings.Join(columns, ", ")
	return verb + t.Name + " (" + cols + ") SELECT " + cols + " FROM " + staging +
		" WHERE " + t.Key + " IS NOT NULL ORDER BY " + stagingSeq
}

// wrapLoadError tags failures with the bulk-load category unless a more
// specific category was already chosen.
func wrapLoadError(err error, table string) error {
	var ee *errors.EnhancedError
	if errors.As(err, &ee) && ee.Category != errors.CategoryDatabase {
		return err
	}
	return errors.New(err).
		Component("datastore").
		Category(errors.CategoryLoad).
		Context("table", table).
		Build()
}
