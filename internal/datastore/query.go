package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode"

	"gorm.io/gorm"

	"github.com/artifact-explorer/artifact-explorer/internal/errors"
	"github.com/artifact-explorer/artifact-explorer/internal/logger"
	"github.com/artifact-explorer/artifact-explorer/internal/observability/metrics"
)

// ResultSet is a materialized query result. Byte slices are returned as strings.
type ResultSet struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

var readOnlyKeywords = map[string]bool{
	"SELECT":   true,
	"WITH":     true,
	"SHOW":     true,
	"EXPLAIN":  true,
	"DESCRIBE": true,
	"DESC":     true,
	"PRAGMA":   true,
}

// RunQuery executes one caller-supplied read statement with positional
// parameters. Statements that do not start with a read keyword are refused
// with ErrNotReadOnly; everything runs in a transaction that is always
// rolled back. Engine errors are returned as they are, without retry.
func (s *Store) RunQuery(ctx context.Context, sqlText string, params ...any) (*ResultSet, error) {
	return s.runReadOnly(ctx, metrics.KindAdhoc, sqlText, params...)
}

// RunCannedQuery is RunQuery for statements taken from the query catalog.
// It differs only in how the query is accounted in metrics.
func (s *Store) RunCannedQuery(ctx context.Context, sqlText string, params ...any) (*ResultSet, error) {
	return s.runReadOnly(ctx, metrics.KindCanned, sqlText, params...)
}

func (s *Store) runReadOnly(ctx context.Context, kind, sqlText string, params ...any) (*ResultSet, error) {
	if s == nil || s.DB == nil {
		return nil, ErrNotInitialized
	}

	if reason := readOnlyViolation(sqlText); reason != "" {
		return nil, errors.New(fmt.Errorf("%w: %s", ErrNotReadOnly, reason)).
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}

	start := time.Now()
	rs, err := s.readTx(ctx, func(tx *gorm.DB) (*ResultSet, error) {
		rows, err := tx.Raw(sqlText, params...).Rows()
		if err != nil {
			return nil, err
		}
		return scanResultSet(rows)
	})
	elapsed := time.Since(start)
	s.recorder.RecordQuery(kind, elapsed, err)

	if err != nil {
		getLogger().WithContext(ctx).Debug("query failed",
			logger.String("kind", kind),
			logger.Error(err))
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryQuery).
			Context("kind", kind).
			Build()
	}

	getLogger().WithContext(ctx).Debug("query executed",
		logger.String("kind", kind),
		logger.Int("rows", len(rs.Rows)),
		logger.Duration("duration", elapsed))
	return rs, nil
}

// readTx runs fn in a read-only transaction and always rolls it back.
func (s *Store) readTx(ctx context.Context, fn func(tx *gorm.DB) (*ResultSet, error)) (*ResultSet, error) {
	tx := s.DB.WithContext(ctx).Begin(&sql.TxOptions{ReadOnly: true})
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer tx.Rollback()
	return fn(tx)
}

// readOnlyViolation explains why sqlText is not accepted by the gateway,
// or returns "" when it is. Semicolons inside string literals are refused
// too; the gateway accepts exactly one statement.
func readOnlyViolation(sqlText string) string {
	keyword := firstKeyword(sqlText)
	if !readOnlyKeywords[keyword] {
		return fmt.Sprintf("statement starts with %q", keyword)
	}
	body := strings.TrimRightFunc(sqlText, func(r rune) bool { return unicode.IsSpace(r) || r == ';' })
	if strings.Contains(body, ";") {
		return "multiple statements"
	}
	if keyword == "PRAGMA" && strings.Contains(body, "=") {
		return "pragma assignment"
	}
	return ""
}

// firstKeyword returns the upper-cased first word of a statement, skipping
// leading whitespace, SQL comments and opening parentheses.
func firstKeyword(sqlText string) string {
	s := sqlText
	for {
		s = strings.TrimLeftFunc(s, func(r rune) bool { return unicode.IsSpace(r) || r == '(' })
		switch {
		case strings.HasPrefix(s, "--"):
			idx := strings.IndexByte(s, '\n')
			if idx < 0 {
				return ""
			}
			s = s[idx+1:]
		case strings.HasPrefix(s, "/*"):
			idx := strings.Index(s, "*/")
			if idx < 0 {
				return ""
			}
			s = s[idx+2:]
		default:
			end := strings.IndexFunc(s, func(r rune) bool {
				return !unicode.IsLetter(r)
			})
			if end < 0 {
				end = len(s)
			}
			return strings.ToUpper(s[:end])
		}
	}
}

// scanResultSet materializes rows and closes them.
func scanResultSet(rows *sql.Rows) (*ResultSet, error) {
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	rs := &ResultSet{Columns: columns, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		rs.Rows = append(rs.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}
