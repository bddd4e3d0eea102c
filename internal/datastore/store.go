// Package datastore owns the artifact tables: schema creation, the
// idempotent bulk loader, the read-only query gateway and the table browser.
package datastore

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/artifact-explorer/artifact-explorer/internal/conf"
	"github.com/artifact-explorer/artifact-explorer/internal/logger"
	"github.com/artifact-explorer/artifact-explorer/internal/observability/metrics"
)

// Dialect identifies the SQL engine behind a Store.
type Dialect string

const (
	DialectMySQL  Dialect = "mysql"
	DialectSQLite Dialect = "sqlite"
)

// Store is the process-wide database handle. It is safe for concurrent use.
type Store struct {
	DB       *gorm.DB
	dialect  Dialect
	recorder metrics.Recorder
}

// New opens the store selected by the output settings.
func New(settings *conf.Settings) (*Store, error) {
	switch {
	case settings.Output.SQLite.Enabled:
		return OpenSQLite(settings.Output.SQLite.Path)
	case settings.Output.MySQL.Enabled:
		return OpenMySQL(MySQLConfig{
			Username: settings.Output.MySQL.Username,
			Password: settings.Output.MySQL.Password,
			Host:     settings.Output.MySQL.Host,
			Port:     settings.Output.MySQL.Port,
			Database: settings.Output.MySQL.Database,
		})
	default:
		return nil, validationError(ErrNotInitialized, "no output database enabled")
	}
}

// Open wraps an already configured GORM dialector.
func Open(dialector gorm.Dialector) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{Logger: createGormLogger()})
	if err != nil {
		return nil, dbError(fmt.Errorf("failed to open database: %w", err), "open")
	}

	var dialect Dialect
	switch name := db.Dialector.Name(); name {
	case "mysql":
		dialect = DialectMySQL
	case "sqlite":
		dialect = DialectSQLite
	default:
		return nil, dbError(fmt.Errorf("unsupported dialect %q", name), "open")
	}

	return &Store{DB: db, dialect: dialect, recorder: metrics.NoOpRecorder{}}, nil
}

// Dialect returns the engine the store talks to.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// SetRecorder sets the metrics recorder. A nil recorder disables metrics.
func (s *Store) SetRecorder(r metrics.Recorder) {
	s.recorder = metrics.OrNoOp(r)
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return ErrNotInitialized
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return dbError(err, "ping")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return dbError(err, "ping")
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return ErrNotInitialized
	}

	sqlDB, err := s.DB.DB()
	if err != nil {
		getLogger().Error("failed to retrieve generic DB object", logger.Error(err))
		return dbError(err, "close")
	}
	if err := sqlDB.Close(); err != nil {
		getLogger().Error("failed to close database", logger.Error(err))
		return dbError(err, "close")
	}

	getLogger().Debug("database connection closed", logger.String("dialect", string(s.dialect)))
	return nil
}

// CountByClassification returns how many metadata rows carry classification.
func (s *Store) CountByClassification(ctx context.Context, classification string) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, ErrNotInitialized
	}
	var n int64
	err := s.DB.WithContext(ctx).
		Table(TableMetadata).
		Where("classification = ?", classification).
		Count(&n).Error
	if err != nil {
		return 0, dbError(err, "count_by_classification", "classification", classification)
	}
	return n, nil
}
