package datastore

import (
	"context"

	"github.com/artifact-explorer/artifact-explorer/internal/logger"
)

// EnsureSchema creates the destination tables, their primary keys and
// foreign keys when they do not exist yet. It is safe to call on every start.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return ErrNotInitialized
	}

	db := s.DB.WithContext(ctx)
	for _, t := range tables {
		existed := db.Migrator().HasTable(t.Name)

		if err := db.Exec(t.createSQL(s.dialect)).Error; err != nil {
			return dbError(err, "ensure_schema", "table", t.Name, "dialect", string(s.dialect))
		}

		if !existed {
			getLogger().Info("created table",
				logger.String("table", t.Name),
				logger.String("dialect", string(s.dialect)))
		}
	}
	return nil
}
