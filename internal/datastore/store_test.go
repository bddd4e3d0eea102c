package datastore

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artifact-explorer/artifact-explorer/internal/conf"
	"github.com/artifact-explorer/artifact-explorer/internal/errors"
)

// newTestStore opens a schema-initialized SQLite store in a temp dir. The
// pool is limited to one connection so tests can inspect temp tables.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := OpenSQLite(filepath.Join(t.TempDir(), "artifacts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	sqlDB, err := store.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, store.EnsureSchema(t.Context()))
	return store
}

func ptr[T any](v T) *T { return &v }

// batch is one LoadBatch call's arguments.
type batch struct {
	table   string
	columns []string
	rows    [][]any
}

func newBatch[R Row](table string, rows ...R) batch {
	t, _ := LookupTable(table)
	return batch{table: table, columns: t.ColumnNames(), rows: RowValues(rows)}
}

func load(t *testing.T, store *Store, b batch) (LoadResult, error) {
	t.Helper()
	return store.LoadBatch(t.Context(), b.table, b.columns, b.rows)
}

func countRows(t *testing.T, store *Store, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, store.DB.Table(table).Count(&n).Error)
	return n
}

func TestNew_SelectsConfiguredBackend(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "nested", "dir", "artifacts.db")

	store, err := New(settings)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	assert.Equal(t, DialectSQLite, store.Dialect())
	require.NoError(t, store.Ping(t.Context()))

	_, err = New(&conf.Settings{})
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestMySQLConfigDSN(t *testing.T) {
	t.Parallel()

	dsn := MySQLConfig{
		Username: "museum",
		Password: "s3cret",
		Host:     "db.internal",
		Port:     "3307",
		Database: "artifacts",
	}.DSN()

	assert.True(t, strings.HasPrefix(dsn, "museum:s3cret@tcp(db.internal:3307)/artifacts?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestOpenMySQL_RequiresHostAndDatabase(t *testing.T) {
	t.Parallel()

	_, err := OpenMySQL(MySQLConfig{Username: "root"})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestNilStore(t *testing.T) {
	t.Parallel()

	var store *Store
	assert.ErrorIs(t, store.EnsureSchema(t.Context()), ErrNotInitialized)
	assert.ErrorIs(t, store.Close(), ErrNotInitialized)
	_, err := store.RunQuery(t.Context(), "SELECT 1")
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	for range 3 {
		require.NoError(t, store.EnsureSchema(t.Context()))
	}

	for _, table := range Tables() {
		assert.True(t, store.DB.Migrator().HasTable(table.Name), table.Name)
	}

	rs, err := store.RunQuery(t.Context(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name LIKE 'artifact_%'")
	require.NoError(t, err)
	assert.Equal(t, int64(3), rs.Rows[0][0])
}

func TestEnsureSchema_DeclaresForeignKeys(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	for _, table := range []string{TableMedia, TableColors} {
		rs, err := store.RunQuery(t.Context(), "PRAGMA foreign_key_list("+table+")")
		require.NoError(t, err)
		require.Len(t, rs.Rows, 1, table)
	}
}

func TestCreateSQL_MySQL(t *testing.T) {
	t.Parallel()

	media, _ := LookupTable(TableMedia)
	ddl := media.createSQL(DialectMySQL)
	assert.Contains(t, ddl, "CREATE TABLE IF NOT EXISTS artifact_media")
	assert.Contains(t, ddl, "objectid INT NOT NULL")
	assert.Contains(t, ddl, "PRIMARY KEY (objectid)")
	assert.Contains(t, ddl, "FOREIGN KEY (objectid) REFERENCES artifact_metadata(id)")
	assert.Contains(t, ddl, "ENGINE=InnoDB")

	colors, _ := LookupTable(TableColors)
	ddl = colors.createSQL(DialectSQLite)
	assert.NotContains(t, ddl, "PRIMARY KEY")
	assert.Contains(t, ddl, "percent REAL")
}

func TestCountByClassification(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	_, err := load(t, store, newBatch(TableMetadata,
		MetadataRow{ID: ptr[int64](1), Classification: ptr("Paintings")},
		MetadataRow{ID: ptr[int64](2), Classification: ptr("Paintings")},
		MetadataRow{ID: ptr[int64](3), Classification: ptr("Sculpture")},
	))
	require.NoError(t, err)

	n, err := store.CountByClassification(t.Context(), "Paintings")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = store.CountByClassification(t.Context(), "Coins")
	require.NoError(t, err)
	assert.Zero(t, n)
}
