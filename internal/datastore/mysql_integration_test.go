//go:build integration

package datastore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"
	"gorm.io/driver/mysql"
)

// newMySQLStore starts a disposable MySQL server and returns a schema
// initialized store connected to it.
func newMySQLStore(t *testing.T) *Store {
	t.Helper()

	ctx := t.Context()
	container, err := tcmysql.Run(ctx, "mysql:8.4",
		tcmysql.WithDatabase("artifacts"),
		tcmysql.WithUsername("museum"),
		tcmysql.WithPassword("museum"),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "parseTime=true", "charset=utf8mb4")
	require.NoError(t, err)

	store, err := Open(mysql.Open(dsn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.Equal(t, DialectMySQL, store.Dialect())
	require.NoError(t, store.EnsureSchema(ctx))
	return store
}

func TestMySQL_LoadAndQuery(t *testing.T) {
	store := newMySQLStore(t)

	require.NoError(t, store.EnsureSchema(t.Context()), "schema creation is idempotent")

	meta := newBatch(TableMetadata,
		MetadataRow{ID: ptr[int64](42), Title: ptr("first"), Classification: ptr("Paintings")},
		MetadataRow{ID: nil, Title: ptr("no id")},
	)
	res, err := load(t, store, meta)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Inserted)
	assert.Equal(t, int64(1), res.Rejected)

	res, err = load(t, store, newBatch(TableMetadata,
		MetadataRow{ID: ptr[int64](42), Title: ptr("second")},
	))
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Skipped)

	_, err = load(t, store, newBatch(TableMedia, MediaRow{ObjectID: ptr[int64](7)}))
	require.ErrorIs(t, err, ErrOrphanRows, "INSERT IGNORE must not swallow foreign key violations")

	colors := newBatch(TableColors, ColorRow{ObjectID: ptr[int64](42), Hue: ptr("Blue"), Percent: ptr(0.5)})
	for range 2 {
		_, err = load(t, store, colors)
		require.NoError(t, err)
	}

	rs, err := store.RunQuery(t.Context(), "SELECT COUNT(*) FROM artifact_colors")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rs.Rows[0][0])

	rs, err = store.RunQuery(t.Context(), "SELECT title FROM artifact_metadata WHERE id = ?", 42)
	require.NoError(t, err)
	assert.Equal(t, "first", rs.Rows[0][0])

	_, err = store.RunQuery(t.Context(), "DELETE FROM artifact_colors")
	assert.ErrorIs(t, err, ErrNotReadOnly)

	rs, err = store.Browse(t.Context(), TableColors, "Paintings", 0)
	require.NoError(t, err)
	assert.Len(t, rs.Rows, 2)
}
