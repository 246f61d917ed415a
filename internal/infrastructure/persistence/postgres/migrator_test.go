package postgres

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMigrationFilename(t *testing.T) {
	id, name, err := parseMigrationFilename("001_create_orders.sql")
	require.NoError(t, err)
	assert.Equal(t, 1, id)
	assert.Equal(t, "create orders", name)

	_, _, err = parseMigrationFilename("create_orders.sql")
	assert.Error(t, err)

	_, _, err = parseMigrationFilename("orders.sql")
	assert.Error(t, err)
}

func TestSplitMigration(t *testing.T) {
	up, down := splitMigration("CREATE TABLE t (id int);\n-- DOWN Migration\nDROP TABLE t;\n")
	assert.Equal(t, "CREATE TABLE t (id int);\n", up)
	assert.Equal(t, "DROP TABLE t;", down)

	up, down = splitMigration("CREATE TABLE t (id int);")
	assert.Equal(t, "CREATE TABLE t (id int);", up)
	assert.Empty(t, down)
}

func TestChecksumDetectsEdits(t *testing.T) {
	a := calculateChecksum("CREATE TABLE a (id int);")
	b := calculateChecksum("CREATE TABLE b (id int);")
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestLoadEmbeddedOrdersMigration(t *testing.T) {
	m := NewMigrator(nil)
	require.NoError(t, m.LoadEmbedded())

	orders, ok := m.migrations[1]
	require.True(t, ok)
	assert.Contains(t, orders.UpSQL, "CREATE TABLE IF NOT EXISTS orders")
	assert.NotContains(t, orders.UpSQL, "DROP TABLE")
	assert.Equal(t, "DROP TABLE IF EXISTS orders;", orders.DownSQL)
	assert.Equal(t, "журнал заказов пополнения", orders.Description)

	widen, ok := m.migrations[2]
	require.True(t, ok)
	assert.Contains(t, widen.UpSQL, "target_account_id TYPE TEXT")
	assert.Contains(t, widen.UpSQL, "status TYPE TEXT")
	assert.Contains(t, widen.UpSQL, "raw_response TYPE TEXT")
	assert.Contains(t, widen.DownSQL, "raw_response TYPE JSONB")
}

func TestLoadFSRejectsDuplicatesAndEmpty(t *testing.T) {
	m := NewMigrator(nil)
	err := m.LoadFS(fstest.MapFS{
		"001_a.sql":  {Data: []byte("SELECT 1;")},
		"0001_b.sql": {Data: []byte("SELECT 2;")},
	})
	assert.ErrorContains(t, err, "duplicate migration ID 1")

	m = NewMigrator(nil)
	assert.Error(t, m.LoadFS(fstest.MapFS{}))

	m = NewMigrator(nil)
	err = m.LoadFS(fstest.MapFS{"001_a.sql": {Data: []byte("-- DOWN Migration\nDROP TABLE a;")}})
	assert.ErrorContains(t, err, "no UP section")
}
