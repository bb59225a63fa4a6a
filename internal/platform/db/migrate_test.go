package db

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosha-admin/kosha/internal/platform/db/migrations"
)

func TestUpSection(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a();\n-- +migrate Down\nDROP TABLE a;\n"
	assert.Equal(t, "\nCREATE TABLE a();\n", UpSection(content))
	assert.Equal(t, "SELECT 1;", UpSection("SELECT 1;"))
	assert.Equal(t, "\nCREATE TABLE b();", UpSection("-- +migrate Up\nCREATE TABLE b();"))
}

func TestMigrationFilesSorted(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_b.sql": {Data: []byte("SELECT 2;")},
		"0001_a.sql": {Data: []byte("SELECT 1;")},
		"README.md":  {Data: []byte("notes")},
	}
	files, err := migrationFiles(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_a.sql", "0002_b.sql"}, files)
}

func TestEmbeddedSchemaDefinesDashboardTables(t *testing.T) {
	files, err := migrationFiles(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, files)

	raw, err := migrations.FS.ReadFile(files[0])
	require.NoError(t, err)
	up := UpSection(string(raw))
	assert.Contains(t, up, "CREATE TABLE IF NOT EXISTS admin_users")
	assert.Contains(t, up, "CREATE TABLE IF NOT EXISTS admin_actions")
	assert.NotContains(t, up, "DROP TABLE")
}
