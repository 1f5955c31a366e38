package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCreatesDatabaseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "catalog.db")

	db, err := New(Config{Path: path, Profile: ProfileCatalog, Name: "catalog"})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, "catalog", db.Name())
	assert.Equal(t, ProfileCatalog, db.Profile())
	assert.NotNil(t, db.Conn())

	require.NoError(t, db.HealthCheck(context.Background()))
	require.NoError(t, db.WALCheckpoint(""))
}

func TestNewDefaultsToCatalogProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.db")

	db, err := New(Config{Path: path, Name: "default"})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, ProfileCatalog, db.Profile())
}

func TestBuildConnectionString(t *testing.T) {
	connStr := buildConnectionString("/tmp/cache.db", ProfileCache)
	assert.Contains(t, connStr, "journal_mode(WAL)")
	assert.Contains(t, connStr, "synchronous(OFF)")

	connStr = buildConnectionString("/tmp/catalog.db", ProfileCatalog)
	assert.Contains(t, connStr, "synchronous(NORMAL)")
	assert.Contains(t, connStr, "foreign_keys(1)")
}

func TestExecAndQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exec.db")
	db, err := New(Config{Path: path, Name: "exec"})
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("CREATE TABLE marks (id INTEGER PRIMARY KEY, label TEXT)")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO marks (label) VALUES (?)", "first")
	require.NoError(t, err)

	var label string
	require.NoError(t, db.QueryRow("SELECT label FROM marks WHERE id = 1").Scan(&label))
	assert.Equal(t, "first", label)
}
