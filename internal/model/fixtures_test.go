package model

import (
	"path/filepath"
	"testing"

	"github.com/satabdisikdar/bdd-database-test-suite/internal/config"
	"github.com/satabdisikdar/bdd-database-test-suite/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixtureManager(t *testing.T) *db.Manager {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.Name = filepath.Join(t.TempDir(), "fixtures_test")
	m := db.NewManager(cfg)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestInitializeCreatesFixtureTables(t *testing.T) {
	m := newFixtureManager(t)
	require.NoError(t, Initialize(m))

	for _, table := range []string{"users", "products", "orders"} {
		assert.True(t, m.TableExists(table), "table %s should exist", table)
	}
}

func TestSeedLoadsBaselineRows(t *testing.T) {
	m := newFixtureManager(t)
	require.NoError(t, Initialize(m))
	require.NoError(t, Seed(m))

	assert.Equal(t, int64(3), m.TableCount("users"))
	assert.Equal(t, int64(3), m.TableCount("products"))
	assert.Equal(t, int64(3), m.TableCount("orders"))

	rows, err := m.ExecuteQuery(
		"SELECT email FROM users WHERE username = @username",
		map[string]any{"username": "john_doe"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "john@example.com", rows[0]["email"])
}

func TestSeedIsAtomic(t *testing.T) {
	m := newFixtureManager(t)
	require.NoError(t, Initialize(m))
	require.NoError(t, Seed(m))

	// A second seed collides with the unique usernames and must leave the
	// row counts untouched.
	require.Error(t, Seed(m))
	assert.Equal(t, int64(3), m.TableCount("users"))
	assert.Equal(t, int64(3), m.TableCount("products"))
}

func TestResetRestoresBaseline(t *testing.T) {
	m := newFixtureManager(t)
	require.NoError(t, Initialize(m))
	require.NoError(t, Seed(m))

	_, err := m.ExecuteNonQuery(
		"INSERT INTO users (username, email, is_active) VALUES ('extra', 'extra@example.com', 1)", nil)
	require.NoError(t, err)
	require.Equal(t, int64(4), m.TableCount("users"))

	require.NoError(t, Reset(m))
	assert.Equal(t, int64(3), m.TableCount("users"))
	assert.Equal(t, int64(3), m.TableCount("orders"))
}

func TestCleanupDropsTables(t *testing.T) {
	m := newFixtureManager(t)
	require.NoError(t, Initialize(m))
	require.NoError(t, Cleanup(m))
	assert.False(t, m.Connected())

	// Tables are gone once the manager reconnects.
	require.True(t, m.Connect())
	assert.False(t, m.TableExists("users"))
}
