package db

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/satabdisikdar/bdd-database-test-suite/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.Name = filepath.Join(t.TempDir(), "manager_test")
	m := NewManager(cfg)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func createNotesTable(t *testing.T, m *Manager) {
	t.Helper()
	_, err := m.ExecuteNonQuery(
		"CREATE TABLE notes (id INTEGER PRIMARY KEY, title VARCHAR(100) NOT NULL, body TEXT)", nil)
	require.NoError(t, err)
}

func TestConnectIsIdempotent(t *testing.T) {
	m := newTestManager(t)
	assert.False(t, m.Connected())
	require.True(t, m.Connect())
	assert.True(t, m.Connected())
	require.True(t, m.Connect())
	assert.True(t, m.Connected())
}

func TestConnectUnsupportedDriver(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Database.Driver = "oracle"
	m := NewManager(cfg)

	assert.False(t, m.Connect())
	assert.False(t, m.Connected())

	err := m.Session(func(tx *gorm.DB) error { return nil })
	var udErr *config.UnsupportedDriverError
	require.True(t, errors.As(err, &udErr))
}

func TestCloseWhenDisconnectedIsNoop(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}

func TestExecuteNonQueryAffectedRows(t *testing.T) {
	m := newTestManager(t)
	createNotesTable(t, m)

	affected, err := m.ExecuteNonQuery(
		"INSERT INTO notes (title, body) VALUES (@title, @body)",
		map[string]any{"title": "first", "body": "hello"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	affected, err = m.ExecuteNonQuery(
		"UPDATE notes SET body = @body", map[string]any{"body": "updated"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
}

func TestExecuteQueryMaterializesRows(t *testing.T) {
	m := newTestManager(t)
	createNotesTable(t, m)

	for i := 0; i < 3; i++ {
		_, err := m.ExecuteNonQuery(
			"INSERT INTO notes (title, body) VALUES (@title, @body)",
			map[string]any{"title": fmt.Sprintf("note-%d", i), "body": "text"})
		require.NoError(t, err)
	}

	rows, err := m.ExecuteQuery("SELECT id, title FROM notes ORDER BY id", nil)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.Len(t, row, 2)
		assert.Contains(t, row, "id")
		assert.Contains(t, row, "title")
	}
	assert.Equal(t, "note-0", rows[0]["title"])
	assert.Equal(t, "note-2", rows[2]["title"])
}

func TestExecuteQueryNamedParams(t *testing.T) {
	m := newTestManager(t)
	createNotesTable(t, m)

	_, err := m.ExecuteNonQuery(
		"INSERT INTO notes (title, body) VALUES (@title, @body)",
		map[string]any{"title": "target", "body": "x"})
	require.NoError(t, err)

	rows, err := m.ExecuteQuery(
		"SELECT * FROM notes WHERE title = @title", map[string]any{"title": "target"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "target", rows[0]["title"])

	rows, err = m.ExecuteQuery(
		"SELECT * FROM notes WHERE title = @title", map[string]any{"title": "missing"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestExecuteQueryStatementError(t *testing.T) {
	m := newTestManager(t)
	rows, err := m.ExecuteQuery("SELECT * FROM no_such_table", nil)
	require.Error(t, err)
	assert.Nil(t, rows)
}

func TestSessionRollbackIsTotal(t *testing.T) {
	m := newTestManager(t)
	createNotesTable(t, m)

	boom := errors.New("boom")
	err := m.Session(func(tx *gorm.DB) error {
		if err := tx.Exec("INSERT INTO notes (title) VALUES ('a')").Error; err != nil {
			return err
		}
		if err := tx.Exec("INSERT INTO notes (title) VALUES ('b')").Error; err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// Neither insert may be visible after the rollback.
	assert.Equal(t, int64(0), m.TableCount("notes"))
}

func TestSessionCommitsOnSuccess(t *testing.T) {
	m := newTestManager(t)
	createNotesTable(t, m)

	err := m.Session(func(tx *gorm.DB) error {
		return tx.Exec("INSERT INTO notes (title) VALUES ('kept')").Error
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.TableCount("notes"))
}

func TestBeginRollbackDiscardsWrites(t *testing.T) {
	m := newTestManager(t)
	createNotesTable(t, m)

	tx, err := m.Begin()
	require.NoError(t, err)
	require.NoError(t, tx.Exec("INSERT INTO notes (title) VALUES ('pending')").Error)
	require.NoError(t, tx.Rollback().Error)

	assert.Equal(t, int64(0), m.TableCount("notes"))
}

func TestBeginCommitKeepsWrites(t *testing.T) {
	m := newTestManager(t)
	createNotesTable(t, m)

	tx, err := m.Begin()
	require.NoError(t, err)
	require.NoError(t, tx.Exec("INSERT INTO notes (title) VALUES ('kept')").Error)
	require.NoError(t, tx.Commit().Error)

	assert.Equal(t, int64(1), m.TableCount("notes"))
}

func TestTableExists(t *testing.T) {
	m := newTestManager(t)
	assert.False(t, m.TableExists("notes"))
	createNotesTable(t, m)
	assert.True(t, m.TableExists("notes"))
}

func TestTableExistsSwallowsErrors(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Database.Driver = "oracle"
	m := NewManager(cfg)
	assert.False(t, m.TableExists("anything"))
}

func TestTableSchema(t *testing.T) {
	m := newTestManager(t)
	createNotesTable(t, m)

	schema := m.TableSchema("notes")
	require.Len(t, schema, 3)
	assert.Equal(t, "id", schema[0].Name)
	assert.True(t, schema[0].PrimaryKey)
	assert.Equal(t, "title", schema[1].Name)
	assert.False(t, schema[1].PrimaryKey)

	assert.Empty(t, m.TableSchema("no_such_table"))
}

func TestTableCount(t *testing.T) {
	m := newTestManager(t)
	createNotesTable(t, m)
	assert.Equal(t, int64(0), m.TableCount("notes"))

	_, err := m.ExecuteNonQuery("INSERT INTO notes (title) VALUES ('x')", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.TableCount("notes"))

	// Failures downgrade to zero.
	assert.Equal(t, int64(0), m.TableCount("no_such_table"))
}

func TestTruncateThenCountIsZero(t *testing.T) {
	m := newTestManager(t)
	createNotesTable(t, m)
	for i := 0; i < 5; i++ {
		_, err := m.ExecuteNonQuery("INSERT INTO notes (title) VALUES ('x')", nil)
		require.NoError(t, err)
	}

	require.True(t, m.TruncateTable("notes"))
	assert.Equal(t, int64(0), m.TableCount("notes"))
	assert.True(t, m.TableExists("notes"))
}

func TestDropThenExistsIsFalse(t *testing.T) {
	m := newTestManager(t)
	createNotesTable(t, m)

	require.True(t, m.DropTable("notes"))
	assert.False(t, m.TableExists("notes"))

	// Dropping a missing table is still a success: DROP TABLE IF EXISTS.
	assert.True(t, m.DropTable("notes"))
}

func TestTruncateMissingTableReturnsFalse(t *testing.T) {
	m := newTestManager(t)
	assert.False(t, m.TruncateTable("no_such_table"))
}
