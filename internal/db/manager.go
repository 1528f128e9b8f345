// Package db holds the connection/session manager the BDD steps run against.
//
// The manager owns one lazily-created engine handle and hands out scoped
// sessions: every operation opens a session, runs, commits on success or
// rolls back on failure, and releases the session before returning. Query
// results are fully materialized inside the session so callers never touch
// a session-bound cursor. That makes it unsuitable for very large result
// sets, which is fine for a test-fixture tool.
package db

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/satabdisikdar/bdd-database-test-suite/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Column describes a single column of a table as the backend reports it.
type Column struct {
	Name       string
	Type       string
	PrimaryKey bool
}

// Manager wraps a single database engine handle with per-call session
// scoping. It performs no internal locking beyond lazy initialization of the
// handle; concurrent callers share whatever pool the engine provides.
type Manager struct {
	cfg config.Config

	mu sync.Mutex
	db *gorm.DB
}

// NewManager returns a disconnected manager for the given configuration.
// The engine handle is created on first use.
func NewManager(cfg config.Config) *Manager {
	return &Manager{cfg: cfg}
}

// Connect transitions the manager to the connected state. Repeated calls are
// no-ops. Failures are logged and reported as false rather than returned as
// errors, leaving it to the caller to decide whether that is fatal.
func (m *Manager) Connect() bool {
	if _, err := m.handle(); err != nil {
		log.Error("Failed to connect to database", "driver", m.cfg.Database.Driver, "err", err)
		return false
	}
	log.Info("Connected to database", "driver", m.cfg.Database.Driver)
	return true
}

// Connected reports whether the engine handle is live.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db != nil
}

func (m *Manager) handle() (*gorm.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db != nil {
		return m.db, nil
	}

	dsn, err := m.cfg.Database.ConnectionString()
	if err != nil {
		return nil, err
	}

	var dialector gorm.Dialector
	switch strings.ToLower(m.cfg.Database.Driver) {
	case config.DriverSQLite:
		// Writers back off for up to 5s instead of failing with
		// SQLITE_BUSY when concurrent scenarios fan out.
		dialector = sqlite.Open(fmt.Sprintf("file:%s?_busy_timeout=5000", dsn))
	case config.DriverPostgreSQL:
		dialector = postgres.Open(dsn)
	case config.DriverMySQL:
		dialector = mysql.Open(dsn)
	default:
		return nil, &config.UnsupportedDriverError{Driver: m.cfg.Database.Driver}
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database engine: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying db: %w", err)
	}
	sqlDB.SetMaxOpenConns(m.cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(m.cfg.DBMaxIdleConns)

	m.db = db
	return m.db, nil
}

// Session runs fn inside a scoped session, auto-connecting first if needed.
// The session commits when fn returns nil, rolls back when it returns an
// error or panics, and is released on every exit path. Step handlers only
// reach for this directly when they need multi-statement control.
func (m *Manager) Session(fn func(tx *gorm.DB) error) error {
	db, err := m.handle()
	if err != nil {
		return err
	}
	return db.Transaction(fn)
}

// Begin opens a manual transaction for callers that need to hold one open
// across several operations. The caller owns it and must Commit or Rollback.
func (m *Manager) Begin() (*gorm.DB, error) {
	db, err := m.handle()
	if err != nil {
		return nil, err
	}
	tx := db.Begin()
	return tx, tx.Error
}

// ExecuteQuery runs a parameterized read statement and returns every row as
// a column-name-to-value map, in the order the engine produced them. Params
// bind to @name placeholders; pass nil for none.
func (m *Manager) ExecuteQuery(query string, params map[string]any) ([]map[string]any, error) {
	var result []map[string]any
	err := m.Session(func(tx *gorm.DB) error {
		stmt := tx.Raw(query)
		if len(params) > 0 {
			stmt = tx.Raw(query, params)
		}
		rows, err := stmt.Rows()
		if err != nil {
			return err
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			return err
		}
		for rows.Next() {
			values := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range values {
				ptrs[i] = &values[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return err
			}
			row := make(map[string]any, len(cols))
			for i, col := range cols {
				row[col] = normalize(values[i])
			}
			result = append(result, row)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ExecuteNonQuery runs a parameterized write or DDL statement and returns
// the affected-row count the backend reports (0 for DDL by convention).
func (m *Manager) ExecuteNonQuery(query string, params map[string]any) (int64, error) {
	var affected int64
	err := m.Session(func(tx *gorm.DB) error {
		stmt := tx.Exec(query)
		if len(params) > 0 {
			stmt = tx.Exec(query, params)
		}
		if stmt.Error != nil {
			return stmt.Error
		}
		affected = stmt.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// TableExists probes the backend catalog. Any failure, including an
// unreachable catalog, is reported as false rather than an error.
func (m *Manager) TableExists(name string) bool {
	db, err := m.handle()
	if err != nil {
		return false
	}
	return db.Migrator().HasTable(name)
}

// TableSchema returns the table's columns in backend order, or an empty
// slice when introspection fails.
func (m *Manager) TableSchema(name string) []Column {
	db, err := m.handle()
	if err != nil {
		return nil
	}
	types, err := db.Migrator().ColumnTypes(name)
	if err != nil {
		log.Error("Failed to read table schema", "table", name, "err", err)
		return nil
	}
	columns := make([]Column, 0, len(types))
	for _, ct := range types {
		pk, _ := ct.PrimaryKey()
		columns = append(columns, Column{
			Name:       ct.Name(),
			Type:       ct.DatabaseTypeName(),
			PrimaryKey: pk,
		})
	}
	return columns
}

// TableCount returns the number of rows in the table, or 0 on failure.
func (m *Manager) TableCount(name string) int64 {
	rows, err := m.ExecuteQuery(fmt.Sprintf("SELECT COUNT(*) AS count FROM %s", name), nil)
	if err != nil || len(rows) == 0 {
		return 0
	}
	return asInt64(rows[0]["count"])
}

// TruncateTable deletes every row. A full-table DELETE is used instead of a
// native TRUNCATE because not every backend supports one uniformly.
func (m *Manager) TruncateTable(name string) bool {
	if _, err := m.ExecuteNonQuery(fmt.Sprintf("DELETE FROM %s", name), nil); err != nil {
		log.Error("Failed to truncate table", "table", name, "err", err)
		return false
	}
	return true
}

// DropTable drops the table if present.
func (m *Manager) DropTable(name string) bool {
	if _, err := m.ExecuteNonQuery(fmt.Sprintf("DROP TABLE IF EXISTS %s", name), nil); err != nil {
		log.Error("Failed to drop table", "table", name, "err", err)
		return false
	}
	return true
}

// Close releases the engine handle. Safe to call when already disconnected.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	m.db = nil
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return err
	}
	log.Info("Database connection closed")
	return nil
}

// normalize converts driver-specific scan types into the plain values step
// handlers compare against. MySQL in particular reports text columns as
// []byte.
func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case uint64:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		var out int64
		_, _ = fmt.Sscan(n, &out)
		return out
	default:
		return 0
	}
}
