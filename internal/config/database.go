package config

import (
	"fmt"
	"strings"
)

// Supported database drivers.
const (
	DriverSQLite     = "sqlite"
	DriverPostgreSQL = "postgresql"
	DriverMySQL      = "mysql"
)

// UnsupportedDriverError is returned when a connection string is requested
// for a driver name outside the supported set.
type UnsupportedDriverError struct {
	Driver string
}

func (e *UnsupportedDriverError) Error() string {
	return fmt.Sprintf("unsupported database driver: %q", e.Driver)
}

// Database describes a single database connection target. It is pure data:
// resolving it has no side effects beyond reading configuration sources.
type Database struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	Username string
	Password string
}

// ConnectionString builds the driver-specific DSN. SQLite targets a local
// file derived from the database name; PostgreSQL and MySQL embed host,
// port and credentials. The same inputs always produce the same string.
func (d Database) ConnectionString() (string, error) {
	switch strings.ToLower(d.Driver) {
	case DriverSQLite:
		return d.Name + ".db", nil
	case DriverPostgreSQL:
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
			d.Username, d.Password, d.Host, d.Port, d.Name), nil
	case DriverMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			d.Username, d.Password, d.Host, d.Port, d.Name), nil
	default:
		return "", &UnsupportedDriverError{Driver: d.Driver}
	}
}
