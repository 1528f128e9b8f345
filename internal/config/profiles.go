package config

import (
	"fmt"
	"time"
)

// Profile returns the named configuration profile layered on top of the
// environment-derived config. Profiles mirror the environments the suite is
// run against; unknown names are an error so typos fail fast.
func Profile(name string) (Config, error) {
	cfg := FromEnv()
	switch name {
	case "", "local":
		cfg.Environment = "local"
		cfg.Database.Driver = DriverSQLite
		cfg.Database.Name = "local_test_db"
		cfg.PerformanceThreshold = 10 * time.Second
		cfg.BulkOperationCount = 100
		cfg.ConcurrentOperations = 10
	case "ci":
		cfg.Environment = "ci"
		cfg.Database.Driver = DriverSQLite
		cfg.Database.Name = "ci_test_db"
		cfg.PerformanceThreshold = 15 * time.Second
		cfg.BulkOperationCount = 500
		cfg.ConcurrentOperations = 25
		cfg.CleanupAfterTests = true
	case "staging":
		cfg.Environment = "staging"
		cfg.Database.Driver = DriverPostgreSQL
		cfg.Database.Host = "staging-db.example.com"
		cfg.Database.Name = "staging_test_db"
		cfg.PerformanceThreshold = 5 * time.Second
		cfg.BulkOperationCount = 1000
		cfg.ConcurrentOperations = 50
	case "production":
		cfg.Environment = "production"
		cfg.Database.Driver = DriverPostgreSQL
		cfg.Database.Host = "prod-db.example.com"
		cfg.Database.Name = "prod_test_db"
		cfg.PerformanceThreshold = 2 * time.Second
		cfg.BulkOperationCount = 2000
		cfg.ConcurrentOperations = 100
		cfg.PreserveTestData = true
	default:
		return Config{}, fmt.Errorf("unknown configuration profile: %q", name)
	}
	return cfg, nil
}
