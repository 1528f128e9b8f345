package config

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type contextKey struct{}

// WithContext returns a new context carrying the given Config.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, contextKey{}, cfg)
}

// FromContext retrieves the Config from the context.
func FromContext(ctx context.Context) *Config {
	cfg, _ := ctx.Value(contextKey{}).(*Config)
	return cfg
}

// Config holds all configuration for a test run: the database target plus the
// knobs consumed by the test orchestration (thresholds, bulk sizes, reporting).
// The manager itself only reads Database and the pool settings; timeouts are
// enforced by the surrounding test run, not on individual calls.
type Config struct {
	Database Database

	// Environment name ("local", "ci", "staging", "production").
	Environment string

	// Maximum wall-clock budget for a whole test run.
	Timeout time.Duration

	// Upper bound for bulk/search operations before they count as failures.
	PerformanceThreshold time.Duration

	// DB pool (applied to the engine's underlying sql.DB).
	DBMaxOpenConns int
	DBMaxIdleConns int

	// Fixture handling.
	LoadTestData      bool
	CleanupAfterTests bool
	PreserveTestData  bool

	// Performance test sizing.
	BulkOperationCount   int
	ConcurrentOperations int
	StressTestUsers      int
	StressTestOperations int

	// Reporting.
	GenerateReports bool
	ReportFormat    string
	ReportDir       string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Database: Database{
			Driver:   DriverSQLite,
			Host:     "localhost",
			Port:     5432,
			Name:     "test_db",
			Username: "test_user",
			Password: "test_password",
		},
		Environment:          "local",
		Timeout:              30 * time.Second,
		PerformanceThreshold: 5 * time.Second,
		DBMaxOpenConns:       20,
		DBMaxIdleConns:       5,
		LoadTestData:         true,
		CleanupAfterTests:    true,
		BulkOperationCount:   1000,
		ConcurrentOperations: 50,
		StressTestUsers:      100,
		StressTestOperations: 1000,
		GenerateReports:      true,
		ReportFormat:         "junit",
		ReportDir:            "reports",
	}
}

// FromEnv loads configuration from environment variables, starting from the
// defaults. A .env file in the working directory is honored when present.
func FromEnv() Config {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	cfg.Database.Driver = envString("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.Host = envString("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = envInt("DB_PORT", cfg.Database.Port)
	cfg.Database.Name = envString("DB_NAME", cfg.Database.Name)
	cfg.Database.Username = envString("DB_USER", cfg.Database.Username)
	cfg.Database.Password = envString("DB_PASSWORD", cfg.Database.Password)

	cfg.Environment = envString("TEST_ENV", cfg.Environment)
	cfg.Timeout = envSeconds("TIMEOUT_SECONDS", cfg.Timeout)
	cfg.PerformanceThreshold = envSeconds("PERFORMANCE_THRESHOLD", cfg.PerformanceThreshold)
	cfg.DBMaxOpenConns = envInt("DB_POOL_SIZE", cfg.DBMaxOpenConns)
	cfg.DBMaxIdleConns = envInt("DB_POOL_IDLE", cfg.DBMaxIdleConns)

	cfg.LoadTestData = envBool("LOAD_TEST_DATA", cfg.LoadTestData)
	cfg.CleanupAfterTests = envBool("CLEANUP_AFTER_TESTS", cfg.CleanupAfterTests)
	cfg.PreserveTestData = envBool("PRESERVE_TEST_DATA", cfg.PreserveTestData)

	cfg.BulkOperationCount = envInt("BULK_OPERATION_COUNT", cfg.BulkOperationCount)
	cfg.ConcurrentOperations = envInt("CONCURRENT_OPERATIONS", cfg.ConcurrentOperations)
	cfg.StressTestUsers = envInt("STRESS_TEST_USERS", cfg.StressTestUsers)
	cfg.StressTestOperations = envInt("STRESS_TEST_OPERATIONS", cfg.StressTestOperations)

	cfg.GenerateReports = envBool("GENERATE_REPORTS", cfg.GenerateReports)
	cfg.ReportFormat = envString("REPORT_FORMAT", cfg.ReportFormat)
	cfg.ReportDir = envString("REPORT_OUTPUT_DIR", cfg.ReportDir)
	return cfg
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envSeconds(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return time.Duration(f * float64(time.Second))
		}
	}
	return def
}
