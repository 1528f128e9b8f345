package bdd

import (
	"os"
	"strconv"
	"testing"

	"github.com/satabdisikdar/bdd-database-test-suite/internal/config"
	"github.com/satabdisikdar/bdd-database-test-suite/internal/testutil/testpg"
)

// TestFeaturesPostgres runs the same feature files against a disposable
// Postgres container. Gated behind TEST_POSTGRES because it needs a working
// container runtime.
func TestFeaturesPostgres(t *testing.T) {
	if ok, _ := strconv.ParseBool(os.Getenv("TEST_POSTGRES")); !ok {
		t.Skip("set TEST_POSTGRES=1 to run the Postgres feature suite")
	}

	host, port, dbName := testpg.StartPostgres(t)

	cfg := config.DefaultConfig()
	cfg.Database.Driver = config.DriverPostgreSQL
	cfg.Database.Host = host
	cfg.Database.Port = port
	cfg.Database.Name = dbName
	cfg.Database.Username = "test_user"
	cfg.Database.Password = "test_password"

	runFeatures(t, cfg)
}
