package bdd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/satabdisikdar/bdd-database-test-suite/internal/config"
	"github.com/satabdisikdar/bdd-database-test-suite/internal/db"
	"github.com/satabdisikdar/bdd-database-test-suite/internal/model"
	"github.com/satabdisikdar/bdd-database-test-suite/internal/testutil/cucumber"
	"github.com/stretchr/testify/require"
)

// TestFeatures runs every feature file against the database the environment
// selects, defaulting to an on-disk SQLite database. The orchestrator picks
// the backend by exporting DB_DRIVER and friends, and narrows the run to
// specific scenarios by setting GODOG_PATHS to a comma-separated list of
// path[:line] entries.
func TestFeatures(t *testing.T) {
	runFeatures(t, featureConfig(t))
}

// featureConfig resolves the runner's target from the environment. With no
// DB_DRIVER exported, the run falls back to a throwaway SQLite file so a
// plain `go test` needs no database.
func featureConfig(t *testing.T) config.Config {
	cfg := config.FromEnv()
	if os.Getenv("DB_DRIVER") == "" {
		cfg.Database.Driver = config.DriverSQLite
		cfg.Database.Name = filepath.Join(t.TempDir(), "features")
	}
	return cfg
}

func TestFeatureConfigHonorsEnvDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgresql")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6432")
	t.Setenv("DB_NAME", "suite")

	cfg := featureConfig(t)
	require.Equal(t, config.DriverPostgreSQL, cfg.Database.Driver)
	require.Equal(t, "db.internal", cfg.Database.Host)
	require.Equal(t, 6432, cfg.Database.Port)
	require.Equal(t, "suite", cfg.Database.Name)
}

func TestFeatureConfigDefaultsToTempSQLite(t *testing.T) {
	t.Setenv("DB_DRIVER", "")

	cfg := featureConfig(t)
	require.Equal(t, config.DriverSQLite, cfg.Database.Driver)
	require.True(t, filepath.IsAbs(cfg.Database.Name), "sqlite fallback must live in a temp dir, got %q", cfg.Database.Name)
}

func runFeatures(t *testing.T, cfg config.Config) {
	manager := db.NewManager(cfg)
	t.Cleanup(func() { _ = model.Cleanup(manager) })
	require.NoError(t, model.Initialize(manager))

	opts := cucumber.DefaultOptions()
	for _, arg := range os.Args[1:] {
		if arg == "-test.v=true" || arg == "-test.v" || arg == "-v" {
			opts.Format = "pretty"
		}
	}

	if paths := os.Getenv("GODOG_PATHS"); paths != "" {
		o := opts
		o.TestingT = t
		o.Paths = strings.Split(paths, ",")
		defer cucumber.ApplyReportOptions(&o, t.Name())()

		suite := cucumber.NewTestSuite(&cfg, manager)
		suite.TestingT = t

		status := godog.TestSuite{
			Name:                t.Name(),
			Options:             &o,
			ScenarioInitializer: suite.InitializeScenario,
		}.Run()
		if status != 0 {
			t.Fail()
		}
		return
	}

	featuresDir := filepath.Join("..", "..", "features")
	featureFiles, err := filepath.Glob(filepath.Join(featuresDir, "*.feature"))
	require.NoError(t, err)
	require.NotEmpty(t, featureFiles, "no feature files found in %s", featuresDir)

	for _, featurePath := range featureFiles {
		name := strings.TrimSuffix(filepath.Base(featurePath), ".feature")
		t.Run(name, func(t *testing.T) {
			o := opts
			o.TestingT = t
			o.Paths = []string{featurePath}
			defer cucumber.ApplyReportOptions(&o, t.Name())()

			suite := cucumber.NewTestSuite(&cfg, manager)
			suite.TestingT = t

			status := godog.TestSuite{
				Name:                name,
				Options:             &o,
				ScenarioInitializer: suite.InitializeScenario,
			}.Run()
			if status != 0 {
				t.Fail()
			}
		})
	}
}
