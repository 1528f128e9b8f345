// Package run implements the main sub-command: it resolves the target
// configuration, selects features and scenarios, and drives the godog suite
// through `go test` with the GODOG_* environment contract.
package run

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/satabdisikdar/bdd-database-test-suite/internal/config"
	"github.com/satabdisikdar/bdd-database-test-suite/internal/features"
	"github.com/urfave/cli/v3"
)

// Command returns the run sub-command.
func Command() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the BDD test suite",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "profile",
				Sources: cli.EnvVars("TEST_PROFILE"),
				Usage:   "Configuration profile (local|ci|staging|production)",
				Value:   "local",
			},
			&cli.StringFlag{
				Name:    "driver",
				Sources: cli.EnvVars("DB_DRIVER"),
				Usage:   "Database driver override (sqlite|postgresql|mysql)",
			},
			&cli.StringSliceFlag{
				Name:  "feature",
				Usage: "Feature file name to run (repeatable, default all)",
			},
			&cli.StringFlag{
				Name:  "scenario",
				Usage: "Run only scenarios whose name contains this text",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Wall-clock budget for the whole run (overrides the profile)",
			},
			&cli.StringFlag{
				Name:  "tags",
				Usage: "Godog tag expression, e.g. @wip or ~@slow",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Godog output format (progress|pretty|junit|cucumber)",
			},
			&cli.StringFlag{
				Name:    "report-dir",
				Sources: cli.EnvVars("GODOG_REPORT_DIR"),
				Usage:   "Write junit XML reports into this directory",
			},
			&cli.StringFlag{
				Name:  "features-dir",
				Usage: "Directory holding the feature files",
				Value: "features",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "List what would run without executing anything",
			},
			&cli.BoolFlag{
				Name:  "stop-on-failure",
				Usage: "Stop at the first scenario failure",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Verbose test output",
			},
		},
		Action: runAction,
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Profile(cmd.String("profile"))
	if err != nil {
		return err
	}
	if driver := cmd.String("driver"); driver != "" {
		cfg.Database.Driver = driver
	}
	if timeout := cmd.Duration("timeout"); timeout > 0 {
		cfg.Timeout = timeout
	}

	paths, err := selectFeatures(cmd.String("features-dir"), cmd.StringSlice("feature"))
	if err != nil {
		return err
	}

	godogPaths, selected, err := selectScenarios(paths, cmd.String("scenario"))
	if err != nil {
		return err
	}

	if cmd.Bool("dry-run") {
		for _, sc := range selected {
			log.Info("Would run", "feature", sc.Feature, "scenario", sc.Name, "at", sc.Location())
		}
		log.Info("Dry run complete", "scenarios", len(selected))
		return nil
	}

	log.Info("Running test suite",
		"profile", cfg.Environment,
		"driver", cfg.Database.Driver,
		"features", len(paths),
		"scenarios", len(selected))

	return execSuite(config.WithContext(ctx, &cfg), cmd, godogPaths)
}

// execSuite launches the godog suite through `go test`, reading the resolved
// configuration back off the context.
func execSuite(ctx context.Context, cmd *cli.Command, godogPaths []string) error {
	cfg := config.FromContext(ctx)

	env := append(os.Environ(),
		"DB_DRIVER="+cfg.Database.Driver,
		"DB_HOST="+cfg.Database.Host,
		fmt.Sprintf("DB_PORT=%d", cfg.Database.Port),
		"DB_NAME="+cfg.Database.Name,
		"DB_USER="+cfg.Database.Username,
		"DB_PASSWORD="+cfg.Database.Password,
	)
	if len(godogPaths) > 0 {
		env = append(env, "GODOG_PATHS="+strings.Join(godogPaths, ","))
	}
	if format := cmd.String("format"); format != "" {
		env = append(env, "GODOG_FORMAT="+format)
	}
	if tags := cmd.String("tags"); tags != "" {
		env = append(env, "GODOG_TAGS="+tags)
	}
	if cmd.Bool("stop-on-failure") {
		env = append(env, "GODOG_STOP_ON_FAILURE=1")
	}
	if reportDir := cmd.String("report-dir"); reportDir != "" {
		abs, err := filepath.Abs(reportDir)
		if err != nil {
			return err
		}
		env = append(env, "GODOG_REPORT_DIR="+abs)
	}

	args := []string{"test", "./internal/bdd/", "-count=1", "-run", "TestFeatures",
		"-timeout", cfg.Timeout.String()}
	if cmd.Bool("verbose") {
		args = append(args, "-v")
	}

	test := exec.CommandContext(ctx, "go", args...)
	test.Env = env
	test.Stdout = os.Stdout
	test.Stderr = os.Stderr
	if err := test.Run(); err != nil {
		return fmt.Errorf("test suite failed: %w", err)
	}
	log.Info("Test suite passed")
	return nil
}

// selectFeatures narrows the discovered feature files to the requested ones.
// Requests match by path, by file name, or by name without the .feature
// suffix.
func selectFeatures(dir string, requested []string) ([]string, error) {
	paths, err := features.Discover(dir)
	if err != nil {
		return nil, err
	}
	if len(requested) == 0 {
		return paths, nil
	}

	var out []string
	for _, want := range requested {
		found := false
		for _, path := range paths {
			base := filepath.Base(path)
			if want == path || want == base || want == strings.TrimSuffix(base, ".feature") {
				out = append(out, path)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("feature %q not found in %s", want, dir)
		}
	}
	return out, nil
}

// selectScenarios resolves the scenario filter into godog path:line entries.
// Paths are absolute because the runner executes from the test package
// directory. With no filter, whole files are passed through.
func selectScenarios(paths []string, query string) ([]string, []features.Scenario, error) {
	all, err := features.Scenarios(paths)
	if err != nil {
		return nil, nil, err
	}
	if query == "" {
		abs := make([]string, len(paths))
		for i, path := range paths {
			if abs[i], err = filepath.Abs(path); err != nil {
				return nil, nil, err
			}
		}
		return abs, all, nil
	}

	matched := features.Match(all, query)
	if len(matched) == 0 {
		return nil, nil, fmt.Errorf("no scenario matches %q", query)
	}
	var godogPaths []string
	for _, sc := range matched {
		absPath, err := filepath.Abs(sc.Path)
		if err != nil {
			return nil, nil, err
		}
		godogPaths = append(godogPaths, fmt.Sprintf("%s:%d", absPath, sc.Line))
	}
	return godogPaths, matched, nil
}
