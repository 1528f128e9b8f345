// Package validate implements the sub-command that checks feature files
// parse as well-formed Gherkin before a run is attempted.
package validate

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/satabdisikdar/bdd-database-test-suite/internal/config"
	"github.com/satabdisikdar/bdd-database-test-suite/internal/features"
	"github.com/urfave/cli/v3"
)

// Command returns the validate sub-command.
func Command() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Check that the configuration resolves and every feature file is well-formed Gherkin",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "profile",
				Sources: cli.EnvVars("TEST_PROFILE"),
				Usage:   "Configuration profile to resolve (local|ci|staging|production)",
				Value:   "local",
			},
			&cli.StringFlag{
				Name:  "features-dir",
				Usage: "Directory holding the feature files",
				Value: "features",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Profile(cmd.String("profile"))
			if err != nil {
				return err
			}
			if _, err := cfg.Database.ConnectionString(); err != nil {
				return err
			}
			log.Info("Configuration resolves",
				"profile", cfg.Environment,
				"driver", cfg.Database.Driver,
				"database", cfg.Database.Name)

			paths, err := features.Discover(cmd.String("features-dir"))
			if err != nil {
				return err
			}

			failed := 0
			for _, path := range paths {
				doc, err := features.Parse(path)
				switch {
				case err != nil:
					log.Error("Invalid feature file", "path", path, "err", err)
					failed++
				case doc.Feature == nil:
					log.Error("Feature file declares no feature", "path", path)
					failed++
				default:
					log.Info("OK", "path", path, "feature", doc.Feature.Name)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d feature files are invalid", failed, len(paths))
			}
			log.Info("All feature files are valid", "count", len(paths))
			return nil
		},
	}
}
