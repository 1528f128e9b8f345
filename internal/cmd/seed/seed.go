// Package seed implements the sub-command that prepares a database with the
// fixture schema and baseline data outside of a test run.
package seed

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/satabdisikdar/bdd-database-test-suite/internal/config"
	"github.com/satabdisikdar/bdd-database-test-suite/internal/db"
	"github.com/satabdisikdar/bdd-database-test-suite/internal/model"
	"github.com/urfave/cli/v3"
)

// Command returns the seed sub-command.
func Command() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Create the fixture schema and load baseline test data",
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
			&cli.BoolFlag{
				Name:  "reset",
				Usage: "Wipe existing fixture rows before seeding",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Profile(cmd.String("profile"))
			if err != nil {
				return err
			}
			if driver := cmd.String("driver"); driver != "" {
				cfg.Database.Driver = driver
			}

			manager := db.NewManager(cfg)
			defer manager.Close()

			if err := model.Initialize(manager); err != nil {
				return err
			}
			if cmd.Bool("reset") {
				if err := model.Reset(manager); err != nil {
					return err
				}
			} else if err := model.Seed(manager); err != nil {
				return err
			}
			log.Info("Database seeded",
				"driver", cfg.Database.Driver,
				"users", manager.TableCount("users"),
				"products", manager.TableCount("products"),
				"orders", manager.TableCount("orders"))
			return nil
		},
	}
}
