package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/satabdisikdar/bdd-database-test-suite/internal/cmd/list"
	"github.com/satabdisikdar/bdd-database-test-suite/internal/cmd/run"
	"github.com/satabdisikdar/bdd-database-test-suite/internal/cmd/seed"
	"github.com/satabdisikdar/bdd-database-test-suite/internal/cmd/validate"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "dbtest",
		Usage: "BDD test automation suite for database operations",
		Commands: []*cli.Command{
			run.Command(),
			seed.Command(),
			list.Command(),
			validate.Command(),
		},
	}
	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
