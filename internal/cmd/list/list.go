// Package list implements the sub-command that enumerates the available
// features and scenarios.
package list

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/satabdisikdar/bdd-database-test-suite/internal/features"
	"github.com/urfave/cli/v3"
)

// Command returns the list sub-command.
func Command() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List the available features and scenarios",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "features-dir",
				Usage: "Directory holding the feature files",
				Value: "features",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			paths, err := features.Discover(cmd.String("features-dir"))
			if err != nil {
				return err
			}
			scenarios, err := features.Scenarios(paths)
			if err != nil {
				return err
			}

			var feature string
			for _, sc := range scenarios {
				if sc.Feature != feature {
					feature = sc.Feature
					fmt.Fprintf(os.Stdout, "%s\n", feature)
				}
				line := fmt.Sprintf("  %s (%s)", sc.Name, sc.Location())
				if len(sc.Tags) > 0 {
					line += " " + strings.Join(sc.Tags, " ")
				}
				fmt.Fprintln(os.Stdout, line)
			}
			fmt.Fprintf(os.Stdout, "\n%d features, %d scenarios\n", len(paths), len(scenarios))
			return nil
		},
	}
}
