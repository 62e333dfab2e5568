package command

import (
	"context"
	"os"
	"time"

	"github.com/promhippie/jenkins_api/pkg/action"
	"github.com/promhippie/jenkins_api/pkg/config"
	"github.com/urfave/cli/v3"
)

// Inventory provides the sub-commands to maintain the job inventory.
func Inventory(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "inventory",
		Usage: "Maintain the SQLite job inventory",
		Commands: []*cli.Command{
			{
				Name:  "sync",
				Usage: "Synchronize the job list into the inventory",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "once",
						Value: false,
						Usage: "Synchronize once and exit",
					},
					&cli.DurationFlag{
						Name:        "inventory.interval",
						Value:       5 * time.Minute,
						Usage:       "Interval between inventory synchronizations",
						Sources:     cli.EnvVars("JENKINS_API_INVENTORY_INTERVAL"),
						Destination: &cfg.Inventory.Interval,
					},
				},
				Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
					if cmd.Bool("once") {
						return ctx, nil
					}

					return ctx, requireInterval("inventory.interval", cfg.Inventory.Interval)
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return action.InventorySync(ctx, cfg, setupLogger(cfg), os.Stdout, cmd.Bool("once"))
				},
			},
			{
				Name:  "jobs",
				Usage: "List the jobs of the inventory",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "all",
						Value: false,
						Usage: "Include deleted jobs",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return action.InventoryJobs(ctx, cfg, setupLogger(cfg), os.Stdout, cmd.Bool("all"))
				},
			},
			{
				Name:  "changes",
				Usage: "List the recorded job changes",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "since",
						Value: 24 * time.Hour,
						Usage: "Only show changes within this period",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return action.InventoryChanges(ctx, cfg, setupLogger(cfg), os.Stdout, cmd.Duration("since"))
				},
			},
		},
	}
}
