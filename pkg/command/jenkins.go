package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/promhippie/jenkins_api/pkg/action"
	"github.com/promhippie/jenkins_api/pkg/config"
	"github.com/urfave/cli/v3"
)

// Home provides the sub-command to show the root page.
func Home(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "home",
		Usage: "Show the root page of the server",
		Action: func(ctx context.Context, _ *cli.Command) error {
			return action.Home(ctx, cfg, setupLogger(cfg), os.Stdout)
		},
	}
}

// Job provides the sub-commands to work with jobs.
func Job(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "job",
		Usage: "Work with jobs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List all jobs, descending into folders",
				Action: func(ctx context.Context, _ *cli.Command) error {
					return action.JobList(ctx, cfg, setupLogger(cfg), os.Stdout)
				},
			},
			{
				Name:      "get",
				Usage:     "Show a job",
				ArgsUsage: "<job>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					name, err := requireArg(cmd, 0, "job")

					if err != nil {
						return err
					}

					return action.JobGet(ctx, cfg, setupLogger(cfg), os.Stdout, name)
				},
			},
			{
				Name:      "build",
				Usage:     "Trigger a build of a job",
				ArgsUsage: "<job>",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "param",
						Aliases: []string{"p"},
						Usage:   "Build parameter as key=value",
					},
					&cli.StringFlag{
						Name:  "token",
						Usage: "Remote trigger token of the job",
					},
					&cli.StringFlag{
						Name:  "cause",
						Usage: "Cause shown for the build",
					},
					&cli.DurationFlag{
						Name:  "delay",
						Usage: "Quiet period before the build starts",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					name, err := requireArg(cmd, 0, "job")

					if err != nil {
						return err
					}

					params, err := parseParams(cmd.StringSlice("param"))

					if err != nil {
						return err
					}

					return action.JobBuild(
						ctx,
						cfg,
						setupLogger(cfg),
						os.Stdout,
						name,
						params,
						cmd.String("token"),
						cmd.String("cause"),
						cmd.Duration("delay"),
					)
				},
			},
			{
				Name:      "enable",
				Usage:     "Enable a job",
				ArgsUsage: "<job>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					name, err := requireArg(cmd, 0, "job")

					if err != nil {
						return err
					}

					return action.JobEnable(ctx, cfg, setupLogger(cfg), name)
				},
			},
			{
				Name:      "disable",
				Usage:     "Disable a job",
				ArgsUsage: "<job>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					name, err := requireArg(cmd, 0, "job")

					if err != nil {
						return err
					}

					return action.JobDisable(ctx, cfg, setupLogger(cfg), name)
				},
			},
			{
				Name:      "poll",
				Usage:     "Poll the SCM of a job",
				ArgsUsage: "<job>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					name, err := requireArg(cmd, 0, "job")

					if err != nil {
						return err
					}

					return action.JobPollSCM(ctx, cfg, setupLogger(cfg), name)
				},
			},
			{
				Name:      "config",
				Usage:     "Print the config.xml of a job",
				ArgsUsage: "<job>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					name, err := requireArg(cmd, 0, "job")

					if err != nil {
						return err
					}

					return action.JobConfig(ctx, cfg, setupLogger(cfg), os.Stdout, name)
				},
			},
		},
	}
}

// Build provides the sub-commands to work with builds.
func Build(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "Work with builds",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Show a build, the number defaults to lastBuild",
				ArgsUsage: "<job> [number|permalink]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					name, err := requireArg(cmd, 0, "job")

					if err != nil {
						return err
					}

					return action.BuildGet(ctx, cfg, setupLogger(cfg), os.Stdout, name, cmd.Args().Get(1))
				},
			},
			{
				Name:      "console",
				Usage:     "Print the console output of a build",
				ArgsUsage: "<job> [number|permalink]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					name, err := requireArg(cmd, 0, "job")

					if err != nil {
						return err
					}

					return action.BuildConsole(ctx, cfg, setupLogger(cfg), os.Stdout, name, cmd.Args().Get(1))
				},
			},
		},
	}
}

// View provides the sub-commands to work with views.
func View(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "view",
		Usage: "Work with views",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Show a view",
				ArgsUsage: "<view>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					name, err := requireArg(cmd, 0, "view")

					if err != nil {
						return err
					}

					return action.ViewGet(ctx, cfg, setupLogger(cfg), os.Stdout, name)
				},
			},
			{
				Name:      "add",
				Usage:     "Add a job to a view",
				ArgsUsage: "<view> <job>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					view, job, err := requireArgs(cmd, "view", "job")

					if err != nil {
						return err
					}

					return action.ViewAdd(ctx, cfg, setupLogger(cfg), view, job)
				},
			},
			{
				Name:      "remove",
				Usage:     "Remove a job from a view",
				ArgsUsage: "<view> <job>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					view, job, err := requireArgs(cmd, "view", "job")

					if err != nil {
						return err
					}

					return action.ViewRemove(ctx, cfg, setupLogger(cfg), view, job)
				},
			},
		},
	}
}

// Queue provides the sub-commands to work with the build queue.
func Queue(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "queue",
		Usage: "Work with the build queue",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List the queued items",
				Action: func(ctx context.Context, _ *cli.Command) error {
					return action.QueueList(ctx, cfg, setupLogger(cfg), os.Stdout)
				},
			},
			{
				Name:      "cancel",
				Usage:     "Cancel a queued item",
				ArgsUsage: "<id>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := requireArg(cmd, 0, "id")

					if err != nil {
						return err
					}

					return action.QueueCancel(ctx, cfg, setupLogger(cfg), id)
				},
			},
		},
	}
}

// User provides the sub-commands to work with users.
func User(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Work with users",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Show a user",
				ArgsUsage: "<id>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := requireArg(cmd, 0, "id")

					if err != nil {
						return err
					}

					return action.UserGet(ctx, cfg, setupLogger(cfg), os.Stdout, id)
				},
			},
		},
	}
}

// Node provides the sub-commands to work with nodes.
func Node(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "node",
		Usage: "Work with nodes",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List all nodes with their executors",
				Action: func(ctx context.Context, _ *cli.Command) error {
					return action.NodeList(ctx, cfg, setupLogger(cfg), os.Stdout)
				},
			},
		},
	}
}

// Version provides the sub-command to show the server version.
func Version(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "server-version",
		Usage: "Show the version of the server and whether it is supported",
		Action: func(ctx context.Context, _ *cli.Command) error {
			return action.ServerVersion(ctx, cfg, setupLogger(cfg), os.Stdout)
		},
	}
}

func requireArg(cmd *cli.Command, n int, name string) (string, error) {
	value := cmd.Args().Get(n)

	if value == "" {
		return "", fmt.Errorf("missing required argument <%s>", name)
	}

	return value, nil
}

func requireArgs(cmd *cli.Command, first, second string) (string, string, error) {
	a, err := requireArg(cmd, 0, first)

	if err != nil {
		return "", "", err
	}

	b, err := requireArg(cmd, 1, second)

	if err != nil {
		return "", "", err
	}

	return a, b, nil
}

func parseParams(values []string) (map[string]string, error) {
	result := make(map[string]string, len(values))

	for _, value := range values {
		key, val, ok := strings.Cut(value, "=")

		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", value)
		}

		result[key] = val
	}

	return result, nil
}
