package command

import (
	"context"
	"os"
	"time"

	"github.com/promhippie/jenkins_api/pkg/config"
	"github.com/promhippie/jenkins_api/pkg/version"
	"github.com/urfave/cli/v3"
)

// Run parses the command line arguments and executes the program.
func Run() error {
	cfg := config.Load()

	app := &cli.Command{
		Name:    "jenkins_api",
		Version: version.String,
		Usage:   "Jenkins API client and Prometheus exporter",
		Flags:   RootFlags(cfg),

		DisableSliceFlagSeparator: true,

		Before: func(ctx context.Context, _ *cli.Command) (context.Context, error) {
			cfg.Collector.Folders = config.Folders(cfg.Collector.Folders)
			cfg.Inventory.Excludes = config.Folders(cfg.Inventory.Excludes)

			return ctx, nil
		},
		Commands: []*cli.Command{
			Server(cfg),
			Health(cfg),
			Home(cfg),
			Job(cfg),
			Build(cfg),
			View(cfg),
			Queue(cfg),
			User(cfg),
			Node(cfg),
			Inventory(cfg),
			Version(cfg),
		},
	}

	cli.HelpFlag = &cli.BoolFlag{
		Name:    "help",
		Aliases: []string{"h"},
		Usage:   "Show the help, so what you see now",
	}

	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"v"},
		Usage:   "Print the current version of that tool",
	}

	return app.Run(context.Background(), os.Args)
}

// RootFlags defines the available root flags.
func RootFlags(cfg *config.Config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log.level",
			Value:       "info",
			Usage:       "Only log messages with given severity",
			Sources:     cli.EnvVars("JENKINS_API_LOG_LEVEL"),
			Destination: &cfg.Logs.Level,
		},
		&cli.BoolFlag{
			Name:        "log.pretty",
			Value:       false,
			Usage:       "Enable pretty messages for logging",
			Sources:     cli.EnvVars("JENKINS_API_LOG_PRETTY"),
			Destination: &cfg.Logs.Pretty,
		},
		&cli.StringFlag{
			Name:        "jenkins.url",
			Value:       "",
			Usage:       "URL to access the Jenkins instance",
			Sources:     cli.EnvVars("JENKINS_API_URL"),
			Destination: &cfg.Target.Address,
		},
		&cli.StringFlag{
			Name:        "jenkins.username",
			Value:       "",
			Usage:       "Username for the Jenkins authentication",
			Sources:     cli.EnvVars("JENKINS_API_USERNAME"),
			Destination: &cfg.Target.Username,
		},
		&cli.StringFlag{
			Name:        "jenkins.password",
			Value:       "",
			Usage:       "Password or API token for the Jenkins authentication",
			Sources:     cli.EnvVars("JENKINS_API_PASSWORD"),
			Destination: &cfg.Target.Password,
		},
		&cli.DurationFlag{
			Name:        "jenkins.timeout",
			Value:       10 * time.Second,
			Usage:       "Timeout for requests to the Jenkins API",
			Sources:     cli.EnvVars("JENKINS_API_TIMEOUT"),
			Destination: &cfg.Target.Timeout,
		},
		&cli.IntFlag{
			Name:        "jenkins.depth",
			Value:       1,
			Usage:       "Depth of nested objects requested from the API",
			Sources:     cli.EnvVars("JENKINS_API_DEPTH"),
			Destination: &cfg.Target.Depth,
		},
		&cli.BoolFlag{
			Name:        "jenkins.csrf",
			Value:       true,
			Usage:       "Fetch a crumb before write requests",
			Sources:     cli.EnvVars("JENKINS_API_CSRF"),
			Destination: &cfg.Target.CSRF,
		},
		&cli.FloatFlag{
			Name:        "jenkins.rate-limit",
			Value:       0,
			Usage:       "Maximum requests per second, 0 disables the limit",
			Sources:     cli.EnvVars("JENKINS_API_RATE_LIMIT"),
			Destination: &cfg.Target.RateLimit,
		},
		&cli.IntFlag{
			Name:        "jenkins.burst",
			Value:       1,
			Usage:       "Burst size of the rate limit",
			Sources:     cli.EnvVars("JENKINS_API_BURST"),
			Destination: &cfg.Target.Burst,
		},
		&cli.StringSliceFlag{
			Name:        "jenkins.folders",
			Usage:       "Only consider jobs below these top level folders",
			Sources:     cli.EnvVars("JENKINS_API_FOLDERS"),
			Destination: &cfg.Collector.Folders,
		},
		&cli.StringFlag{
			Name:        "inventory.path",
			Value:       "jenkins_api.db",
			Usage:       "Path to the SQLite job inventory",
			Sources:     cli.EnvVars("JENKINS_API_INVENTORY_PATH"),
			Destination: &cfg.Inventory.Path,
		},
		&cli.StringSliceFlag{
			Name:        "inventory.excludes",
			Usage:       "Skip jobs below these top level folders in the inventory",
			Sources:     cli.EnvVars("JENKINS_API_INVENTORY_EXCLUDES"),
			Destination: &cfg.Inventory.Excludes,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Value:       "json",
			Usage:       "Output format of the commands, json or yaml",
			Sources:     cli.EnvVars("JENKINS_API_OUTPUT"),
			Destination: &cfg.Output.Format,
		},
	}
}
