package command

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/promhippie/jenkins_api/pkg/action"
	"github.com/promhippie/jenkins_api/pkg/config"
	"github.com/urfave/cli/v3"
)

// Server provides the sub-command to start the exporter.
func Server(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "Start the Prometheus exporter",
		Flags: ServerFlags(cfg),
		Before: func(ctx context.Context, _ *cli.Command) (context.Context, error) {
			if !cfg.Collector.Builds {
				return ctx, nil
			}

			if err := requireInterval("collector.builds.interval", cfg.Collector.Interval); err != nil {
				return ctx, err
			}

			return ctx, requireInterval("inventory.interval", cfg.Inventory.Interval)
		},
		Action: func(_ context.Context, _ *cli.Command) error {
			logger := setupLogger(cfg)

			if cfg.Target.Address == "" {
				logger.Error("Missing required jenkins.url")
				return fmt.Errorf("missing required jenkins.url")
			}

			if cfg.Collector.Builds && cfg.Inventory.Path == "" {
				logger.Error("Build collector requires inventory.path")
				return fmt.Errorf("build collector requires inventory.path")
			}

			return action.Server(cfg, logger)
		},
	}
}

// ServerFlags defines the available server flags.
func ServerFlags(cfg *config.Config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "web.address",
			Value:       "0.0.0.0:9506",
			Usage:       "Address to bind the metrics server",
			Sources:     cli.EnvVars("JENKINS_API_WEB_ADDRESS"),
			Destination: &cfg.Server.Addr,
		},
		&cli.StringFlag{
			Name:        "web.path",
			Value:       "/metrics",
			Usage:       "Path to bind the metrics server",
			Sources:     cli.EnvVars("JENKINS_API_WEB_PATH"),
			Destination: &cfg.Server.Path,
		},
		&cli.DurationFlag{
			Name:        "web.timeout",
			Value:       10 * time.Second,
			Usage:       "Server metrics endpoint timeout",
			Sources:     cli.EnvVars("JENKINS_API_WEB_TIMEOUT"),
			Destination: &cfg.Server.Timeout,
		},
		&cli.StringFlag{
			Name:        "web.config",
			Value:       "",
			Usage:       "Path to web-config file",
			Sources:     cli.EnvVars("JENKINS_API_WEB_CONFIG"),
			Destination: &cfg.Server.Web,
		},
		&cli.BoolFlag{
			Name:        "web.debug",
			Value:       false,
			Usage:       "Enable pprof debugging for server",
			Sources:     cli.EnvVars("JENKINS_API_WEB_PPROF"),
			Destination: &cfg.Server.Pprof,
		},
		&cli.BoolFlag{
			Name:        "collector.jobs",
			Value:       true,
			Usage:       "Enable collector for jobs",
			Sources:     cli.EnvVars("JENKINS_API_COLLECTOR_JOBS"),
			Destination: &cfg.Collector.Jobs,
		},
		&cli.BoolFlag{
			Name:        "collector.jobs.fetch-build-details",
			Value:       true,
			Usage:       "Fetch the last build of every job for duration and parameters",
			Sources:     cli.EnvVars("JENKINS_API_COLLECTOR_FETCH_BUILD_DETAILS"),
			Destination: &cfg.Collector.FetchBuildDetails,
		},
		&cli.BoolFlag{
			Name:        "collector.queue",
			Value:       false,
			Usage:       "Enable collector for the build queue",
			Sources:     cli.EnvVars("JENKINS_API_COLLECTOR_QUEUE"),
			Destination: &cfg.Collector.Queue,
		},
		&cli.BoolFlag{
			Name:        "collector.nodes",
			Value:       false,
			Usage:       "Enable collector for nodes",
			Sources:     cli.EnvVars("JENKINS_API_COLLECTOR_NODES"),
			Destination: &cfg.Collector.Nodes,
		},
		&cli.BoolFlag{
			Name:        "collector.builds",
			Value:       false,
			Usage:       "Enable background collector for build results based on the inventory",
			Sources:     cli.EnvVars("JENKINS_API_COLLECTOR_BUILDS"),
			Destination: &cfg.Collector.Builds,
		},
		&cli.DurationFlag{
			Name:        "collector.builds.interval",
			Value:       15 * time.Second,
			Usage:       "Interval between build result collections",
			Sources:     cli.EnvVars("JENKINS_API_COLLECTOR_BUILDS_INTERVAL"),
			Destination: &cfg.Collector.Interval,
		},
		&cli.DurationFlag{
			Name:        "inventory.interval",
			Value:       5 * time.Minute,
			Usage:       "Interval between inventory synchronizations",
			Sources:     cli.EnvVars("JENKINS_API_INVENTORY_INTERVAL"),
			Destination: &cfg.Inventory.Interval,
		},
	}
}

// Health provides the sub-command to perform a health check.
func Health(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Perform health checks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "web.address",
				Value:       "0.0.0.0:9506",
				Usage:       "Address to bind the metrics server",
				Sources:     cli.EnvVars("JENKINS_API_WEB_ADDRESS"),
				Destination: &cfg.Server.Addr,
			},
		},
		Action: func(ctx context.Context, _ *cli.Command) error {
			logger := setupLogger(cfg)

			req, err := http.NewRequestWithContext(
				ctx,
				http.MethodGet,
				fmt.Sprintf("http://%s/healthz", cfg.Server.Addr),
				nil,
			)

			if err != nil {
				return err
			}

			resp, err := http.DefaultClient.Do(req)

			if err != nil {
				logger.Error("Failed to request health check",
					"err", err,
				)

				return err
			}

			defer func() {
				_ = resp.Body.Close()
			}()

			if resp.StatusCode != http.StatusOK {
				logger.Error("Health seems to be in bad state",
					"err", err,
					"code", resp.StatusCode,
				)

				return fmt.Errorf("unexpected status code %d", resp.StatusCode)
			}

			logger.Debug("Health got a good state",
				"code", resp.StatusCode,
			)

			return nil
		},
	}
}
