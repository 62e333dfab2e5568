package action

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/exporter-toolkit/web"
	"github.com/promhippie/jenkins_api/pkg/config"
	"github.com/promhippie/jenkins_api/pkg/exporter"
	"github.com/promhippie/jenkins_api/pkg/internal/inventory"
	"github.com/promhippie/jenkins_api/pkg/internal/storage"
	"github.com/promhippie/jenkins_api/pkg/jenkins"
	"github.com/promhippie/jenkins_api/pkg/middleware"
	"github.com/promhippie/jenkins_api/pkg/version"
)

// Server handles the server sub-command.
func Server(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Launching Jenkins API exporter",
		"version", version.String,
		"revision", version.Revision,
		"date", version.Date,
		"go", version.Go,
	)

	client, err := newClient(cfg, logger)

	if err != nil {
		logger.Error("Failed to create client",
			"address", cfg.Target.Address,
			"err", err,
		)

		return err
	}

	var gr run.Group

	registry := newRegistry()

	if cfg.Collector.Builds {
		db, err := storage.NewSQLite(context.Background(), cfg.Inventory.Path, logger)

		if err != nil {
			logger.Error("Failed to open inventory",
				"path", cfg.Inventory.Path,
				"err", err,
			)

			return err
		}

		defer func() {
			_ = db.Close()
		}()

		repo := storage.NewJobRepo(db, logger)

		discovery := inventory.NewDiscovery(
			client,
			repo,
			logger,
			cfg.Collector.Folders,
			cfg.Inventory.Excludes,
		)

		builds := exporter.NewBuildCollector(logger, client, repo)
		registry.MustRegister(builds)

		{
			ctx, cancel := context.WithCancel(context.Background())

			gr.Add(func() error {
				return discovery.Start(ctx, cfg.Inventory.Interval)
			}, func(_ error) {
				cancel()
			})
		}

		{
			ctx, cancel := context.WithCancel(context.Background())

			gr.Add(func() error {
				return builds.Start(ctx, cfg.Collector.Interval)
			}, func(_ error) {
				cancel()
			})
		}

		logger.Debug("Build collector registered",
			"inventory", cfg.Inventory.Path,
		)
	}

	{
		server := &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      handler(cfg, logger, client, registry),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: cfg.Server.Timeout,
		}

		gr.Add(func() error {
			logger.Info("Starting metrics server",
				"addr", cfg.Server.Addr,
			)

			return web.ListenAndServe(
				server,
				&web.FlagConfig{
					WebListenAddresses: sliceP([]string{cfg.Server.Addr}),
					WebSystemdSocket:   boolP(false),
					WebConfigFile:      stringP(cfg.Server.Web),
				},
				logger,
			)
		}, func(reason error) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := server.Shutdown(ctx); err != nil {
				logger.Error("Failed to shutdown metrics gracefully",
					"err", err,
				)

				return
			}

			logger.Info("Metrics shutdown gracefully",
				"reason", reason,
			)
		})
	}

	{
		stop := make(chan os.Signal, 1)

		gr.Add(func() error {
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

			<-stop

			return nil
		}, func(_ error) {
			signal.Stop(stop)
			close(stop)
		})
	}

	return gr.Run()
}

func handler(cfg *config.Config, logger *slog.Logger, client *jenkins.Client, registry *prometheus.Registry) *chi.Mux {
	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer(logger))
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Timeout)
	mux.Use(middleware.Cache)

	if cfg.Server.Pprof {
		mux.Mount("/debug", middleware.Profiler())
	}

	if cfg.Collector.Jobs {
		logger.Debug("Job collector registered",
			"fetch_build_details", cfg.Collector.FetchBuildDetails,
			"folders", cfg.Collector.Folders,
		)

		registry.MustRegister(exporter.NewJobCollector(
			logger,
			client,
			requestFailures,
			requestDuration,
			cfg.Target,
			cfg.Collector,
		))
	}

	if cfg.Collector.Queue {
		logger.Debug("Queue collector registered")

		registry.MustRegister(exporter.NewQueueCollector(
			logger,
			client,
			requestFailures,
			requestDuration,
			cfg.Target,
		))
	}

	if cfg.Collector.Nodes {
		logger.Debug("Node collector registered")

		registry.MustRegister(exporter.NewNodeCollector(
			logger,
			client,
			requestFailures,
			requestDuration,
			cfg.Target,
		))
	}

	reg := promhttp.HandlerFor(
		registry,
		promhttp.HandlerOpts{
			ErrorLog: promLogger{logger},
		},
	)

	mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, cfg.Server.Path, http.StatusMovedPermanently)
	})

	mux.Route("/", func(root chi.Router) {
		root.Get(cfg.Server.Path, func(w http.ResponseWriter, r *http.Request) {
			reg.ServeHTTP(w, r)
		})

		root.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusOK)

			_, _ = io.WriteString(w, http.StatusText(http.StatusOK))
		})

		root.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusOK)

			_, _ = io.WriteString(w, http.StatusText(http.StatusOK))
		})
	})

	return mux
}
