package action

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/promhippie/jenkins_api/pkg/config"
	"github.com/promhippie/jenkins_api/pkg/internal/inventory"
	"github.com/promhippie/jenkins_api/pkg/internal/storage"
)

// InventorySync synchronizes the job list into the inventory database,
// either once or on the configured interval until interrupted.
func InventorySync(ctx context.Context, cfg *config.Config, logger *slog.Logger, w io.Writer, once bool) error {
	client, err := newClient(cfg, logger)

	if err != nil {
		return err
	}

	db, err := openInventory(ctx, cfg, logger)

	if err != nil {
		return err
	}

	defer func() {
		_ = db.Close()
	}()

	discovery := inventory.NewDiscovery(
		client,
		storage.NewJobRepo(db, logger),
		logger,
		cfg.Collector.Folders,
		cfg.Inventory.Excludes,
	)

	if once {
		result, err := discovery.SyncOnce(ctx)

		if err != nil {
			return err
		}

		return render(w, cfg.Output.Format, result)
	}

	var gr run.Group

	{
		ctx, cancel := context.WithCancel(ctx)

		gr.Add(func() error {
			return discovery.Start(ctx, cfg.Inventory.Interval)
		}, func(_ error) {
			cancel()
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

// InventoryJobs prints the jobs stored in the inventory.
func InventoryJobs(ctx context.Context, cfg *config.Config, logger *slog.Logger, w io.Writer, all bool) error {
	db, err := openInventory(ctx, cfg, logger)

	if err != nil {
		return err
	}

	defer func() {
		_ = db.Close()
	}()

	repo := storage.NewJobRepo(db, logger)

	var jobs []storage.Job

	if all {
		jobs, err = repo.ListJobs(ctx)
	} else {
		jobs, err = repo.ListEnabledJobs(ctx)
	}

	if err != nil {
		return err
	}

	return render(w, cfg.Output.Format, jobs)
}

// InventoryChanges prints the audit entries recorded within the given
// period.
func InventoryChanges(ctx context.Context, cfg *config.Config, logger *slog.Logger, w io.Writer, since time.Duration) error {
	db, err := openInventory(ctx, cfg, logger)

	if err != nil {
		return err
	}

	defer func() {
		_ = db.Close()
	}()

	changes, err := storage.NewJobRepo(db, logger).ListChanges(ctx, time.Now().Add(-since))

	if err != nil {
		return err
	}

	return render(w, cfg.Output.Format, changes)
}

func openInventory(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	if cfg.Inventory.Path == "" {
		return nil, fmt.Errorf("inventory path is required")
	}

	return storage.NewSQLite(ctx, cfg.Inventory.Path, logger)
}
