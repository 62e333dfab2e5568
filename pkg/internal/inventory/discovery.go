package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/promhippie/jenkins_api/pkg/internal/storage"
	"github.com/promhippie/jenkins_api/pkg/jenkins"
)

// Discovery periodically syncs the job list from Jenkins into the inventory.
type Discovery struct {
	client   *jenkins.Client
	repo     *storage.JobRepo
	logger   *slog.Logger
	folders  []string
	excludes map[string]bool
}

// NewDiscovery returns a Discovery limited to the given top level folders,
// skipping jobs below any of the excluded top level folders.
func NewDiscovery(client *jenkins.Client, repo *storage.JobRepo, logger *slog.Logger, folders, excludes []string) *Discovery {
	excluded := make(map[string]bool, len(excludes))

	for _, name := range excludes {
		excluded[name] = true
	}

	return &Discovery{
		client:   client,
		repo:     repo,
		logger:   logger.With("component", "discovery"),
		folders:  folders,
		excludes: excluded,
	}
}

// Start syncs once immediately and then on every tick until the context is
// canceled. Failed runs are retried on the next tick.
func (d *Discovery) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("invalid interval %s", interval)
	}

	d.logger.Info("Starting job discovery",
		"interval", interval,
		"folders", d.folders,
	)

	if _, err := d.SyncOnce(ctx); err != nil {
		d.logger.Warn("Initial sync failed, retrying on next tick",
			"err", err,
		)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Stopped job discovery",
				"reason", ctx.Err(),
			)

			return ctx.Err()
		case <-ticker.C:
			if _, err := d.SyncOnce(ctx); err != nil {
				d.logger.Warn("Sync failed, retrying on next tick",
					"err", err,
				)
			}
		}
	}
}

// SyncOnce performs a single synchronization. A partial job list would mark
// the missing jobs as deleted, so the inventory is only touched when every
// job could be loaded.
func (d *Discovery) SyncOnce(ctx context.Context) (storage.SyncResult, error) {
	jobs, err := d.client.Job.All(ctx, d.folders)

	if err != nil {
		d.logger.Warn("Failed to load jobs, keeping inventory",
			"loaded", len(jobs),
			"err", err,
		)

		return storage.SyncResult{}, fmt.Errorf("failed to fetch jobs: %w", err)
	}

	records := make([]storage.Job, 0, len(jobs))
	excluded := 0

	for _, job := range jobs {
		base := job.Base()
		name := base.Path()

		if name == "" {
			continue
		}

		if d.excludes[strings.SplitN(name, "/", 2)[0]] {
			excluded++
			continue
		}

		records = append(records, storage.Job{
			Name:  name,
			Class: base.Class,
			Color: string(base.Color),
		})
	}

	d.logger.Debug("Fetched jobs",
		"count", len(jobs),
		"excluded", excluded,
	)

	if len(records) == 0 {
		d.logger.Warn("Discovered no jobs, keeping inventory",
			"folders", d.folders,
		)

		return storage.SyncResult{}, nil
	}

	result, err := d.repo.SyncJobs(ctx, records)

	if err != nil {
		return result, fmt.Errorf("failed to sync jobs: %w", err)
	}

	return result, nil
}
