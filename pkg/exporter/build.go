package exporter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/promhippie/jenkins_api/pkg/internal/storage"
	"github.com/promhippie/jenkins_api/pkg/jenkins"
)

// Status label values of jenkins_build_last_result.
const (
	StatusSuccess    = "success"
	StatusFailure    = "failure"
	StatusAborted    = "aborted"
	StatusUnstable   = "unstable"
	StatusInProgress = "in_progress"
	StatusNotBuilt   = "not_built"
	StatusUnknown    = "unknown"
)

// BuildCollector periodically fetches the last completed build of every job
// in the inventory and exposes its result. Scrapes only read the gauge.
type BuildCollector struct {
	client *jenkins.Client
	repo   *storage.JobRepo
	logger *slog.Logger
	result *prometheus.GaugeVec
	mu     sync.RWMutex
}

// BuildResult is the outcome of processing a single job.
type BuildResult struct {
	Updated     bool
	BuildNumber int64
	Status      string
	Revision    Revision
}

// NewBuildCollector returns a new BuildCollector.
func NewBuildCollector(logger *slog.Logger, client *jenkins.Client, repo *storage.JobRepo) *BuildCollector {
	return &BuildCollector{
		client: client,
		repo:   repo,
		logger: logger.With("collector", "build"),
		result: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "jenkins_build_last_result",
				Help: "Result of the last completed build, the status label carries the result",
			},
			[]string{"job_name", "check_commitID", "gitBranch", "status"},
		),
	}
}

// Describe implements prometheus.Collector.
func (c *BuildCollector) Describe(ch chan<- *prometheus.Desc) {
	c.result.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *BuildCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	c.result.Collect(ch)
}

// Start collects once immediately and then on every tick until the context
// is canceled.
func (c *BuildCollector) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("invalid interval %s", interval)
	}

	c.logger.Info("Starting build collector",
		"interval", interval,
	)

	if err := c.CollectOnce(ctx); err != nil {
		c.logger.Warn("Initial collection failed, retrying on next tick",
			"err", err,
		)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Stopped build collector",
				"reason", ctx.Err(),
			)

			return ctx.Err()
		case <-ticker.C:
			if err := c.CollectOnce(ctx); err != nil {
				c.logger.Warn("Collection failed, retrying on next tick",
					"err", err,
				)
			}
		}
	}
}

// CollectOnce processes every enabled job of the inventory once.
func (c *BuildCollector) CollectOnce(ctx context.Context) error {
	jobs, err := c.repo.ListEnabledJobs(ctx)

	if err != nil {
		return fmt.Errorf("failed to list enabled jobs: %w", err)
	}

	c.mu.Lock()
	c.result.Reset()
	c.mu.Unlock()

	var (
		updated int
		failed  int
	)

	for _, job := range jobs {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		result, err := c.ProcessJob(ctx, job)

		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}

			c.logger.Warn("Failed to process job",
				"job", job.Name,
				"err", err,
			)

			failed++
			continue
		}

		if result.Updated {
			updated++
		}
	}

	c.logger.Info("Collected build results",
		"jobs", len(jobs),
		"updated", updated,
		"failed", failed,
	)

	return nil
}

// ProcessJob fetches the last completed build of a job, updates the gauge
// and records the build number once it changed.
func (c *BuildCollector) ProcessJob(ctx context.Context, job storage.Job) (BuildResult, error) {
	build, err := c.client.Build.Get(ctx, job.Name, jenkins.LastCompletedBuild)

	if errors.Is(err, jenkins.ErrNotFound) {
		c.set(job.Name, Revision{}, StatusNotBuilt)
		return BuildResult{Status: StatusNotBuilt}, nil
	}

	if err != nil {
		return BuildResult{}, fmt.Errorf("failed to get last completed build: %w", err)
	}

	base := build.Base()

	result := BuildResult{
		BuildNumber: int64(base.Number),
		Status:      BuildStatusLabel(base.Result, base.Building),
		Revision:    RevisionOf(build),
		Updated:     int64(base.Number) > job.LastSeenBuild,
	}

	c.set(job.Name, result.Revision, result.Status)

	if result.Updated {
		if err := c.repo.UpdateLastSeen(ctx, job.Name, result.BuildNumber); err != nil {
			return result, fmt.Errorf("failed to update last seen build: %w", err)
		}

		c.logger.Debug("Recorded new build",
			"job", job.Name,
			"build", result.BuildNumber,
			"previous", job.LastSeenBuild,
			"status", result.Status,
		)
	}

	return result, nil
}

func (c *BuildCollector) set(name string, revision Revision, status string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.result.DeletePartialMatch(prometheus.Labels{"job_name": name})
	c.result.WithLabelValues(name, revision.Commit, revision.Branch, status).Set(1.0)
}

// BuildStatusLabel converts a build result into the status label value.
func BuildStatusLabel(result jenkins.BuildStatus, building bool) string {
	if building {
		return StatusInProgress
	}

	switch result {
	case jenkins.BuildSuccess:
		return StatusSuccess
	case jenkins.BuildFailure:
		return StatusFailure
	case jenkins.BuildAborted:
		return StatusAborted
	case jenkins.BuildUnstable:
		return StatusUnstable
	case "", jenkins.BuildNotBuilt:
		return StatusNotBuilt
	}

	return StatusUnknown
}
