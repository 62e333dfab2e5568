package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/promhippie/jenkins_api/pkg/config"
	"github.com/promhippie/jenkins_api/pkg/jenkins"
)

// JobCollector collects metrics about the jobs.
type JobCollector struct {
	client            *jenkins.Client
	logger            *slog.Logger
	failures          *prometheus.CounterVec
	duration          *prometheus.HistogramVec
	config            config.Target
	folders           []string
	fetchBuildDetails bool

	Disabled              *prometheus.Desc
	Buildable             *prometheus.Desc
	Color                 *prometheus.Desc
	LastBuild             *prometheus.Desc
	LastCompletedBuild    *prometheus.Desc
	LastFailedBuild       *prometheus.Desc
	LastStableBuild       *prometheus.Desc
	LastSuccessfulBuild   *prometheus.Desc
	LastUnstableBuild     *prometheus.Desc
	LastUnsuccessfulBuild *prometheus.Desc
	NextBuild             *prometheus.Desc
	Duration              *prometheus.Desc
	StartTime             *prometheus.Desc
	EndTime               *prometheus.Desc
	BuildStatus           *prometheus.Desc
}

// NewJobCollector returns a new JobCollector.
func NewJobCollector(logger *slog.Logger, client *jenkins.Client, failures *prometheus.CounterVec, duration *prometheus.HistogramVec, cfg config.Target, collector config.Collector) *JobCollector {
	if failures != nil {
		failures.WithLabelValues("job").Add(0)
	}

	labels := []string{"name", "path", "class"}
	labelsWithParams := []string{"name", "path", "class", "check_commitID", "gitBranch"}
	return &JobCollector{
		client:            client,
		logger:            logger.With("collector", "job"),
		failures:          failures,
		duration:          duration,
		config:            cfg,
		folders:           collector.Folders,
		fetchBuildDetails: collector.FetchBuildDetails,

		Disabled: prometheus.NewDesc(
			"jenkins_job_disabled",
			"1 if the job is disabled, 0 otherwise",
			labels,
			nil,
		),
		Buildable: prometheus.NewDesc(
			"jenkins_job_buildable",
			"1 if the job is buildable, 0 otherwise",
			labels,
			nil,
		),
		Color: prometheus.NewDesc(
			"jenkins_job_color",
			"Color code of the jenkins job",
			labels,
			nil,
		),
		LastBuild: prometheus.NewDesc(
			"jenkins_job_last_build",
			"Builder number for last build",
			labels,
			nil,
		),
		LastCompletedBuild: prometheus.NewDesc(
			"jenkins_job_last_completed_build",
			"Builder number for last completed build",
			labels,
			nil,
		),
		LastFailedBuild: prometheus.NewDesc(
			"jenkins_job_last_failed_build",
			"Builder number for last failed build",
			labels,
			nil,
		),
		LastStableBuild: prometheus.NewDesc(
			"jenkins_job_last_stable_build",
			"Builder number for last stable build",
			labels,
			nil,
		),
		LastSuccessfulBuild: prometheus.NewDesc(
			"jenkins_job_last_successful_build",
			"Builder number for last successful build",
			labels,
			nil,
		),
		LastUnstableBuild: prometheus.NewDesc(
			"jenkins_job_last_unstable_build",
			"Builder number for last unstable build",
			labels,
			nil,
		),
		LastUnsuccessfulBuild: prometheus.NewDesc(
			"jenkins_job_last_unsuccessful_build",
			"Builder number for last unsuccessful build",
			labels,
			nil,
		),
		NextBuild: prometheus.NewDesc(
			"jenkins_job_next_build_number",
			"Next build number for the job",
			labels,
			nil,
		),
		Duration: prometheus.NewDesc(
			"jenkins_job_duration",
			"Duration of last build in ms",
			labels,
			nil,
		),
		StartTime: prometheus.NewDesc(
			"jenkins_job_start_time",
			"Start time of last build as unix timestamp",
			labels,
			nil,
		),
		EndTime: prometheus.NewDesc(
			"jenkins_job_end_time",
			"End time of last build as unix timestamp",
			labels,
			nil,
		),
		BuildStatus: prometheus.NewDesc(
			"jenkins_job_build_status",
			"Build status: 0=success, 1=failure, 2=aborted, 3=unstable, 4=in_progress, 5=queued, 6=not_built",
			labelsWithParams,
			nil,
		),
	}
}

// Metrics simply returns the list metric descriptors for generating a documentation.
func (c *JobCollector) Metrics() []*prometheus.Desc {
	return []*prometheus.Desc{
		c.Disabled,
		c.Buildable,
		c.Color,
		c.LastBuild,
		c.LastCompletedBuild,
		c.LastFailedBuild,
		c.LastStableBuild,
		c.LastSuccessfulBuild,
		c.LastUnstableBuild,
		c.LastUnsuccessfulBuild,
		c.NextBuild,
		c.Duration,
		c.StartTime,
		c.EndTime,
		c.BuildStatus,
	}
}

// Describe sends the super-set of all possible descriptors of metrics collected by this Collector.
func (c *JobCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, desc := range c.Metrics() {
		ch <- desc
	}
}

// Collect is called by the Prometheus registry when collecting metrics.
func (c *JobCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.config.Timeout)
	defer cancel()

	now := time.Now()
	jobs, err := c.client.Job.All(ctx, c.folders)
	c.duration.WithLabelValues("job").Observe(time.Since(now).Seconds())

	if err != nil {
		c.logger.Error("Failed to fetch jobs",
			"err", err,
		)

		c.failures.WithLabelValues("job").Inc()

		if len(jobs) == 0 {
			return
		}
	}

	c.logger.Debug("Fetched jobs",
		"count", len(jobs),
	)

	for _, job := range jobs {
		base := job.Base()

		labels := []string{
			base.Name,
			base.Path(),
			base.Class,
		}

		ch <- prometheus.MustNewConstMetric(
			c.Disabled,
			prometheus.GaugeValue,
			boolToGauge(jenkins.IsDisabled(job)),
			labels...,
		)

		ch <- prometheus.MustNewConstMetric(
			c.Buildable,
			prometheus.GaugeValue,
			boolToGauge(base.Buildable),
			labels...,
		)

		ch <- prometheus.MustNewConstMetric(
			c.Color,
			prometheus.GaugeValue,
			colorToGauge(base.Color),
			labels...,
		)

		c.collectLastBuild(ctx, ch, base, labels)

		for desc, build := range map[*prometheus.Desc]*jenkins.ShortBuild{
			c.LastCompletedBuild:    base.LastCompletedBuild,
			c.LastFailedBuild:       base.LastFailedBuild,
			c.LastStableBuild:       base.LastStableBuild,
			c.LastSuccessfulBuild:   base.LastSuccessfulBuild,
			c.LastUnstableBuild:     base.LastUnstableBuild,
			c.LastUnsuccessfulBuild: base.LastUnsuccessfulBuild,
		} {
			if build == nil {
				continue
			}

			ch <- prometheus.MustNewConstMetric(
				desc,
				prometheus.GaugeValue,
				float64(build.Number),
				labels...,
			)
		}

		ch <- prometheus.MustNewConstMetric(
			c.NextBuild,
			prometheus.GaugeValue,
			float64(base.NextBuildNumber),
			labels...,
		)
	}
}

func (c *JobCollector) collectLastBuild(ctx context.Context, ch chan<- prometheus.Metric, job *jenkins.BaseJob, labels []string) {
	if job.LastBuild == nil {
		ch <- prometheus.MustNewConstMetric(
			c.BuildStatus,
			prometheus.GaugeValue,
			statusNotBuilt,
			append(labels, "", "")...,
		)

		return
	}

	ch <- prometheus.MustNewConstMetric(
		c.LastBuild,
		prometheus.GaugeValue,
		float64(job.LastBuild.Number),
		labels...,
	)

	status := colorToStatus(job.Color)
	revision := Revision{}

	if c.fetchBuildDetails {
		buildCtx, buildCancel := context.WithTimeout(ctx, 5*time.Second)
		build, err := c.client.Build.Full(buildCtx, *job.LastBuild)
		buildCancel()

		if err != nil {
			c.logger.Debug("Failed to fetch last build, using job color for status",
				"job", job.Path(),
				"err", err,
			)

			c.failures.WithLabelValues("job").Inc()
		} else {
			details := build.Base()
			revision = RevisionOf(build)
			status = buildStatusToValue(details.Result, details.Building, details.QueueID)

			ch <- prometheus.MustNewConstMetric(
				c.Duration,
				prometheus.GaugeValue,
				float64(details.Duration),
				labels...,
			)

			ch <- prometheus.MustNewConstMetric(
				c.StartTime,
				prometheus.GaugeValue,
				float64(details.Timestamp),
				labels...,
			)

			ch <- prometheus.MustNewConstMetric(
				c.EndTime,
				prometheus.GaugeValue,
				float64(details.Timestamp+details.Duration),
				labels...,
			)
		}
	}

	ch <- prometheus.MustNewConstMetric(
		c.BuildStatus,
		prometheus.GaugeValue,
		status,
		append(labels, revision.Commit, revision.Branch)...,
	)
}

// Numeric build states of jenkins_job_build_status.
const (
	statusSuccess    = 0.0
	statusFailure    = 1.0
	statusAborted    = 2.0
	statusUnstable   = 3.0
	statusInProgress = 4.0
	statusQueued     = 5.0
	statusNotBuilt   = 6.0
)

func boolToGauge(v bool) float64 {
	if v {
		return 1.0
	}

	return 0.0
}

func colorToGauge(color jenkins.BallColor) float64 {
	switch color {
	case jenkins.ColorBlue:
		return 1.0
	case jenkins.ColorBlueAnime:
		return 1.5
	case jenkins.ColorRed:
		return 2.0
	case jenkins.ColorRedAnime:
		return 2.5
	case jenkins.ColorYellow:
		return 3.0
	case jenkins.ColorYellowAnime:
		return 3.5
	case jenkins.ColorNotBuilt:
		return 4.0
	case jenkins.ColorNotBuiltAnime:
		return 4.5
	case jenkins.ColorDisabled:
		return 5.0
	case jenkins.ColorDisabledAnime:
		return 5.5
	case jenkins.ColorAborted:
		return 6.0
	case jenkins.ColorAbortedAnime:
		return 6.5
	case jenkins.ColorGrey:
		return 7.0
	case jenkins.ColorGreyAnime:
		return 7.5
	}

	return 0.0
}

// colorToStatus infers the status of the last build from the job color.
func colorToStatus(color jenkins.BallColor) float64 {
	switch color.Static() {
	case jenkins.ColorBlue:
		return statusSuccess
	case jenkins.ColorRed:
		return statusFailure
	case jenkins.ColorAborted:
		return statusAborted
	case jenkins.ColorYellow:
		return statusUnstable
	}

	return statusNotBuilt
}

func buildStatusToValue(result jenkins.BuildStatus, building bool, queueID int64) float64 {
	if building {
		return statusInProgress
	}

	if !result.IsCompleted() && queueID > 0 {
		return statusQueued
	}

	switch result {
	case jenkins.BuildSuccess:
		return statusSuccess
	case jenkins.BuildFailure:
		return statusFailure
	case jenkins.BuildAborted:
		return statusAborted
	case jenkins.BuildUnstable:
		return statusUnstable
	}

	return statusNotBuilt
}

// Revision is the commit and branch a build was made from.
type Revision struct {
	Commit string
	Branch string
}

// RevisionOf extracts the revision from the build parameters, falling back
// to the data recorded by the git plugin.
func RevisionOf(build jenkins.Build) Revision {
	actions := build.Base().Actions
	params := actions.Parameters()

	result := Revision{
		Commit: firstParameter(params, "check_commitID", "GIT_COMMIT"),
		Branch: firstParameter(params, "gitBranch", "GIT_BRANCH"),
	}

	if data, ok := jenkins.FindAction[*jenkins.GitBuildData](actions); ok {
		if result.Commit == "" {
			result.Commit = data.LastBuiltRevision.SHA1
		}

		if result.Branch == "" && len(data.LastBuiltRevision.Branch) > 0 {
			result.Branch = data.LastBuiltRevision.Branch[0].Name
		}
	}

	return result
}

func firstParameter(params map[string]interface{}, names ...string) string {
	for _, name := range names {
		value, ok := params[name]

		if !ok || value == nil {
			continue
		}

		if str, ok := value.(string); ok {
			if str != "" {
				return str
			}

			continue
		}

		return fmt.Sprintf("%v", value)
	}

	return ""
}
