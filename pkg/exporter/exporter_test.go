package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/promhippie/jenkins_api/pkg/config"
	"github.com/promhippie/jenkins_api/pkg/internal/storage"
	"github.com/promhippie/jenkins_api/pkg/jenkins"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type routes map[string]string

func newTestClient(t *testing.T, responses routes) *jenkins.Client {
	t.Helper()

	var server *httptest.Server

	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := responses[r.URL.Path]

		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, strings.ReplaceAll(body, "{{url}}", server.URL))
	}))

	t.Cleanup(server.Close)

	client, err := jenkins.NewClient(
		jenkins.WithEndpoint(server.URL),
	)

	require.NoError(t, err)
	return client
}

func newTestMetrics() (*prometheus.CounterVec, *prometheus.HistogramVec) {
	failures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jenkins_request_failures_total",
			Help: "Total number of failed requests to the api per collector.",
		},
		[]string{"collector"},
	)

	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "jenkins_request_duration_seconds",
			Help: "Histogram of latencies for requests to the api per collector.",
		},
		[]string{"collector"},
	)

	return failures, duration
}

var target = config.Target{
	Timeout: 5 * time.Second,
}

var jobRoutes = routes{
	"/api/json": `{"jobs": [
		{"_class": "hudson.model.FreeStyleProject", "name": "app", "url": "{{url}}/job/app/"},
		{"_class": "hudson.model.FreeStyleProject", "name": "idle", "url": "{{url}}/job/idle/"}
	]}`,
	"/job/app/api/json": `{"_class": "hudson.model.FreeStyleProject", "name": "app", "fullName": "app",
		"color": "blue", "buildable": true, "nextBuildNumber": 8,
		"lastBuild": {"number": 7, "url": "{{url}}/job/app/7/"},
		"lastCompletedBuild": {"number": 7, "url": "{{url}}/job/app/7/"}}`,
	"/job/idle/api/json": `{"_class": "hudson.model.FreeStyleProject", "name": "idle", "fullName": "idle",
		"color": "disabled", "disabled": true, "buildable": false, "nextBuildNumber": 1}`,
	"/job/app/7/api/json": `{"_class": "hudson.model.FreeStyleBuild", "number": 7, "url": "{{url}}/job/app/7/",
		"result": "SUCCESS", "building": false, "duration": 1000, "timestamp": 1700000000000,
		"actions": [
			{"_class": "hudson.model.ParametersAction", "parameters": [
				{"_class": "hudson.model.StringParameterValue", "name": "check_commitID", "value": "abc123"},
				{"_class": "hudson.model.StringParameterValue", "name": "gitBranch", "value": "main"}
			]},
			null,
			{}
		]}`,
}

func TestJobCollector(t *testing.T) {
	client := newTestClient(t, jobRoutes)
	failures, duration := newTestMetrics()

	collector := NewJobCollector(
		slog.New(slog.DiscardHandler),
		client,
		failures,
		duration,
		target,
		config.Collector{FetchBuildDetails: true},
	)

	expected := `
# HELP jenkins_job_build_status Build status: 0=success, 1=failure, 2=aborted, 3=unstable, 4=in_progress, 5=queued, 6=not_built
# TYPE jenkins_job_build_status gauge
jenkins_job_build_status{check_commitID="abc123",class="hudson.model.FreeStyleProject",gitBranch="main",name="app",path="app"} 0
jenkins_job_build_status{check_commitID="",class="hudson.model.FreeStyleProject",gitBranch="",name="idle",path="idle"} 6
# HELP jenkins_job_disabled 1 if the job is disabled, 0 otherwise
# TYPE jenkins_job_disabled gauge
jenkins_job_disabled{class="hudson.model.FreeStyleProject",name="app",path="app"} 0
jenkins_job_disabled{class="hudson.model.FreeStyleProject",name="idle",path="idle"} 1
# HELP jenkins_job_color Color code of the jenkins job
# TYPE jenkins_job_color gauge
jenkins_job_color{class="hudson.model.FreeStyleProject",name="app",path="app"} 1
jenkins_job_color{class="hudson.model.FreeStyleProject",name="idle",path="idle"} 5
# HELP jenkins_job_duration Duration of last build in ms
# TYPE jenkins_job_duration gauge
jenkins_job_duration{class="hudson.model.FreeStyleProject",name="app",path="app"} 1000
`

	require.NoError(t, testutil.CollectAndCompare(
		collector,
		strings.NewReader(expected),
		"jenkins_job_build_status",
		"jenkins_job_disabled",
		"jenkins_job_color",
		"jenkins_job_duration",
	))

	assert.Equal(t, 0.0, testutil.ToFloat64(failures.WithLabelValues("job")))
}

func TestJobCollectorWithoutBuildDetails(t *testing.T) {
	client := newTestClient(t, jobRoutes)
	failures, duration := newTestMetrics()

	collector := NewJobCollector(
		slog.New(slog.DiscardHandler),
		client,
		failures,
		duration,
		target,
		config.Collector{},
	)

	expected := `
# HELP jenkins_job_build_status Build status: 0=success, 1=failure, 2=aborted, 3=unstable, 4=in_progress, 5=queued, 6=not_built
# TYPE jenkins_job_build_status gauge
jenkins_job_build_status{check_commitID="",class="hudson.model.FreeStyleProject",gitBranch="",name="app",path="app"} 0
jenkins_job_build_status{check_commitID="",class="hudson.model.FreeStyleProject",gitBranch="",name="idle",path="idle"} 6
`

	require.NoError(t, testutil.CollectAndCompare(
		collector,
		strings.NewReader(expected),
		"jenkins_job_build_status",
		"jenkins_job_duration",
	))
}

func TestJobCollectorFailure(t *testing.T) {
	client := newTestClient(t, routes{})
	failures, duration := newTestMetrics()

	collector := NewJobCollector(
		slog.New(slog.DiscardHandler),
		client,
		failures,
		duration,
		target,
		config.Collector{},
	)

	assert.Equal(t, 0, testutil.CollectAndCount(collector))
	assert.Equal(t, 1.0, testutil.ToFloat64(failures.WithLabelValues("job")))
}

func TestQueueCollector(t *testing.T) {
	client := newTestClient(t, routes{
		"/queue/api/json": `{"_class": "hudson.model.Queue", "items": [
			{"_class": "hudson.model.Queue$BlockedItem", "id": 12, "blocked": true, "buildable": false,
				"stuck": false, "inQueueSince": 1700000000000,
				"task": {"_class": "hudson.model.FreeStyleProject", "name": "app", "url": "{{url}}/job/team/job/app/"}},
			{"_class": "hudson.model.Queue$BuildableItem", "id": 13, "blocked": false, "buildable": true,
				"stuck": true, "inQueueSince": 1700000000000,
				"task": {"_class": "hudson.model.FreeStyleProject", "name": "svc", "url": "{{url}}/job/svc/"}}
		]}`,
	})

	failures, duration := newTestMetrics()

	collector := NewQueueCollector(
		slog.New(slog.DiscardHandler),
		client,
		failures,
		duration,
		target,
	)

	collector.now = func() time.Time {
		return time.UnixMilli(1700000000000).Add(30 * time.Second)
	}

	expected := `
# HELP jenkins_queue_length Number of items in the build queue
# TYPE jenkins_queue_length gauge
jenkins_queue_length 2
# HELP jenkins_queue_item_stuck 1 if the queue item is stuck, 0 otherwise
# TYPE jenkins_queue_item_stuck gauge
jenkins_queue_item_stuck{class="hudson.model.Queue$BlockedItem",id="12",task="team/app"} 0
jenkins_queue_item_stuck{class="hudson.model.Queue$BuildableItem",id="13",task="svc"} 1
# HELP jenkins_queue_item_waiting_seconds Seconds the queue item is waiting
# TYPE jenkins_queue_item_waiting_seconds gauge
jenkins_queue_item_waiting_seconds{class="hudson.model.Queue$BlockedItem",id="12",task="team/app"} 30
jenkins_queue_item_waiting_seconds{class="hudson.model.Queue$BuildableItem",id="13",task="svc"} 30
`

	require.NoError(t, testutil.CollectAndCompare(
		collector,
		strings.NewReader(expected),
		"jenkins_queue_length",
		"jenkins_queue_item_stuck",
		"jenkins_queue_item_waiting_seconds",
	))
}

func TestNodeCollector(t *testing.T) {
	client := newTestClient(t, routes{
		"/computer/api/json": `{"_class": "hudson.model.ComputerSet", "busyExecutors": 1, "totalExecutors": 3, "computer": [
			{"_class": "hudson.model.Hudson$MasterComputer", "displayName": "Built-In Node", "numExecutors": 2,
				"offline": false, "executors": [{"idle": false}, {"idle": true}],
				"monitorData": {"hudson.node_monitors.DiskSpaceMonitor": {"path": "/var/jenkins_home", "size": 1024}}},
			{"_class": "hudson.slaves.SlaveComputer", "displayName": "agent-1", "numExecutors": 1,
				"offline": true, "temporarilyOffline": true, "executors": [{"idle": true}],
				"monitorData": {"hudson.node_monitors.DiskSpaceMonitor": null}}
		]}`,
	})

	failures, duration := newTestMetrics()

	collector := NewNodeCollector(
		slog.New(slog.DiscardHandler),
		client,
		failures,
		duration,
		target,
	)

	expected := `
# HELP jenkins_total_executors Number of executors of all nodes
# TYPE jenkins_total_executors gauge
jenkins_total_executors 3
# HELP jenkins_node_online 1 if the node is online, 0 otherwise
# TYPE jenkins_node_online gauge
jenkins_node_online{class="hudson.model.Hudson$MasterComputer",name="Built-In Node"} 1
jenkins_node_online{class="hudson.slaves.SlaveComputer",name="agent-1"} 0
# HELP jenkins_node_busy_executors Number of executors of the node running a build
# TYPE jenkins_node_busy_executors gauge
jenkins_node_busy_executors{class="hudson.model.Hudson$MasterComputer",name="Built-In Node"} 1
jenkins_node_busy_executors{class="hudson.slaves.SlaveComputer",name="agent-1"} 0
# HELP jenkins_node_disk_available_bytes Free disk space in the workspace of the node
# TYPE jenkins_node_disk_available_bytes gauge
jenkins_node_disk_available_bytes{class="hudson.model.Hudson$MasterComputer",name="Built-In Node"} 1024
`

	require.NoError(t, testutil.CollectAndCompare(
		collector,
		strings.NewReader(expected),
		"jenkins_total_executors",
		"jenkins_node_online",
		"jenkins_node_busy_executors",
		"jenkins_node_disk_available_bytes",
	))
}

func TestBuildCollector(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	client := newTestClient(t, routes{
		"/job/team/job/app/lastCompletedBuild/api/json": `{"_class": "org.jenkinsci.plugins.workflow.job.WorkflowRun",
			"number": 9, "result": "FAILURE", "building": false,
			"actions": [{"_class": "hudson.plugins.git.util.BuildData",
				"lastBuiltRevision": {"SHA1": "def456", "branch": [{"SHA1": "def456", "name": "origin/release"}]}}]}`,
	})

	db, err := storage.NewSQLite(ctx, filepath.Join(t.TempDir(), "inventory.db"), logger)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	repo := storage.NewJobRepo(db, logger)

	_, err = repo.SyncJobs(ctx, []storage.Job{
		{Name: "team/app"},
		{Name: "idle"},
	})

	require.NoError(t, err)

	collector := NewBuildCollector(logger, client, repo)
	require.NoError(t, collector.CollectOnce(ctx))

	expected := `
# HELP jenkins_build_last_result Result of the last completed build, the status label carries the result
# TYPE jenkins_build_last_result gauge
jenkins_build_last_result{check_commitID="",gitBranch="",job_name="idle",status="not_built"} 1
jenkins_build_last_result{check_commitID="def456",gitBranch="origin/release",job_name="team/app",status="failure"} 1
`

	require.NoError(t, testutil.CollectAndCompare(
		collector,
		strings.NewReader(expected),
	))

	jobs, err := repo.ListEnabledJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, int64(0), jobs[0].LastSeenBuild)
	assert.Equal(t, int64(9), jobs[1].LastSeenBuild)

	result, err := collector.ProcessJob(ctx, jobs[1])
	require.NoError(t, err)
	assert.False(t, result.Updated)
	assert.Equal(t, StatusFailure, result.Status)

	assert.Error(t, collector.Start(ctx, 0))
}

func TestBuildStatusLabel(t *testing.T) {
	assert.Equal(t, StatusInProgress, BuildStatusLabel("", true))
	assert.Equal(t, StatusSuccess, BuildStatusLabel(jenkins.BuildSuccess, false))
	assert.Equal(t, StatusNotBuilt, BuildStatusLabel(jenkins.BuildNotBuilt, false))
	assert.Equal(t, StatusUnknown, BuildStatusLabel("CANCELLED", false))
}

func TestBuildStatusToValue(t *testing.T) {
	assert.Equal(t, statusInProgress, buildStatusToValue("", true, 0))
	assert.Equal(t, statusQueued, buildStatusToValue("", false, 3))
	assert.Equal(t, statusUnstable, buildStatusToValue(jenkins.BuildUnstable, false, 3))
	assert.Equal(t, statusNotBuilt, buildStatusToValue("", false, 0))
}
