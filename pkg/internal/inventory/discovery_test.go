package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/promhippie/jenkins_api/pkg/internal/storage"
	"github.com/promhippie/jenkins_api/pkg/jenkins"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDiscovery(t *testing.T, handler func(url string) http.HandlerFunc, folders, excludes []string) (*Discovery, *storage.JobRepo) {
	t.Helper()

	var server *httptest.Server

	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler(server.URL)(w, r)
	}))

	t.Cleanup(server.Close)

	logger := slog.New(slog.DiscardHandler)

	client, err := jenkins.NewClient(
		jenkins.WithEndpoint(server.URL),
		jenkins.WithLogger(logger),
	)

	require.NoError(t, err)

	db, err := storage.NewSQLite(context.Background(), filepath.Join(t.TempDir(), "inventory.db"), logger)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	repo := storage.NewJobRepo(db, logger)
	return NewDiscovery(client, repo, logger, folders, excludes), repo
}

func jenkinsHandler(url string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/api/json":
			_, _ = fmt.Fprintf(w, `{"jobs": [
				{"_class": "com.cloudbees.hudson.plugins.folder.Folder", "name": "team", "url": "%[1]s/job/team/"},
				{"_class": "com.cloudbees.hudson.plugins.folder.Folder", "name": "sandbox", "url": "%[1]s/job/sandbox/"},
				{"_class": "hudson.model.FreeStyleProject", "name": "app", "url": "%[1]s/job/app/"}
			]}`, url)
		case "/job/team/api/json":
			_, _ = fmt.Fprintf(w, `{"_class": "com.cloudbees.hudson.plugins.folder.Folder", "name": "team", "fullName": "team", "jobs": [
				{"name": "svc", "url": "%[1]s/job/team/job/svc/"}
			]}`, url)
		case "/job/sandbox/api/json":
			_, _ = fmt.Fprintf(w, `{"_class": "com.cloudbees.hudson.plugins.folder.Folder", "name": "sandbox", "fullName": "sandbox", "jobs": [
				{"name": "tmp", "url": "%[1]s/job/sandbox/job/tmp/"}
			]}`, url)
		case "/job/team/job/svc/api/json":
			_, _ = fmt.Fprint(w, `{"_class": "org.jenkinsci.plugins.workflow.job.WorkflowJob", "name": "svc", "fullName": "team/svc", "color": "blue"}`)
		case "/job/sandbox/job/tmp/api/json":
			_, _ = fmt.Fprint(w, `{"_class": "hudson.model.FreeStyleProject", "name": "tmp", "fullName": "sandbox/tmp", "color": "red"}`)
		case "/job/app/api/json":
			_, _ = fmt.Fprint(w, `{"_class": "hudson.model.FreeStyleProject", "name": "app", "fullName": "app", "color": "disabled"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestSyncOnce(t *testing.T) {
	discovery, repo := newTestDiscovery(t, jenkinsHandler, nil, []string{"sandbox"})
	ctx := context.Background()

	result, err := discovery.SyncOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, storage.SyncResult{Added: 2}, result)

	jobs, err := repo.ListEnabledJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, "app", jobs[0].Name)
	assert.Equal(t, "disabled", jobs[0].Color)
	assert.Equal(t, "team/svc", jobs[1].Name)
	assert.Equal(t, jenkins.WorkflowJobClass, jobs[1].Class)
}

func TestSyncOnceFolders(t *testing.T) {
	discovery, repo := newTestDiscovery(t, jenkinsHandler, []string{"team"}, nil)
	ctx := context.Background()

	_, err := discovery.SyncOnce(ctx)
	require.NoError(t, err)

	jobs, err := repo.ListEnabledJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "team/svc", jobs[0].Name)
}

func TestSyncOnceKeepsInventoryOnFailure(t *testing.T) {
	var failing atomic.Bool

	discovery, repo := newTestDiscovery(t, func(url string) http.HandlerFunc {
		ok := jenkinsHandler(url)

		return func(w http.ResponseWriter, r *http.Request) {
			if failing.Load() {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}

			ok(w, r)
		}
	}, nil, nil)

	ctx := context.Background()

	_, err := discovery.SyncOnce(ctx)
	require.NoError(t, err)

	failing.Store(true)

	_, err = discovery.SyncOnce(ctx)
	assert.Error(t, err)

	jobs, err := repo.ListEnabledJobs(ctx)
	require.NoError(t, err)
	assert.Len(t, jobs, 3)
}

func TestSyncOnceKeepsInventoryOnPartialFailure(t *testing.T) {
	var failing atomic.Bool

	discovery, repo := newTestDiscovery(t, func(url string) http.HandlerFunc {
		ok := jenkinsHandler(url)

		return func(w http.ResponseWriter, r *http.Request) {
			if failing.Load() && r.URL.Path == "/job/team/api/json" {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}

			ok(w, r)
		}
	}, nil, nil)

	ctx := context.Background()
	since := time.Now().Add(-time.Minute)

	_, err := discovery.SyncOnce(ctx)
	require.NoError(t, err)

	failing.Store(true)

	result, err := discovery.SyncOnce(ctx)
	assert.Equal(t, storage.SyncResult{}, result)

	apiErr := &jenkins.APIError{}
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)

	jobs, err := repo.ListEnabledJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, "team/svc", jobs[2].Name)

	changes, err := repo.ListChanges(ctx, since)
	require.NoError(t, err)

	for _, change := range changes {
		assert.Equal(t, storage.ActionAdd, change.Action, change.Name)
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	discovery, repo := newTestDiscovery(t, jenkinsHandler, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- discovery.Start(ctx, time.Hour)
	}()

	require.Eventually(t, func() bool {
		jobs, err := repo.ListEnabledJobs(context.Background())
		return err == nil && len(jobs) == 3
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestStartRejectsInvalidInterval(t *testing.T) {
	discovery, repo := newTestDiscovery(t, jenkinsHandler, nil, nil)

	assert.Error(t, discovery.Start(context.Background(), 0))

	jobs, err := repo.ListEnabledJobs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, jobs)
}
