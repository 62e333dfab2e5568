package action

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/promhippie/jenkins_api/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig(t *testing.T, handler func(url string) http.HandlerFunc) *config.Config {
	t.Helper()

	var server *httptest.Server

	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler(server.URL)(w, r)
	}))

	t.Cleanup(server.Close)

	cfg := config.Load()
	cfg.Server.Path = "/metrics"
	cfg.Target.Address = server.URL
	cfg.Target.Username = "admin"
	cfg.Target.Password = "base64://c2VjcmV0"
	cfg.Target.Timeout = 5 * time.Second
	cfg.Target.Depth = 1
	cfg.Output.Format = FormatJSON
	cfg.Inventory.Path = filepath.Join(t.TempDir(), "inventory.db")

	return cfg
}

func jenkinsHandler(url string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Jenkins", "2.479.1")

		switch r.URL.Path {
		case "/api/json":
			_, _ = fmt.Fprintf(w, `{"_class": "hudson.model.Hudson", "mode": "NORMAL", "jobs": [
				{"_class": "hudson.model.FreeStyleProject", "name": "app", "url": "%[1]s/job/app/"}
			]}`, url)
		case "/job/app/api/json":
			username, password, _ := r.BasicAuth()

			if username != "admin" || password != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			_, _ = fmt.Fprint(w, `{"_class": "hudson.model.FreeStyleProject", "name": "app", "fullName": "app",
				"color": "blue", "actions": [{}, null, {"_class": "org.example.CustomAction", "custom": true}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestRender(t *testing.T) {
	value := map[string]interface{}{
		"name":  "app",
		"color": "blue",
	}

	var out bytes.Buffer

	require.NoError(t, render(&out, FormatJSON, value))
	assert.JSONEq(t, `{"name": "app", "color": "blue"}`, out.String())

	out.Reset()

	require.NoError(t, render(&out, FormatYAML, value))
	assert.Equal(t, "color: blue\nname: app\n", out.String())

	assert.Error(t, render(&out, "xml", value))
}

func TestJobGet(t *testing.T) {
	cfg := newTestConfig(t, jenkinsHandler)

	var out bytes.Buffer

	require.NoError(t, JobGet(context.Background(), cfg, slog.New(slog.DiscardHandler), &out, "app"))
	assert.Contains(t, out.String(), `"fullName": "app"`)
	assert.Contains(t, out.String(), `"custom": true`)

	out.Reset()
	cfg.Output.Format = FormatYAML

	require.NoError(t, JobGet(context.Background(), cfg, slog.New(slog.DiscardHandler), &out, "app"))
	assert.Contains(t, out.String(), "fullName: app")
}

func TestJobGetMissing(t *testing.T) {
	cfg := newTestConfig(t, jenkinsHandler)

	var out bytes.Buffer
	err := JobGet(context.Background(), cfg, slog.New(slog.DiscardHandler), &out, "missing")

	assert.Error(t, err)
	assert.Empty(t, out.String())
}

func TestServerVersion(t *testing.T) {
	cfg := newTestConfig(t, jenkinsHandler)

	var out bytes.Buffer

	require.NoError(t, ServerVersion(context.Background(), cfg, slog.New(slog.DiscardHandler), &out))
	assert.JSONEq(t, `{"version": "2.479.1", "compatible": true}`, out.String())
}

func TestInventory(t *testing.T) {
	cfg := newTestConfig(t, jenkinsHandler)
	logger := slog.New(slog.DiscardHandler)
	ctx := context.Background()

	var out bytes.Buffer

	require.NoError(t, InventorySync(ctx, cfg, logger, &out, true))
	assert.JSONEq(t, `{"added": 1, "deleted": 0, "restored": 0, "updated": 0}`, out.String())

	out.Reset()

	require.NoError(t, InventoryJobs(ctx, cfg, logger, &out, false))
	assert.Contains(t, out.String(), `"name": "app"`)

	out.Reset()

	require.NoError(t, InventoryChanges(ctx, cfg, logger, &out, time.Hour))
	assert.Contains(t, out.String(), `"action": "ADD"`)
}

func TestInventoryRequiresPath(t *testing.T) {
	cfg := newTestConfig(t, jenkinsHandler)
	cfg.Inventory.Path = ""

	var out bytes.Buffer
	assert.Error(t, InventoryJobs(context.Background(), cfg, slog.New(slog.DiscardHandler), &out, true))
}

func TestHandler(t *testing.T) {
	cfg := newTestConfig(t, jenkinsHandler)
	cfg.Collector.Jobs = true
	logger := slog.New(slog.DiscardHandler)

	client, err := newClient(cfg, logger)
	require.NoError(t, err)

	mux := handler(cfg, logger, client, newRegistry())

	t.Run("healthz", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OK", rec.Body.String())
	})

	t.Run("metrics", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "jenkins_build_info")
		assert.Contains(t, rec.Body.String(), `jenkins_job_color{class="hudson.model.FreeStyleProject",name="app",path="app"} 1`)
	})

	t.Run("redirect", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/unknown", nil))

		assert.Equal(t, http.StatusMovedPermanently, rec.Code)
		assert.Equal(t, "/metrics", rec.Header().Get("Location"))
	})
}
