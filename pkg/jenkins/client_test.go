package jenkins

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(
		append([]Option{
			WithEndpoint(server.URL + "/"),
			WithUsername("admin"),
			WithPassword("secret"),
		}, opts...)...,
	)

	require.NoError(t, err)
	return client, server
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprint(w, body)
}

func TestNewClientRequiresEndpoint(t *testing.T) {
	_, err := NewClient()
	assert.ErrorIs(t, err, ErrMissingEndpoint)
}

func TestJobGet(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/job/team/job/app/api/json", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("depth"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		username, password, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin", username)
		assert.Equal(t, "secret", password)

		writeJSON(w, `{"_class": "hudson.model.FreeStyleProject", "name": "app", "fullName": "team/app", "color": "red",
			"lastCompletedBuild": {"_class": "hudson.model.FreeStyleBuild", "number": 4, "url": "http://jenkins/job/team/job/app/4/"}}`)
	})

	job, err := client.Job.Get(context.Background(), "team/app")
	require.NoError(t, err)

	project, ok := job.(*FreeStyleProject)
	require.True(t, ok)
	assert.Equal(t, "team/app", project.Path())
	assert.Equal(t, ColorRed, project.Color)
	assert.Equal(t, 4, project.LastCompletedBuild.Number)
}

func TestGetWithTree(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "jobs[name]", r.URL.Query().Get("tree"))
		assert.Empty(t, r.URL.Query().Get("depth"))
		writeJSON(w, `{"jobs": [{"name": "app"}]}`)
	})

	home := &Home{}
	require.NoError(t, client.Get(context.Background(), HomePath{}, Tree(NewTree().WithSubfield(Object("jobs").WithField("name"))), home))
	assert.Equal(t, "app", home.Jobs[0].Name)
}

func TestAPIErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		ctype    string
		body     string
		sentinel error
		message  string
	}{
		{"not found", http.StatusNotFound, "text/html;charset=utf-8", "<html>missing</html>", ErrNotFound, ""},
		{"unauthorized", http.StatusUnauthorized, "text/plain", "bad credentials\n", ErrUnauthorized, "bad credentials"},
		{"forbidden", http.StatusForbidden, "text/plain", "no permission", ErrForbidden, "no permission"},
		{"server error", http.StatusInternalServerError, "text/plain", "boom", nil, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.ctype)
				w.WriteHeader(tt.status)
				_, _ = fmt.Fprint(w, tt.body)
			})

			_, err := client.Job.Get(context.Background(), "app")
			require.Error(t, err)

			apiErr := &APIError{}
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, http.MethodGet, apiErr.Method)
			assert.Equal(t, tt.message, apiErr.Message)

			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
		})
	}
}

func TestJobBuildWithParameters(t *testing.T) {
	crumbs := 0

	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/crumbIssuer/api/json":
			crumbs++
			writeJSON(w, `{"_class": "hudson.security.csrf.DefaultCrumbIssuer", "crumb": "c0ffee", "crumbRequestField": "Jenkins-Crumb"}`)
		case "/job/app/buildWithParameters":
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "c0ffee", r.Header.Get("Jenkins-Crumb"))
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "main", r.PostForm.Get("BRANCH"))
			assert.Equal(t, "secret-token", r.PostForm.Get("token"))
			assert.Equal(t, "30sec", r.PostForm.Get("delay"))

			w.Header().Set("Location", "http://"+r.Host+"/queue/item/42/")
			w.WriteHeader(http.StatusCreated)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	item, err := client.Job.Build(
		context.Background(),
		"app",
		WithParameters(map[string]string{"BRANCH": "main"}),
		WithToken("secret-token"),
		WithDelay(30*time.Second),
	)

	require.NoError(t, err)
	assert.Equal(t, 1, crumbs)
	assert.Equal(t, server.URL+"/queue/item/42/", item.URL)

	id, ok := item.ID()
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
}

func TestShortQueueItemID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		id   int64
		ok   bool
	}{
		{"absolute", "http://jenkins:8080/queue/item/42/", 42, true},
		{"relative", "/queue/item/1/", 1, true},
		{"path prefix", "https://ci.example.com/jenkins/queue/item/5/", 5, true},
		{"without trailing slash", "http://jenkins/ci/queue/item/7", 7, true},
		{"queue", "http://jenkins/queue/", 0, false},
		{"build", "http://jenkins/job/queue/job/item/5/", 0, false},
		{"not a number", "http://jenkins/queue/item/abc/", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ShortQueueItem{URL: tt.url}.ID()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.id, id)
		})
	}
}

func TestJobBuildWithoutCSRF(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/job/app/build", r.URL.Path)
		w.Header().Set("Location", "/queue/item/1/")
		w.WriteHeader(http.StatusCreated)
	}, WithoutCSRF())

	item, err := client.Job.Build(context.Background(), "app")
	require.NoError(t, err)

	id, ok := item.ID()
	assert.True(t, ok)
	assert.Equal(t, int64(1), id)
}

func TestJobBuildMissingLocation(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/crumbIssuer/api/json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		assert.Empty(t, r.Header.Get("Jenkins-Crumb"))
		w.WriteHeader(http.StatusOK)
	})

	_, err := client.Job.Build(context.Background(), "app")
	assert.ErrorIs(t, err, ErrMissingLocation)
}

func TestJobToggles(t *testing.T) {
	paths := make([]string, 0)

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		paths = append(paths, r.URL.RequestURI())
	}, WithoutCSRF())

	ctx := context.Background()
	require.NoError(t, client.Job.Enable(ctx, "team/app"))
	require.NoError(t, client.Job.Disable(ctx, "team/app"))
	require.NoError(t, client.Job.PollSCM(ctx, "team/app"))
	require.NoError(t, client.Job.AddToView(ctx, "team/app", "ops"))
	require.NoError(t, client.Job.RemoveFromView(ctx, "team/app", "ops"))
	require.NoError(t, client.Queue.Cancel(ctx, 9))

	assert.Equal(t, []string{
		"/job/team/job/app/enable",
		"/job/team/job/app/disable",
		"/job/team/job/app/polling",
		"/view/ops/addJobToView?name=team%2Fapp",
		"/view/ops/removeJobFromView?name=team%2Fapp",
		"/queue/cancelItem?id=9",
	}, paths)
}

func TestPostKeepsCrumbSession(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/crumbIssuer/api/json":
			http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "node01", Path: "/"})
			writeJSON(w, `{"crumb": "c0ffee", "crumbRequestField": "Jenkins-Crumb"}`)
		case "/job/app/enable":
			session, err := r.Cookie("JSESSIONID")

			if err != nil || session.Value != "node01" || r.Header.Get("Jenkins-Crumb") != "c0ffee" {
				w.WriteHeader(http.StatusForbidden)
				return
			}

			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	require.NoError(t, client.Job.Enable(context.Background(), "app"))
}

func TestJobBuildDelayRoundsUp(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "1sec", r.PostForm.Get("delay"))

		w.Header().Set("Location", "/queue/item/3/")
		w.WriteHeader(http.StatusCreated)
	}, WithoutCSRF())

	_, err := client.Job.Build(context.Background(), "app", WithDelay(500*time.Millisecond))
	require.NoError(t, err)
}

func TestJobConfigAndConsole(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/job/app/config.xml":
			_, _ = fmt.Fprint(w, "<project/>")
		case "/job/app/7/consoleText":
			_, _ = fmt.Fprint(w, "Started\nFinished: SUCCESS\n")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ctx := context.Background()

	config, err := client.Job.Config(ctx, "app")
	require.NoError(t, err)
	assert.Equal(t, "<project/>", config)

	console, err := client.Build.Console(ctx, "app", Number(7))
	require.NoError(t, err)
	assert.Contains(t, console, "Finished: SUCCESS")
}

func TestBuildFullAndJob(t *testing.T) {
	var server *httptest.Server

	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/job/app/lastBuild/api/json":
			writeJSON(w, fmt.Sprintf(`{"_class": "hudson.model.FreeStyleBuild", "number": 12, "url": "%s/job/app/12/",
				"previousBuild": {"number": 11, "url": "%s/job/app/11/"}}`, server.URL, server.URL))
		case "/job/app/11/api/json":
			writeJSON(w, fmt.Sprintf(`{"_class": "hudson.model.FreeStyleBuild", "number": 11, "url": "%s/job/app/11/"}`, server.URL))
		case "/job/app/api/json":
			writeJSON(w, `{"_class": "hudson.model.FreeStyleProject", "name": "app"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ctx := context.Background()

	build, err := client.Build.Get(ctx, "app", LastBuild)
	require.NoError(t, err)
	assert.Equal(t, 12, build.Base().Number)

	previous, err := client.Build.Full(ctx, *build.Base().PreviousBuild)
	require.NoError(t, err)
	assert.Equal(t, 11, previous.Base().Number)

	job, err := client.Build.Job(ctx, previous)
	require.NoError(t, err)
	assert.Equal(t, "app", job.Base().Name)

	_, err = client.Build.Full(ctx, ShortBuild{URL: server.URL + "/job/app/"})

	invalid := &InvalidURLError{}
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "build", invalid.Expected)
}

func TestQueue(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/queue/api/json":
			writeJSON(w, `{"items": [{"_class": "hudson.model.Queue$BlockedItem", "id": 5, "blocked": true,
				"why": "Build #4 is already in progress", "url": "queue/item/5/", "task": {"name": "app", "url": "http://jenkins/job/app/"}}]}`)
		case "/queue/item/5/api/json":
			writeJSON(w, `{"_class": "hudson.model.Queue$LeftItem", "id": 5, "cancelled": false,
				"executable": {"number": 5, "url": "http://jenkins/job/app/5/"}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ctx := context.Background()

	queue, err := client.Queue.Get(ctx)
	require.NoError(t, err)
	require.Len(t, queue.Items, 1)
	assert.True(t, queue.Items[0].Blocked)
	assert.Equal(t, "app", queue.Items[0].Task.Name)

	item, err := client.Queue.Full(ctx, ShortQueueItem{URL: server.URL + "/queue/item/5/"})
	require.NoError(t, err)
	assert.True(t, item.Left())
	assert.Equal(t, 5, item.Executable.Number)
}

func TestViewAndUser(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/view/ops/api/json":
			writeJSON(w, fmt.Sprintf(`{"name": "ops", "url": "http://%s/view/ops/", "jobs": [{"name": "app"}]}`, r.Host))
		case "/user/dev/api/json":
			writeJSON(w, `{"id": "dev", "fullName": "Developer",
				"property": [{"_class": "hudson.tasks.Mailer$UserProperty", "address": "dev@example.com"}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ctx := context.Background()

	view, err := client.View.Full(ctx, ShortView{Name: "ops", URL: server.URL + "/view/ops/"})
	require.NoError(t, err)
	assert.Equal(t, "app", view.Jobs[0].Name)

	_, err = client.View.Full(ctx, ShortView{Name: "all", URL: server.URL + "/"})

	invalid := &InvalidURLError{}
	assert.True(t, errors.As(err, &invalid))

	user, err := client.User.Full(ctx, ShortUser{AbsoluteURL: server.URL + "/user/dev"})
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", user.Email())
}

func TestBuildMavenArtifacts(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/job/lib/job/core/12/mavenArtifacts/api/json", r.URL.Path)

		writeJSON(w, `{"_class": "hudson.maven.reporters.MavenArtifactRecord",
			"mainArtifact": {"artifactId": "core", "groupId": "org.example", "version": "1.2.0", "fileName": "core-1.2.0.jar"},
			"attachedArtifacts": []}`)
	})

	record, err := client.Build.MavenArtifacts(context.Background(), "lib/core", Number(12))
	require.NoError(t, err)
	assert.Equal(t, "core-1.2.0.jar", record.MainArtifact.FileName)
	assert.Equal(t, "1.2.0", record.MainArtifact.Version)
	assert.Empty(t, record.AttachedArtifacts)
}

func TestViewJobsByURL(t *testing.T) {
	posts := make([]string, 0)

	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			posts = append(posts, r.URL.RequestURI())
			return
		}

		switch r.URL.EscapedPath() {
		case "/view/Team%20A/api/json":
			writeJSON(w, fmt.Sprintf(`{"_class": "hudson.model.ListView", "name": "Team A", "url": "http://%s/view/Team%%20A/", "jobs": []}`, r.Host))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}, WithoutCSRF())

	ctx := context.Background()

	view, err := client.View.Get(ctx, "Team A")
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/view/Team%20A/", view.URL)

	require.NoError(t, client.View.AddJobTo(ctx, view, "team/app"))
	require.NoError(t, client.View.RemoveJobFrom(ctx, view, "team/app"))

	assert.Equal(t, []string{
		"/view/Team%20A/addJobToView?name=team%2Fapp",
		"/view/Team%20A/removeJobFromView?name=team%2Fapp",
	}, posts)

	err = client.View.AddJobTo(ctx, &View{Name: "app", URL: server.URL + "/job/app/"}, "other")

	invalid := &InvalidURLError{}
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "view", invalid.Expected)
	assert.Len(t, posts, 2)
}

func TestNodes(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.EscapedPath() {
		case "/computer/api/json":
			writeJSON(w, `{"busyExecutors": 0, "totalExecutors": 2, "computer": [{"_class": "hudson.model.Hudson$MasterComputer", "displayName": "Built-In Node"}]}`)
		case "/computer/%28built-in%29/api/json":
			writeJSON(w, `{"_class": "hudson.model.Hudson$MasterComputer", "displayName": "Built-In Node", "numExecutors": 2}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ctx := context.Background()

	set, err := client.Node.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, set.TotalExecutors)
	assert.Len(t, set.Computers, 1)

	node, err := client.Node.Get(ctx, MasterNodeName)
	require.NoError(t, err)
	assert.Equal(t, 2, node.Base().NumExecutors)
}

func TestVersion(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "mode", r.URL.Query().Get("tree"))
		w.Header().Set(VersionHeader, "2.426.3")
		writeJSON(w, `{"mode": "NORMAL"}`)
	})

	version, err := client.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2.426.3", version.String())

	assert.True(t, IsCompatible("2.426.3"))
	assert.True(t, IsCompatible("2.0"))
	assert.False(t, IsCompatible("1.651"))
	assert.False(t, IsCompatible("unknown"))
}

func TestJobAll(t *testing.T) {
	var server *httptest.Server

	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/json":
			writeJSON(w, fmt.Sprintf(`{"jobs": [
				{"_class": "com.cloudbees.hudson.plugins.folder.Folder", "name": "team", "url": "%[1]s/job/team/"},
				{"_class": "hudson.model.FreeStyleProject", "name": "app", "url": "%[1]s/job/app/"},
				{"_class": "hudson.model.FreeStyleProject", "name": "broken", "url": "%[1]s/job/broken/"}
			]}`, server.URL))
		case "/job/team/api/json":
			writeJSON(w, fmt.Sprintf(`{"_class": "com.cloudbees.hudson.plugins.folder.Folder", "name": "team", "jobs": [
				{"name": "svc", "url": "%[1]s/job/team/job/svc/"},
				{"name": "nested", "url": "%[1]s/job/team/job/nested/"}
			]}`, server.URL))
		case "/job/team/job/nested/api/json":
			writeJSON(w, fmt.Sprintf(`{"_class": "com.cloudbees.hudson.plugins.folder.Folder", "name": "nested", "jobs": [
				{"name": "deep", "url": "%[1]s/job/team/job/nested/job/deep/"}
			]}`, server.URL))
		case "/job/team/job/svc/api/json":
			writeJSON(w, `{"_class": "org.jenkinsci.plugins.workflow.job.WorkflowJob", "name": "svc", "fullName": "team/svc"}`)
		case "/job/team/job/nested/job/deep/api/json":
			writeJSON(w, `{"_class": "hudson.model.FreeStyleProject", "name": "deep", "fullName": "team/nested/deep"}`)
		case "/job/app/api/json":
			writeJSON(w, `{"_class": "hudson.model.FreeStyleProject", "name": "app", "fullName": "app"}`)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	ctx := context.Background()

	jobs, err := client.Job.All(ctx, nil)
	assert.Error(t, err, "the broken job is reported")

	names := make([]string, 0, len(jobs))

	for _, job := range jobs {
		names = append(names, job.Base().Path())
	}

	assert.Equal(t, []string{"team/svc", "team/nested/deep", "app"}, names)

	jobs, err = client.Job.All(ctx, []string{"team"})
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	_, err = client.Job.All(ctx, []string{"missing"})
	assert.ErrorIs(t, err, ErrNotFound)
}
