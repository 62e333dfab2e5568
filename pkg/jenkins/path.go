package jenkins

import (
	"net/url"
	"strconv"
	"strings"
)

// Path is a resource location relative to the Jenkins endpoint.
type Path interface {
	String() string
}

// BuildNumber selects a build either by number or by one of the permalinks
// Jenkins maintains for every job.
type BuildNumber struct {
	number int
	alias  string
}

// Permalinks maintained by Jenkins.
var (
	LastBuild             = BuildNumber{alias: "lastBuild"}
	LastSuccessfulBuild   = BuildNumber{alias: "lastSuccessfulBuild"}
	LastStableBuild       = BuildNumber{alias: "lastStableBuild"}
	LastCompletedBuild    = BuildNumber{alias: "lastCompletedBuild"}
	LastFailedBuild       = BuildNumber{alias: "lastFailedBuild"}
	LastUnstableBuild     = BuildNumber{alias: "lastUnstableBuild"}
	LastUnsuccessfulBuild = BuildNumber{alias: "lastUnsuccessfulBuild"}
)

var permalinks = map[string]BuildNumber{
	LastBuild.alias:             LastBuild,
	LastSuccessfulBuild.alias:   LastSuccessfulBuild,
	LastStableBuild.alias:       LastStableBuild,
	LastCompletedBuild.alias:    LastCompletedBuild,
	LastFailedBuild.alias:       LastFailedBuild,
	LastUnstableBuild.alias:     LastUnstableBuild,
	LastUnsuccessfulBuild.alias: LastUnsuccessfulBuild,
}

// Number selects a build by its number.
func Number(n int) BuildNumber {
	return BuildNumber{number: n}
}

// ParseBuildNumber accepts a build number or a permalink name.
func ParseBuildNumber(v string) (BuildNumber, bool) {
	if b, ok := permalinks[v]; ok {
		return b, true
	}

	n, err := strconv.Atoi(v)

	if err != nil || n < 0 {
		return BuildNumber{}, false
	}

	return Number(n), true
}

// Value returns the number and true unless the selector is a permalink.
func (b BuildNumber) Value() (int, bool) {
	return b.number, b.alias == ""
}

func (b BuildNumber) String() string {
	if b.alias != "" {
		return b.alias
	}

	return strconv.Itoa(b.number)
}

// jobPath converts "folder/sub/job" into "/job/folder/job/sub/job/job".
func jobPath(name string) string {
	var sb strings.Builder

	for _, part := range strings.Split(name, "/") {
		if part == "" {
			continue
		}

		sb.WriteString("/job/")
		sb.WriteString(url.PathEscape(part))
	}

	return sb.String()
}

func configurationPath(name, configuration string) string {
	if configuration == "" {
		return jobPath(name)
	}

	return jobPath(name) + "/" + url.PathEscape(configuration)
}

// HomePath is the root of the server.
type HomePath struct{}

func (HomePath) String() string { return "" }

// ViewPath points to a view.
type ViewPath struct {
	Name string
}

func (p ViewPath) String() string {
	return "/view/" + url.PathEscape(p.Name)
}

// AddJobToViewPath adds a job to a view.
type AddJobToViewPath struct {
	View string
	Job  string
}

func (p AddJobToViewPath) String() string {
	return ViewPath{Name: p.View}.String() + "/addJobToView?name=" + url.QueryEscape(p.Job)
}

// RemoveJobFromViewPath removes a job from a view.
type RemoveJobFromViewPath struct {
	View string
	Job  string
}

func (p RemoveJobFromViewPath) String() string {
	return ViewPath{Name: p.View}.String() + "/removeJobFromView?name=" + url.QueryEscape(p.Job)
}

// JobPath points to a job, or to a configuration of a matrix job.
type JobPath struct {
	Name          string
	Configuration string
}

func (p JobPath) String() string {
	return configurationPath(p.Name, p.Configuration)
}

// BuildJobPath triggers a job without parameters.
type BuildJobPath struct {
	Name string
}

func (p BuildJobPath) String() string {
	return jobPath(p.Name) + "/build"
}

// BuildJobWithParametersPath triggers a parameterized job.
type BuildJobWithParametersPath struct {
	Name string
}

func (p BuildJobWithParametersPath) String() string {
	return jobPath(p.Name) + "/buildWithParameters"
}

// PollSCMPath asks a job to poll its SCM.
type PollSCMPath struct {
	Name string
}

func (p PollSCMPath) String() string {
	return jobPath(p.Name) + "/polling"
}

// EnableJobPath enables a job.
type EnableJobPath struct {
	Name string
}

func (p EnableJobPath) String() string {
	return jobPath(p.Name) + "/enable"
}

// DisableJobPath disables a job.
type DisableJobPath struct {
	Name string
}

func (p DisableJobPath) String() string {
	return jobPath(p.Name) + "/disable"
}

// JobConfigPath points to the config.xml of a job.
type JobConfigPath struct {
	Name string
}

func (p JobConfigPath) String() string {
	return jobPath(p.Name) + "/config.xml"
}

// BuildPath points to a build.
type BuildPath struct {
	Job           string
	Number        BuildNumber
	Configuration string
}

func (p BuildPath) String() string {
	return configurationPath(p.Job, p.Configuration) + "/" + p.Number.String()
}

// ConsoleTextPath points to the plain text console of a build.
type ConsoleTextPath struct {
	Job           string
	Number        BuildNumber
	Configuration string
}

func (p ConsoleTextPath) String() string {
	return BuildPath{Job: p.Job, Number: p.Number, Configuration: p.Configuration}.String() + "/consoleText"
}

// MavenArtifactRecordPath points to the artifacts a maven build recorded.
type MavenArtifactRecordPath struct {
	Job    string
	Number BuildNumber
}

func (p MavenArtifactRecordPath) String() string {
	return BuildPath{Job: p.Job, Number: p.Number}.String() + "/mavenArtifacts"
}

// QueuePath points to the build queue.
type QueuePath struct{}

func (QueuePath) String() string { return "/queue" }

// QueueItemPath points to a single queue item.
type QueueItemPath struct {
	ID int64
}

func (p QueueItemPath) String() string {
	return "/queue/item/" + strconv.FormatInt(p.ID, 10)
}

// CancelQueueItemPath cancels a queue item.
type CancelQueueItemPath struct {
	ID int64
}

func (p CancelQueueItemPath) String() string {
	return "/queue/cancelItem?id=" + strconv.FormatInt(p.ID, 10)
}

// ComputersPath points to the list of nodes.
type ComputersPath struct{}

func (ComputersPath) String() string { return "/computer" }

// ComputerPath points to a node.
type ComputerPath struct {
	Name string
}

func (p ComputerPath) String() string {
	return "/computer/" + url.PathEscape(p.Name)
}

// UserPath points to a user.
type UserPath struct {
	ID string
}

func (p UserPath) String() string {
	return "/user/" + url.PathEscape(p.ID)
}

// CrumbIssuerPath points to the CSRF crumb issuer.
type CrumbIssuerPath struct{}

func (CrumbIssuerPath) String() string { return "/crumbIssuer" }

// RawPath is any path the package does not model.
type RawPath struct {
	Path string
}

func (p RawPath) String() string {
	return strings.TrimRight(p.Path, "/")
}

// ParsePath maps an absolute resource URL, as found in the `url` fields of
// API responses, back to a Path. URLs outside of the endpoint are matched on
// their path only, which covers servers behind a proxy with a different root
// URL. Shapes that are not modeled result in a RawPath.
func ParsePath(endpoint, resource string) Path {
	endpoint = strings.TrimRight(endpoint, "/")
	rel := resource

	if endpoint != "" && strings.HasPrefix(resource, endpoint) &&
		(len(resource) == len(endpoint) || resource[len(endpoint)] == '/') {
		rel = strings.TrimPrefix(resource, endpoint)
	} else if u, err := url.Parse(resource); err == nil && u.IsAbs() {
		rel = u.EscapedPath()

		if e, err := url.Parse(endpoint); err == nil {
			rel = strings.TrimPrefix(rel, strings.TrimRight(e.EscapedPath(), "/"))
		}
	}

	if i := strings.IndexAny(rel, "?#"); i >= 0 {
		rel = rel[:i]
	}

	segments := make([]string, 0)

	for _, s := range strings.Split(rel, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	raw := RawPath{Path: "/" + strings.Join(segments, "/")}

	if len(segments) == 0 {
		return HomePath{}
	}

	switch segments[0] {
	case "job":
		return parseJobPath(segments, raw)
	case "view":
		if len(segments) == 2 {
			return ViewPath{Name: unescape(segments[1])}
		}
	case "queue":
		if len(segments) == 1 {
			return QueuePath{}
		}

		if len(segments) == 3 && segments[1] == "item" {
			if id, err := strconv.ParseInt(segments[2], 10, 64); err == nil {
				return QueueItemPath{ID: id}
			}
		}
	case "computer":
		if len(segments) == 1 {
			return ComputersPath{}
		}

		if len(segments) == 2 {
			return ComputerPath{Name: unescape(segments[1])}
		}
	case "user":
		if len(segments) == 2 {
			return UserPath{ID: unescape(segments[1])}
		}
	case "crumbIssuer":
		if len(segments) == 1 {
			return CrumbIssuerPath{}
		}
	}

	return raw
}

func parseJobPath(segments []string, raw RawPath) Path {
	names := make([]string, 0)
	i := 0

	for i+1 < len(segments) && segments[i] == "job" {
		names = append(names, unescape(segments[i+1]))
		i += 2
	}

	if len(names) == 0 {
		return raw
	}

	name := strings.Join(names, "/")
	rest := segments[i:]
	configuration := ""

	// Matrix configurations look like "label=linux,jdk=21".
	if len(rest) > 0 && strings.Contains(unescape(rest[0]), "=") {
		configuration = unescape(rest[0])
		rest = rest[1:]
	}

	if len(rest) == 0 {
		return JobPath{Name: name, Configuration: configuration}
	}

	if number, ok := ParseBuildNumber(rest[0]); ok {
		switch {
		case len(rest) == 1:
			return BuildPath{Job: name, Number: number, Configuration: configuration}
		case len(rest) == 2 && rest[1] == "consoleText":
			return ConsoleTextPath{Job: name, Number: number, Configuration: configuration}
		case len(rest) == 2 && rest[1] == "mavenArtifacts" && configuration == "":
			return MavenArtifactRecordPath{Job: name, Number: number}
		}

		return raw
	}

	if len(rest) != 1 || configuration != "" {
		return raw
	}

	switch rest[0] {
	case "build":
		return BuildJobPath{Name: name}
	case "buildWithParameters":
		return BuildJobWithParametersPath{Name: name}
	case "polling":
		return PollSCMPath{Name: name}
	case "enable":
		return EnableJobPath{Name: name}
	case "disable":
		return DisableJobPath{Name: name}
	case "config.xml":
		return JobConfigPath{Name: name}
	}

	return raw
}

func unescape(v string) string {
	if result, err := url.PathUnescape(v); err == nil {
		return result
	}

	return v
}
