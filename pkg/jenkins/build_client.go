package jenkins

import (
	"context"
	"encoding/json"
	"net/http"
)

// BuildClient is a client for the builds API.
type BuildClient struct {
	client *Client
}

// Get returns a build of a job. Number accepts permalinks like
// LastCompletedBuild.
func (c *BuildClient) Get(ctx context.Context, job string, number BuildNumber) (Build, error) {
	return c.get(ctx, BuildPath{Job: job, Number: number})
}

// Configuration returns the build of a single matrix configuration.
func (c *BuildClient) Configuration(ctx context.Context, job, configuration string, number BuildNumber) (Build, error) {
	return c.get(ctx, BuildPath{Job: job, Number: number, Configuration: configuration})
}

// Full resolves a short build reference.
func (c *BuildClient) Full(ctx context.Context, build ShortBuild) (Build, error) {
	p, err := c.path(build.URL)

	if err != nil {
		return nil, err
	}

	return c.get(ctx, p)
}

func (c *BuildClient) get(ctx context.Context, p BuildPath) (Build, error) {
	var data json.RawMessage

	if err := c.client.Get(ctx, p, nil, &data); err != nil {
		return nil, err
	}

	return DecodeBuild(data)
}

func (c *BuildClient) path(resource string) (BuildPath, error) {
	p, ok := ParsePath(c.client.endpoint, resource).(BuildPath)

	if !ok {
		return BuildPath{}, &InvalidURLError{URL: resource, Expected: "build"}
	}

	return p, nil
}

// Job returns the job a build belongs to.
func (c *BuildClient) Job(ctx context.Context, build Build) (Job, error) {
	p, err := c.path(build.Base().URL)

	if err != nil {
		return nil, err
	}

	return c.client.Job.get(ctx, JobPath{Name: p.Job, Configuration: p.Configuration})
}

// Console returns the plain text log of a build.
func (c *BuildClient) Console(ctx context.Context, job string, number BuildNumber) (string, error) {
	return c.client.GetText(ctx, ConsoleTextPath{Job: job, Number: number})
}

// ConsoleOf returns the plain text log of an already fetched build.
func (c *BuildClient) ConsoleOf(ctx context.Context, build Build) (string, error) {
	p, err := c.path(build.Base().URL)

	if err != nil {
		return "", err
	}

	return c.client.GetText(ctx, ConsoleTextPath(p))
}

// MavenArtifacts returns the artifacts recorded by a maven module build.
func (c *BuildClient) MavenArtifacts(ctx context.Context, job string, number BuildNumber) (*MavenArtifactRecord, error) {
	result := &MavenArtifactRecord{}

	if err := c.client.Get(ctx, MavenArtifactRecordPath{Job: job, Number: number}, nil, result); err != nil {
		return nil, err
	}

	return result, nil
}

// Artifact downloads an archived file of a build.
func (c *BuildClient) Artifact(ctx context.Context, build Build, artifact Artifact) ([]byte, error) {
	req, err := c.client.NewRequest(ctx, http.MethodGet, artifact.URL(build), nil)

	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "*/*")

	var result []byte

	if _, err := c.client.Do(req, &result); err != nil {
		return nil, err
	}

	return result, nil
}
