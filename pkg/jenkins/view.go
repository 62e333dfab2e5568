package jenkins

import (
	"context"
	"fmt"
)

// Mode is the usage mode of the built-in node.
type Mode string

// Modes of the built-in node.
const (
	ModeNormal    Mode = "NORMAL"
	ModeExclusive Mode = "EXCLUSIVE"
)

// Home is the root page of the server.
type Home struct {
	Class           string      `json:"_class"`
	Mode            Mode        `json:"mode"`
	NodeDescription string      `json:"nodeDescription"`
	NodeName        string      `json:"nodeName"`
	NumExecutors    int         `json:"numExecutors"`
	Description     string      `json:"description"`
	QuietingDown    bool        `json:"quietingDown"`
	SlaveAgentPort  int         `json:"slaveAgentPort"`
	UseCrumbs       bool        `json:"useCrumbs"`
	UseSecurity     bool        `json:"useSecurity"`
	Jobs            []ShortJob  `json:"jobs"`
	Views           []ShortView `json:"views"`
	PrimaryView     *ShortView  `json:"primaryView"`
}

// Home returns the root page of the server.
func (c *Client) Home(ctx context.Context) (*Home, error) {
	result := &Home{}

	if err := c.Get(ctx, HomePath{}, nil, result); err != nil {
		return nil, err
	}

	return result, nil
}

// ShortView is the reference to a view.
type ShortView struct {
	Class string `json:"_class,omitempty"`
	Name  string `json:"name"`
	URL   string `json:"url"`
}

// View is a list of jobs.
type View struct {
	Class       string     `json:"_class"`
	Name        string     `json:"name"`
	URL         string     `json:"url"`
	Description string     `json:"description"`
	Jobs        []ShortJob `json:"jobs"`
	Property    Properties `json:"property"`
}

// ViewClient is a client for the views API.
type ViewClient struct {
	client *Client
}

// Get returns the view with the given name.
func (c *ViewClient) Get(ctx context.Context, name string) (*View, error) {
	result := &View{}

	if err := c.client.Get(ctx, ViewPath{Name: name}, nil, result); err != nil {
		return nil, err
	}

	return result, nil
}

// Full resolves a short view reference. The primary view is served at the
// root of the server and can't be resolved this way.
func (c *ViewClient) Full(ctx context.Context, view ShortView) (*View, error) {
	name, err := c.name(view.URL)

	if err != nil {
		return nil, err
	}

	return c.Get(ctx, name)
}

func (c *ViewClient) name(resource string) (string, error) {
	p, ok := ParsePath(c.client.endpoint, resource).(ViewPath)

	if !ok {
		return "", &InvalidURLError{URL: resource, Expected: "view"}
	}

	return p.Name, nil
}

// AddJob adds a job to the view with the given name.
func (c *ViewClient) AddJob(ctx context.Context, view, job string) error {
	if _, err := c.client.Post(ctx, AddJobToViewPath{View: view, Job: job}, nil); err != nil {
		return fmt.Errorf("failed to add job %s to view %s: %w", job, view, err)
	}

	return nil
}

// RemoveJob removes a job from the view with the given name.
func (c *ViewClient) RemoveJob(ctx context.Context, view, job string) error {
	if _, err := c.client.Post(ctx, RemoveJobFromViewPath{View: view, Job: job}, nil); err != nil {
		return fmt.Errorf("failed to remove job %s from view %s: %w", job, view, err)
	}

	return nil
}

// AddJobTo adds a job to a fetched view.
func (c *ViewClient) AddJobTo(ctx context.Context, view *View, job string) error {
	name, err := c.name(view.URL)

	if err != nil {
		return err
	}

	return c.AddJob(ctx, name, job)
}

// RemoveJobFrom removes a job from a fetched view.
func (c *ViewClient) RemoveJobFrom(ctx context.Context, view *View, job string) error {
	name, err := c.name(view.URL)

	if err != nil {
		return err
	}

	return c.RemoveJob(ctx, name, job)
}
