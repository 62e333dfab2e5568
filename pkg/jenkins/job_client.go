package jenkins

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"
)

// JobClient is a client for the jobs API.
type JobClient struct {
	client *Client
}

// Get returns the job with the given full name, folders separated by a
// slash.
func (c *JobClient) Get(ctx context.Context, name string) (Job, error) {
	return c.get(ctx, JobPath{Name: name})
}

// Configuration returns a single configuration of a matrix job.
func (c *JobClient) Configuration(ctx context.Context, name, configuration string) (Job, error) {
	return c.get(ctx, JobPath{Name: name, Configuration: configuration})
}

// Full resolves a short job reference.
func (c *JobClient) Full(ctx context.Context, job ShortJob) (Job, error) {
	p, ok := ParsePath(c.client.endpoint, job.URL).(JobPath)

	if !ok {
		return nil, &InvalidURLError{URL: job.URL, Expected: "job"}
	}

	return c.get(ctx, p)
}

func (c *JobClient) get(ctx context.Context, p JobPath) (Job, error) {
	var data json.RawMessage

	if err := c.client.Get(ctx, p, nil, &data); err != nil {
		return nil, err
	}

	return DecodeJob(data)
}

// Enable allows new builds of a job.
func (c *JobClient) Enable(ctx context.Context, name string) error {
	if _, err := c.client.Post(ctx, EnableJobPath{Name: name}, nil); err != nil {
		return fmt.Errorf("failed to enable job %s: %w", name, err)
	}

	return nil
}

// Disable prevents new builds of a job.
func (c *JobClient) Disable(ctx context.Context, name string) error {
	if _, err := c.client.Post(ctx, DisableJobPath{Name: name}, nil); err != nil {
		return fmt.Errorf("failed to disable job %s: %w", name, err)
	}

	return nil
}

// PollSCM asks a job to check its SCM for changes.
func (c *JobClient) PollSCM(ctx context.Context, name string) error {
	if _, err := c.client.Post(ctx, PollSCMPath{Name: name}, nil); err != nil {
		return fmt.Errorf("failed to poll scm of job %s: %w", name, err)
	}

	return nil
}

// Config returns the config.xml of a job.
func (c *JobClient) Config(ctx context.Context, name string) (string, error) {
	return c.client.GetText(ctx, JobConfigPath{Name: name})
}

// BuildOptions configures a build trigger.
type BuildOptions struct {
	Parameters map[string]string
	Token      string
	Cause      string
	Delay      time.Duration
}

// BuildOption modifies the build options.
type BuildOption func(o *BuildOptions)

// WithParameters starts the build with parameters.
func WithParameters(v map[string]string) BuildOption {
	return func(o *BuildOptions) {
		if o.Parameters == nil {
			o.Parameters = make(map[string]string, len(v))
		}

		for key, val := range v {
			o.Parameters[key] = val
		}
	}
}

// WithToken authenticates the trigger with a remote build token.
func WithToken(v string) BuildOption {
	return func(o *BuildOptions) {
		o.Token = v
	}
}

// WithCause records a note on the remote cause of the build.
func WithCause(v string) BuildOption {
	return func(o *BuildOptions) {
		o.Cause = v
	}
}

// WithDelay overrides the quiet period of the job. Jenkins takes whole
// seconds, partial seconds are rounded up.
func WithDelay(v time.Duration) BuildOption {
	return func(o *BuildOptions) {
		o.Delay = v
	}
}

// Build queues a build of a job and returns the queue item Jenkins created.
func (c *JobClient) Build(ctx context.Context, name string, opts ...BuildOption) (*ShortQueueItem, error) {
	o := BuildOptions{}

	for _, opt := range opts {
		opt(&o)
	}

	form := url.Values{}
	var p Path = BuildJobPath{Name: name}

	if len(o.Parameters) > 0 {
		p = BuildJobWithParametersPath{Name: name}

		for key, val := range o.Parameters {
			form.Set(key, val)
		}
	}

	if o.Token != "" {
		form.Set("token", o.Token)
	}

	if o.Cause != "" {
		form.Set("cause", o.Cause)
	}

	if o.Delay > 0 {
		form.Set("delay", strconv.FormatInt(int64(math.Ceil(o.Delay.Seconds())), 10)+"sec")
	}

	resp, err := c.client.Post(ctx, p, form)

	if err != nil {
		return nil, fmt.Errorf("failed to build job %s: %w", name, err)
	}

	location := resp.Header.Get("Location")

	if location == "" {
		return nil, fmt.Errorf("failed to build job %s: %w", name, ErrMissingLocation)
	}

	c.client.logger.Debug("Queued build",
		"job", name,
		"location", location,
	)

	return &ShortQueueItem{URL: location}, nil
}

// AddToView adds a job to a view.
func (c *JobClient) AddToView(ctx context.Context, name, view string) error {
	return c.client.View.AddJob(ctx, view, name)
}

// RemoveFromView removes a job from a view.
func (c *JobClient) RemoveFromView(ctx context.Context, name, view string) error {
	return c.client.View.RemoveJob(ctx, view, name)
}

// All returns all jobs below the home page, descending into folders. If
// folders is not empty, only jobs below the named top level folders are
// returned. Jobs failing to load are skipped, the first error is returned
// along with the jobs that could be loaded.
func (c *JobClient) All(ctx context.Context, folders []string) ([]Job, error) {
	home, err := c.client.Home(ctx)

	if err != nil {
		return []Job{}, err
	}

	if len(folders) == 0 {
		return c.recursiveFolders(ctx, home.Jobs)
	}

	available := make(map[string]ShortJob, len(home.Jobs))
	names := make([]string, 0, len(home.Jobs))

	for _, job := range home.Jobs {
		available[job.Name] = job
		names = append(names, job.Name)
	}

	filtered := make([]ShortJob, 0, len(folders))

	for _, name := range folders {
		if job, ok := available[name]; ok {
			filtered = append(filtered, job)
		}
	}

	if len(filtered) == 0 {
		return []Job{}, fmt.Errorf("%w: folders %v not found, available: %v", ErrNotFound, folders, names)
	}

	return c.recursiveFolders(ctx, filtered)
}

func (c *JobClient) recursiveFolders(ctx context.Context, items []ShortJob) ([]Job, error) {
	result := make([]Job, 0)
	var firstErr error

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		job, err := c.Full(ctx, item)

		if err != nil {
			c.client.logger.Warn("Failed to fetch job",
				"url", item.URL,
				"err", err,
			)

			if firstErr == nil {
				firstErr = err
			}

			continue
		}

		if !IsFolder(job) {
			result = append(result, job)
			continue
		}

		jobs, err := c.recursiveFolders(ctx, ChildrenOf(job))

		if err != nil && firstErr == nil {
			firstErr = err
		}

		result = append(result, jobs...)
	}

	return result, firstErr
}
