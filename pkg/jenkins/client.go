// Package jenkins provides types and clients for interacting with Jenkins API.
package jenkins

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const (
	// DefaultDepth is the depth requested when no explicit query is given.
	DefaultDepth = 1

	// VersionHeader carries the server version on every response.
	VersionHeader = "X-Jenkins"
)

// Options defines the available options for this package.
type Options struct {
	Endpoint   string
	Username   string
	Password   string
	Timeout    time.Duration
	Depth      int
	CSRF       bool
	HTTPClient *http.Client
	Logger     *slog.Logger
	Limit      rate.Limit
	Burst      int
}

// Option defines a single option function.
type Option func(o *Options)

func newOptions(opts ...Option) Options {
	o := Options{
		Timeout: 10 * time.Second,
		Depth:   DefaultDepth,
		CSRF:    true,
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// WithEndpoint provides a method to set the endpoint option.
func WithEndpoint(v string) Option {
	return func(o *Options) {
		o.Endpoint = v
	}
}

// WithUsername provides a method to set the username option.
func WithUsername(v string) Option {
	return func(o *Options) {
		o.Username = v
	}
}

// WithPassword provides a method to set the password option. API tokens are
// passed the same way.
func WithPassword(v string) Option {
	return func(o *Options) {
		o.Password = v
	}
}

// WithTimeout provides a method to set the timeout option.
func WithTimeout(v time.Duration) Option {
	return func(o *Options) {
		o.Timeout = v
	}
}

// WithDepth sets the depth used by requests without an explicit query.
func WithDepth(v int) Option {
	return func(o *Options) {
		o.Depth = v
	}
}

// WithoutCSRF disables fetching a crumb before write requests.
func WithoutCSRF() Option {
	return func(o *Options) {
		o.CSRF = false
	}
}

// WithHTTPClient replaces the default HTTP client. The timeout option is
// ignored in that case, and the client needs a cookie jar for crumbs to be
// accepted on write requests.
func WithHTTPClient(v *http.Client) Option {
	return func(o *Options) {
		o.HTTPClient = v
	}
}

// WithLogger provides a method to set the logger option.
func WithLogger(v *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = v
	}
}

// WithRateLimit limits the client to rps requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *Options) {
		o.Limit = rate.Limit(rps)
		o.Burst = burst
	}
}

// Client is a simple client for the Jenkins API.
type Client struct {
	endpoint   string
	username   string
	password   string
	depth      int
	csrf       bool
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger

	Job   *JobClient
	Build *BuildClient
	View  *ViewClient
	Queue *QueueClient
	User  *UserClient
	Node  *NodeClient
}

// NewClient returns a client for the configured endpoint.
func NewClient(opts ...Option) (*Client, error) {
	o := newOptions(opts...)

	if o.Endpoint == "" {
		return nil, ErrMissingEndpoint
	}

	client := &Client{
		endpoint:   strings.TrimRight(o.Endpoint, "/"),
		username:   o.Username,
		password:   o.Password,
		depth:      o.Depth,
		csrf:       o.CSRF,
		httpClient: o.HTTPClient,
		logger:     o.Logger,
	}

	if client.httpClient == nil {
		// Crumbs are bound to the web session that issued them, so the
		// session cookie has to be sent back on the following POST.
		jar, err := cookiejar.New(&cookiejar.Options{
			PublicSuffixList: publicsuffix.List,
		})

		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}

		client.httpClient = &http.Client{
			Timeout: o.Timeout,
			Jar:     jar,
		}
	}

	if client.logger == nil {
		client.logger = slog.New(slog.DiscardHandler)
	}

	if o.Limit > 0 {
		burst := o.Burst

		if burst < 1 {
			burst = 1
		}

		client.limiter = rate.NewLimiter(o.Limit, burst)
	}

	client.Job = &JobClient{client: client}
	client.Build = &BuildClient{client: client}
	client.View = &ViewClient{client: client}
	client.Queue = &QueueClient{client: client}
	client.User = &UserClient{client: client}
	client.Node = &NodeClient{client: client}

	return client, nil
}

// Endpoint returns the base URL all paths are resolved against.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Version returns the server version reported in the X-Jenkins header.
func (c *Client) Version(ctx context.Context) (*semver.Version, error) {
	req, err := c.NewRequest(ctx, http.MethodGet, c.apiURL(HomePath{}, Tree(NewTree("mode"))), nil)

	if err != nil {
		return nil, err
	}

	resp, err := c.Do(req, nil)

	if err != nil {
		return nil, err
	}

	header := resp.Header.Get(VersionHeader)

	if header == "" {
		return nil, fmt.Errorf("failed to detect version: missing %s header", VersionHeader)
	}

	version, err := semver.NewVersion(header)

	if err != nil {
		return nil, fmt.Errorf("failed to parse version %q: %w", header, err)
	}

	return version, nil
}

// minimumVersion is the oldest release the JSON shapes in this package follow.
var minimumVersion = semver.MustParse("2.0.0")

// IsCompatible reports whether a server version string is supported.
func IsCompatible(version string) bool {
	v, err := semver.NewVersion(version)

	if err != nil {
		return false
	}

	return !v.LessThan(minimumVersion)
}
