package jenkins

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// maxErrorBodySize limits how much of an error response ends up in APIError.
const maxErrorBodySize = 4096

// Crumb is the CSRF token required by write requests.
type Crumb struct {
	Class             string `json:"_class"`
	Crumb             string `json:"crumb"`
	CrumbRequestField string `json:"crumbRequestField"`
}

// NewRequest prepares a request with authentication headers.
func (c *Client) NewRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)

	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.username != "" || c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	req.Header.Set("Accept", "application/json")

	return req, nil
}

// Do executes the request and decodes a JSON response into v if v is not
// nil. The response body is always closed.
func (c *Client) Do(req *http.Request, v interface{}) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}
	}

	resp, err := c.httpClient.Do(req)

	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	c.logger.Debug("Executed request",
		"method", req.Method,
		"url", req.URL.Redacted(),
		"status", resp.StatusCode,
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return resp, newAPIError(req, resp)
	}

	if v == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp, nil
	}

	switch target := v.(type) {
	case *string:
		content, err := io.ReadAll(resp.Body)

		if err != nil {
			return resp, fmt.Errorf("failed to read response: %w", err)
		}

		*target = string(content)
	case *[]byte:
		content, err := io.ReadAll(resp.Body)

		if err != nil {
			return resp, fmt.Errorf("failed to read response: %w", err)
		}

		*target = content
	default:
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return resp, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp, nil
}

func newAPIError(req *http.Request, resp *http.Response) *APIError {
	result := &APIError{
		StatusCode: resp.StatusCode,
		Method:     req.Method,
		URL:        req.URL.Redacted(),
	}

	// Jenkins renders most failures as full HTML pages.
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))

	if mediaType == "text/html" {
		return result
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))

	if err == nil {
		result.Message = strings.TrimSpace(string(content))
	}

	return result
}

func (c *Client) apiURL(p Path, query Query) string {
	values := url.Values{}

	if query == nil {
		values.Set("depth", strconv.Itoa(c.depth))
	} else {
		query.Apply(values)
	}

	target := c.endpoint + p.String() + "/api/json"

	if encoded := values.Encode(); encoded != "" {
		target = target + "?" + encoded
	}

	return target
}

// Get fetches the JSON representation of a path into v. A nil query uses
// the depth configured on the client.
func (c *Client) Get(ctx context.Context, p Path, query Query, v interface{}) error {
	req, err := c.NewRequest(ctx, http.MethodGet, c.apiURL(p, query), nil)

	if err != nil {
		return err
	}

	if _, err := c.Do(req, v); err != nil {
		return err
	}

	return nil
}

// GetText fetches a non-JSON resource like a console log or config.xml.
func (c *Client) GetText(ctx context.Context, p Path) (string, error) {
	req, err := c.NewRequest(ctx, http.MethodGet, c.endpoint+p.String(), nil)

	if err != nil {
		return "", err
	}

	req.Header.Set("Accept", "*/*")

	result := ""

	if _, err := c.Do(req, &result); err != nil {
		return "", err
	}

	return result, nil
}

// Post sends a form encoded write request to a path. A crumb is attached
// unless CSRF handling has been disabled on the client.
func (c *Client) Post(ctx context.Context, p Path, form url.Values) (*http.Response, error) {
	var body io.Reader

	if len(form) > 0 {
		body = strings.NewReader(form.Encode())
	}

	req, err := c.NewRequest(ctx, http.MethodPost, c.endpoint+p.String(), body)

	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	if c.csrf {
		crumb, err := c.Crumb(ctx)

		if err != nil {
			return nil, err
		}

		if crumb != nil {
			req.Header.Set(crumb.CrumbRequestField, crumb.Crumb)
		}
	}

	return c.Do(req, nil)
}

// Crumb fetches a fresh CSRF crumb. It returns nil without error when the
// server has CSRF protection disabled.
func (c *Client) Crumb(ctx context.Context) (*Crumb, error) {
	result := &Crumb{}

	if err := c.Get(ctx, CrumbIssuerPath{}, Depth(0), result); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch crumb: %w", err)
	}

	return result, nil
}
