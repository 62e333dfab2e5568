package jenkins

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for use with errors.Is.
var (
	ErrNotFound        = errors.New("jenkins: resource not found")
	ErrUnauthorized    = errors.New("jenkins: invalid credentials")
	ErrForbidden       = errors.New("jenkins: permission denied")
	ErrClassMismatch   = errors.New("jenkins: class mismatch")
	ErrMissingLocation = errors.New("jenkins: response without queue location")
	ErrMissingEndpoint = errors.New("jenkins: endpoint is required")
)

// APIError is returned for any response with a status code of 400 or above.
type APIError struct {
	StatusCode int
	Method     string
	URL        string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("jenkins: %s %s: %d %s: %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode), e.Message)
	}

	return fmt.Sprintf("jenkins: %s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Unwrap maps the status code to one of the sentinel errors.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	}

	return nil
}

// InvalidURLError is returned when a URL taken from a short reference does
// not point to the expected kind of resource.
type InvalidURLError struct {
	URL      string
	Expected string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("jenkins: invalid url %q, expected a %s", e.URL, e.Expected)
}
