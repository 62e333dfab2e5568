package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"
)

// Server defines the general server configuration.
type Server struct {
	Addr    string
	Path    string
	Timeout time.Duration
	Web     string
	Pprof   bool
}

// Logs defines the level and color for log configuration.
type Logs struct {
	Level  string
	Pretty bool
}

// Target defines the target specific configuration.
type Target struct {
	Address   string
	Username  string
	Password  string
	Timeout   time.Duration
	Depth     int
	CSRF      bool
	RateLimit float64
	Burst     int
}

// Collector defines the collector specific configuration.
type Collector struct {
	Jobs              bool
	Queue             bool
	Nodes             bool
	Builds            bool
	FetchBuildDetails bool
	Folders           []string
	Interval          time.Duration
}

// Inventory defines the job inventory configuration.
type Inventory struct {
	Path     string
	Interval time.Duration
	Excludes []string
}

// Output defines how command results get rendered.
type Output struct {
	Format string
}

// Config is a combination of all available configurations.
type Config struct {
	Server    Server
	Logs      Logs
	Target    Target
	Collector Collector
	Inventory Inventory
	Output    Output
}

// Load initializes a default configuration struct.
func Load() *Config {
	return &Config{}
}

// Folders splits a comma separated list of folder names, dropping blanks.
func Folders(values []string) []string {
	result := make([]string, 0, len(values))

	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
	}

	return result
}

// Value returns the config value based on a DSN.
func Value(val string) (string, error) {
	if strings.HasPrefix(val, "file://") {
		content, err := os.ReadFile(
			strings.TrimPrefix(val, "file://"),
		)

		if err != nil {
			return "", fmt.Errorf("failed to parse secret file: %w", err)
		}

		return strings.TrimSpace(string(content)), nil
	}

	if strings.HasPrefix(val, "base64://") {
		content, err := base64.StdEncoding.DecodeString(
			strings.TrimPrefix(val, "base64://"),
		)

		if err != nil {
			return "", fmt.Errorf("failed to parse base64 value: %w", err)
		}

		return string(content), nil
	}

	return val, nil
}
