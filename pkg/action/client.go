package action

import (
	"fmt"
	"log/slog"

	"github.com/promhippie/jenkins_api/pkg/config"
	"github.com/promhippie/jenkins_api/pkg/jenkins"
)

// newClient builds a Jenkins client from the target configuration,
// resolving file:// and base64:// secrets for the credentials.
func newClient(cfg *config.Config, logger *slog.Logger) (*jenkins.Client, error) {
	username, err := config.Value(cfg.Target.Username)

	if err != nil {
		return nil, fmt.Errorf("failed to load username: %w", err)
	}

	password, err := config.Value(cfg.Target.Password)

	if err != nil {
		return nil, fmt.Errorf("failed to load password: %w", err)
	}

	opts := []jenkins.Option{
		jenkins.WithEndpoint(cfg.Target.Address),
		jenkins.WithUsername(username),
		jenkins.WithPassword(password),
		jenkins.WithTimeout(cfg.Target.Timeout),
		jenkins.WithDepth(cfg.Target.Depth),
		jenkins.WithLogger(logger.With("component", "jenkins")),
	}

	if !cfg.Target.CSRF {
		opts = append(opts, jenkins.WithoutCSRF())
	}

	if cfg.Target.RateLimit > 0 {
		opts = append(opts, jenkins.WithRateLimit(cfg.Target.RateLimit, cfg.Target.Burst))
	}

	client, err := jenkins.NewClient(opts...)

	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}
