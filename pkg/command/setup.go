package command

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/promhippie/jenkins_api/pkg/config"
)

func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: loggerLevel(cfg.Logs.Level),
	}

	if cfg.Logs.Pretty {
		return slog.New(
			slog.NewTextHandler(os.Stderr, opts),
		)
	}

	return slog.New(
		slog.NewJSONHandler(os.Stderr, opts),
	)
}

func loggerLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	return slog.LevelInfo
}

func requireInterval(name string, v time.Duration) error {
	if v <= 0 {
		return fmt.Errorf("%s must be a positive duration, got %s", name, v)
	}

	return nil
}
