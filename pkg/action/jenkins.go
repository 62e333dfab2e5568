package action

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/promhippie/jenkins_api/pkg/config"
	"github.com/promhippie/jenkins_api/pkg/jenkins"
)

// Home prints the root page of the server.
func Home(ctx context.Context, cfg *config.Config, logger *slog.Logger, w io.Writer) error {
	client, err := newClient(cfg, logger)

	if err != nil {
		return err
	}

	home, err := client.Home(ctx)

	if err != nil {
		return fmt.Errorf("failed to fetch home: %w", err)
	}

	return render(w, cfg.Output.Format, home)
}

// JobGet prints a single job.
func JobGet(ctx context.Context, cfg *config.Config, logger *slog.Logger, w io.Writer, name string) error {
	client, err := newClient(cfg, logger)

	if err != nil {
		return err
	}

	job, err := client.Job.Get(ctx, name)

	if err != nil {
		return fmt.Errorf("failed to fetch job %s: %w", name, err)
	}

	return render(w, cfg.Output.Format, job)
}

// JobList prints the full names of all jobs, descending into folders.
func JobList(ctx context.Context, cfg *config.Config, logger *slog.Logger, w io.Writer) error {
	client, err := newClient(cfg, logger)

	if err != nil {
		return err
	}

	jobs, err := client.Job.All(ctx, cfg.Collector.Folders)

	if err != nil && len(jobs) == 0 {
		return fmt.Errorf("failed to fetch jobs: %w", err)
	}

	if err != nil {
		logger.Warn("Some jobs failed to load",
			"err", err,
		)
	}

	result := make([]jenkins.ShortJob, 0, len(jobs))

	for _, job := range jobs {
		short := job.Base().Short()
		short.Name = job.Base().Path()
		result = append(result, short)
	}

	return render(w, cfg.Output.Format, result)
}

// JobBuild triggers a job and prints the queue item it got.
func JobBuild(ctx context.Context, cfg *config.Config, logger *slog.Logger, w io.Writer, name string, params map[string]string, token, cause string, delay time.Duration) error {
	client, err := newClient(cfg, logger)

	if err != nil {
		return err
	}

	opts := []jenkins.BuildOption{
		jenkins.WithParameters(params),
	}

	if token != "" {
		opts = append(opts, jenkins.WithToken(token))
	}

	if cause != "" {
		opts = append(opts, jenkins.WithCause(cause))
	}

	if delay > 0 {
		opts = append(opts, jenkins.WithDelay(delay))
	}

	item, err := client.Job.Build(ctx, name, opts...)

	if err != nil {
		return fmt.Errorf("failed to trigger job %s: %w", name, err)
	}

	id, _ := item.ID()

	logger.Info("Triggered job",
		"job", name,
		"queue_item", id,
	)

	return render(w, cfg.Output.Format, item)
}

// JobEnable enables a job.
func JobEnable(ctx context.Context, cfg *config.Config, logger *slog.Logger, name string) error {
	client, err := newClient(cfg, logger)

	if err != nil {
		return err
	}

	if err := client.Job.Enable(ctx, name); err != nil {
		return err
	}

	logger.Info("Enabled job",
		"job", name,
	)

	return nil
}

// JobDisable disables a job.
func JobDisable(ctx context.Context, cfg *config.Config, logger *slog.Logger, name string) error {
	client, err := newClient(cfg, logger)

	if err != nil {
		return err
	}

	if err := client.Job.Disable(ctx, name); err != nil {
		return err
	}

	logger.Info("Disabled job",
		"job", name,
	)

	return nil
}

// JobPollSCM asks a job to poll its SCM.
func JobPollSCM(ctx context.Context, cfg *config.Config, logger *slog.Logger, name string) error {
	client, err := newClient(cfg, logger)

	if err != nil {
		return err
	}

	return client.Job.PollSCM(ctx, name)
}

// JobConfig prints the config.xml of a job.
func JobConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger, w io.Writer, name string) error {
	client, err := newClient(cfg, logger)

	if err != nil {
		return err
	}

	content, err := client.Job.Config(ctx, name)

	if err != nil {
		return err
	}

	_, err = io.WriteString(w, content)
	return err
}

// BuildGet prints a build. Number accepts build numbers and permalinks.
func BuildGet(ctx context.Context, cfg *config.Config, logger *slog.Logger, w io.Writer, job, number string) error {
	selector, err := parseBuildNumber(number)

	if err != nil {
		return err
	}

	client, err := newClient(cfg, logger)

	if err != nil {
		return err
	}

	build, err := client.Build.Get(ctx, job, selector)

	if err != nil {
		return fmt.Errorf("failed to fetch build %s of %s: %w", number, job, err)
	}

	return render(w, cfg.Output.Format, build)
}

// BuildConsole prints the console output of a build.
func BuildConsole(ctx context.Context, cfg *config.Config, logger *slog.Logger, w io.Writer, job, number string) error {
	selector, err := parseBuildNumber(number)

	if err != nil {
		return err
	}

	client, err := newClient(cfg, logger)

	if err != nil {
		return err
	}

	content, err := client.Build.Console(ctx, job, selector)

	if err != nil {
		return err
	}

	_, err = io.WriteString(w, content)
	return err
}

// ViewGet prints a view.
func ViewGet(ctx context.Context, cfg *config.Config, logger *slog.Logger, w io.Writer, name string) error {
	client, err := newClient(cfg, logger)

	if err != nil {
		return err
	}

	view, err := client.View.Get(ctx, name)

	if err != nil {
		return fmt.Errorf("failed to fetch view %s: %w", name, err)
	}

	return render(w, cfg.Output.Format, view)
}

// ViewAdd adds a job to a view.
func ViewAdd(ctx context.Context, cfg *config.Config, logger *slog.Logger, view, job string) error {
	client, err := newClient(cfg, logger)

	if err != nil {
		return err
	}

	return client.View.AddJob(ctx, view, job)
}

// ViewRemove removes a job from a view.
func ViewRemove(ctx context.Context, cfg *config.Config, logger *slog.Logger, view, job string) error {
	client, err := newClient(cfg, logger)

	if err != nil {
		return err
	}

	return client.View.RemoveJob(ctx, view, job)
}

// QueueList prints the build queue.
func QueueList(ctx context.Context, cfg *config.Config, logger *slog.Logger, w io.Writer) error {
	client, err := newClient(cfg, logger)

	if err != nil {
		return err
	}

	queue, err := client.Queue.Get(ctx)

	if err != nil {
		return fmt.Errorf("failed to fetch queue: %w", err)
	}

	return render(w, cfg.Output.Format, queue.Items)
}

// QueueCancel cancels a queue item.
func QueueCancel(ctx context.Context, cfg *config.Config, logger *slog.Logger, id string) error {
	number, err := strconv.ParseInt(id, 10, 64)

	if err != nil {
		return fmt.Errorf("invalid queue item id %q", id)
	}

	client, err := newClient(cfg, logger)

	if err != nil {
		return err
	}

	return client.Queue.Cancel(ctx, number)
}

// UserGet prints a user.
func UserGet(ctx context.Context, cfg *config.Config, logger *slog.Logger, w io.Writer, id string) error {
	client, err := newClient(cfg, logger)

	if err != nil {
		return err
	}

	user, err := client.User.Get(ctx, id)

	if err != nil {
		return fmt.Errorf("failed to fetch user %s: %w", id, err)
	}

	return render(w, cfg.Output.Format, user)
}

// NodeList prints all nodes.
func NodeList(ctx context.Context, cfg *config.Config, logger *slog.Logger, w io.Writer) error {
	client, err := newClient(cfg, logger)

	if err != nil {
		return err
	}

	nodes, err := client.Node.All(ctx)

	if err != nil {
		return fmt.Errorf("failed to fetch nodes: %w", err)
	}

	return render(w, cfg.Output.Format, nodes)
}

// ServerVersion prints the version of the server and whether it is
// supported.
func ServerVersion(ctx context.Context, cfg *config.Config, logger *slog.Logger, w io.Writer) error {
	client, err := newClient(cfg, logger)

	if err != nil {
		return err
	}

	v, err := client.Version(ctx)

	if err != nil {
		return err
	}

	return render(w, cfg.Output.Format, map[string]interface{}{
		"version":    v.String(),
		"compatible": jenkins.IsCompatible(v.String()),
	})
}

func parseBuildNumber(v string) (jenkins.BuildNumber, error) {
	if v == "" {
		return jenkins.LastBuild, nil
	}

	number, ok := jenkins.ParseBuildNumber(v)

	if !ok {
		return jenkins.BuildNumber{}, fmt.Errorf("invalid build number %q", v)
	}

	return number, nil
}
