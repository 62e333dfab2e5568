package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Actions recorded in the job_changes table.
const (
	ActionAdd     = "ADD"
	ActionDelete  = "DELETE"
	ActionRestore = "RESTORE"
)

// Job represents a job record in the database.
type Job struct {
	Name          string     `json:"name"`
	Class         string     `json:"class,omitempty"`
	Color         string     `json:"color,omitempty"`
	Enabled       bool       `json:"enabled"`
	LastSeenBuild int64      `json:"last_seen_build"`
	LastSyncTime  *time.Time `json:"last_sync_time,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Change is an entry of the audit table.
type Change struct {
	Name   string    `json:"name"`
	Action string    `json:"action"`
	Time   time.Time `json:"time"`
}

// SyncResult summarizes a call to SyncJobs.
type SyncResult struct {
	Added    int `json:"added"`
	Deleted  int `json:"deleted"`
	Restored int `json:"restored"`
	Updated  int `json:"updated"`
}

// JobRepo provides methods for job data access.
type JobRepo struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewJobRepo creates a new JobRepo instance.
func NewJobRepo(db *sql.DB, logger *slog.Logger) *JobRepo {
	return &JobRepo{
		db:     db,
		logger: logger.With("component", "job_repo"),
		now:    time.Now,
	}
}

// ListEnabledJobs returns all enabled jobs ordered by name.
func (r *JobRepo) ListEnabledJobs(ctx context.Context) ([]Job, error) {
	return r.listJobs(ctx, `
		SELECT job_name, class, color, enabled, last_seen_build, last_sync_time, created_at
		FROM jobs
		WHERE enabled = 1
		ORDER BY job_name`)
}

// ListJobs returns all jobs including soft deleted ones.
func (r *JobRepo) ListJobs(ctx context.Context) ([]Job, error) {
	return r.listJobs(ctx, `
		SELECT job_name, class, color, enabled, last_seen_build, last_sync_time, created_at
		FROM jobs
		ORDER BY job_name`)
}

func (r *JobRepo) listJobs(ctx context.Context, query string) ([]Job, error) {
	rows, err := r.db.QueryContext(ctx, query)

	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	jobs := make([]Job, 0)

	for rows.Next() {
		var (
			job          Job
			lastSyncTime sql.NullInt64
			createdAt    sql.NullInt64
		)

		if err := rows.Scan(
			&job.Name,
			&job.Class,
			&job.Color,
			&job.Enabled,
			&job.LastSeenBuild,
			&lastSyncTime,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}

		if lastSyncTime.Valid {
			t := time.Unix(lastSyncTime.Int64, 0)
			job.LastSyncTime = &t
		}

		if createdAt.Valid {
			job.CreatedAt = time.Unix(createdAt.Int64, 0)
		}

		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate jobs: %w", err)
	}

	return jobs, nil
}

// UpdateLastSeen stores the last build number seen for a job.
func (r *JobRepo) UpdateLastSeen(ctx context.Context, name string, build int64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE jobs
		SET last_seen_build = ?
		WHERE job_name = ?`, build, name)

	if err != nil {
		return fmt.Errorf("failed to update last seen build: %w", err)
	}

	affected, err := result.RowsAffected()

	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if affected == 0 {
		r.logger.Warn("Job to update is missing",
			"job", name,
		)
	}

	return nil
}

// SyncJobs replaces the inventory with the given jobs in a single
// transaction. New jobs are added, missing jobs are soft deleted and jobs
// that reappear are enabled again. Every change ends up in the audit table.
func (r *JobRepo) SyncJobs(ctx context.Context, jobs []Job) (SyncResult, error) {
	result := SyncResult{}
	tx, err := r.db.BeginTx(ctx, nil)

	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	seen := make(map[string]bool, len(jobs))
	now := r.now().Unix()

	for _, job := range jobs {
		seen[job.Name] = true

		enabled, exists, err := r.lookupInTx(ctx, tx, job.Name)

		if err != nil {
			return result, err
		}

		switch {
		case !exists:
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO jobs(job_name, class, color, enabled, last_seen_build, last_sync_time, created_at)
				VALUES (?, ?, ?, 1, 0, ?, ?)`, job.Name, job.Class, job.Color, now, now); err != nil {
				return result, fmt.Errorf("failed to insert job %s: %w", job.Name, err)
			}

			if err := r.recordChange(ctx, tx, job.Name, ActionAdd, now); err != nil {
				return result, err
			}

			result.Added++
		case !enabled:
			if _, err := tx.ExecContext(ctx, `
				UPDATE jobs
				SET enabled = 1, class = ?, color = ?, last_sync_time = ?
				WHERE job_name = ?`, job.Class, job.Color, now, job.Name); err != nil {
				return result, fmt.Errorf("failed to restore job %s: %w", job.Name, err)
			}

			if err := r.recordChange(ctx, tx, job.Name, ActionRestore, now); err != nil {
				return result, err
			}

			result.Restored++
		default:
			if _, err := tx.ExecContext(ctx, `
				UPDATE jobs
				SET class = ?, color = ?, last_sync_time = ?
				WHERE job_name = ?`, job.Class, job.Color, now, job.Name); err != nil {
				return result, fmt.Errorf("failed to update job %s: %w", job.Name, err)
			}

			result.Updated++
		}
	}

	existing, err := r.enabledNamesInTx(ctx, tx)

	if err != nil {
		return result, err
	}

	for _, name := range existing {
		if seen[name] {
			continue
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE jobs
			SET enabled = 0
			WHERE job_name = ?`, name); err != nil {
			return result, fmt.Errorf("failed to soft delete job %s: %w", name, err)
		}

		if err := r.recordChange(ctx, tx, name, ActionDelete, now); err != nil {
			return result, err
		}

		result.Deleted++
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info("Synchronized jobs",
		"added", result.Added,
		"deleted", result.Deleted,
		"restored", result.Restored,
		"updated", result.Updated,
		"total", len(jobs),
	)

	return result, nil
}

// ListChanges returns the audit entries recorded at or after since, oldest
// first.
func (r *JobRepo) ListChanges(ctx context.Context, since time.Time) ([]Change, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT job_name, action, event_time
		FROM job_changes
		WHERE event_time >= ?
		ORDER BY event_time, rowid`, since.Unix())

	if err != nil {
		return nil, fmt.Errorf("failed to query changes: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	changes := make([]Change, 0)

	for rows.Next() {
		var (
			change    Change
			eventTime int64
		)

		if err := rows.Scan(&change.Name, &change.Action, &eventTime); err != nil {
			return nil, fmt.Errorf("failed to scan change: %w", err)
		}

		change.Time = time.Unix(eventTime, 0)
		changes = append(changes, change)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate changes: %w", err)
	}

	return changes, nil
}

func (r *JobRepo) lookupInTx(ctx context.Context, tx *sql.Tx, name string) (bool, bool, error) {
	var enabled bool

	err := tx.QueryRowContext(ctx, `SELECT enabled FROM jobs WHERE job_name = ? LIMIT 1`, name).Scan(&enabled)

	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}

	if err != nil {
		return false, false, fmt.Errorf("failed to lookup job %s: %w", name, err)
	}

	return enabled, true, nil
}

func (r *JobRepo) enabledNamesInTx(ctx context.Context, tx *sql.Tx) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT job_name FROM jobs WHERE enabled = 1`)

	if err != nil {
		return nil, fmt.Errorf("failed to list existing jobs: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	names := make([]string, 0)

	for rows.Next() {
		var name string

		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}

		names = append(names, name)
	}

	return names, rows.Err()
}

func (r *JobRepo) recordChange(ctx context.Context, tx *sql.Tx, name, action string, eventTime int64) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO job_changes(job_name, action, event_time)
		VALUES (?, ?, ?)`, name, action, eventTime); err != nil {
		return fmt.Errorf("failed to record %s of job %s: %w", action, name, err)
	}

	return nil
}
