package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const jobColumns = "id, kind, label, remote_job_id, request_id, status, progress_percent, progress_message, result_url, error_message, created_at, updated_at, started_at, finished_at"

// Add inserts a new render job already in flight.
func (s *Store) Add(ctx context.Context, kind Kind, label, remoteJobID, requestID string) (*Job, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO render_jobs (
            kind, label, remote_job_id, request_id, status,
            progress_percent, created_at, updated_at, started_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(kind),
		nullableString(label),
		nullableString(remoteJobID),
		nullableString(requestID),
		StatusRendering,
		0.0,
		timestamp,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a render job by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM render_jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// SetProgress updates the progress of an in-flight job.
func (s *Store) SetProgress(ctx context.Context, id int64, percent float64, message string) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE render_jobs
         SET progress_percent = ?, progress_message = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		percent,
		nullableString(message),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		StatusRendering,
	); err != nil {
		return fmt.Errorf("set progress: %w", err)
	}
	return nil
}

// MarkDone records a successful completion with an optional result URL.
func (s *Store) MarkDone(ctx context.Context, id int64, resultURL string) error {
	return s.finish(ctx, id, StatusDone, resultURL, "", 100)
}

// MarkFailed records a failure with the user-facing error message.
func (s *Store) MarkFailed(ctx context.Context, id int64, message string) error {
	return s.finish(ctx, id, StatusFailed, "", message, 0)
}

// MarkCanceled records that the job was superseded or stopped.
func (s *Store) MarkCanceled(ctx context.Context, id int64, reason string) error {
	return s.finish(ctx, id, StatusCanceled, "", reason, 0)
}

func (s *Store) finish(ctx context.Context, id int64, status Status, resultURL, errorMessage string, percent float64) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE render_jobs
         SET status = ?, result_url = ?, error_message = ?, progress_percent = ?,
             updated_at = ?, finished_at = ?
         WHERE id = ?`,
		status,
		nullableString(resultURL),
		nullableString(errorMessage),
		percent,
		timestamp,
		timestamp,
		id,
	); err != nil {
		return fmt.Errorf("mark %s: %w", status, err)
	}
	return nil
}

// List returns render jobs filtered by status set (or all jobs when no
// status is provided), newest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + jobColumns + ` FROM render_jobs`
	orderClause := ` ORDER BY id DESC`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// LatestRendering returns the most recently started in-flight job of the
// given kind, or of any kind when kind is empty. Returns nil when nothing is
// rendering. When operations overlap, errors are attributed to this job.
func (s *Store) LatestRendering(ctx context.Context, kind Kind) (*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM render_jobs WHERE status = ?`
	args := []any{StatusRendering}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY id DESC LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, args...)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest rendering: %w", err)
	}
	return job, nil
}

// FailRendering marks every in-flight job as failed with the given message.
// Used during daemon shutdown so jobs are not left dangling.
func (s *Store) FailRendering(ctx context.Context, message string) (int64, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE render_jobs
         SET status = ?, error_message = ?, updated_at = ?, finished_at = ?
         WHERE status = ?`,
		StatusFailed,
		message,
		timestamp,
		timestamp,
		StatusRendering,
	)
	if err != nil {
		return 0, fmt.Errorf("fail rendering jobs: %w", err)
	}
	return res.RowsAffected()
}

// Remove deletes a job by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM render_jobs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearFinished removes done, failed, and canceled jobs.
func (s *Store) ClearFinished(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM render_jobs WHERE status IN (?, ?, ?)`,
		StatusDone, StatusFailed, StatusCanceled,
	)
	if err != nil {
		return 0, fmt.Errorf("clear finished: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes all jobs from the log.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM render_jobs`)
	if err != nil {
		return 0, fmt.Errorf("clear jobs: %w", err)
	}
	return res.RowsAffected()
}

func makePlaceholders(n int) string {
	if n <= 0 {
		return ""
	}
	out := make([]byte, 0, n*2-1)
	for i := 0; i < n; i++ {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, '?')
	}
	return string(out)
}
