package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const jobColumns = `id, type, payload, status, attempts, max_attempts, scheduled_for, locked_at, locked_by, error, project_id, organization_id, created_at, updated_at`

// Create inserts a new job.
func (r *PGRepo) Create(ctx context.Context, j Job) error {
	payload, err := EncodePayload(j.Payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	const query = `
INSERT INTO jobs (id, type, payload, status, attempts, max_attempts, scheduled_for, locked_at, locked_by, error, project_id, organization_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err = r.DB.ExecContext(ctx, query,
		j.ID,
		j.Type,
		payload,
		string(j.Status),
		j.Attempts,
		j.MaxAttempts,
		j.ScheduledFor,
		nullableTime(j.LockedAt),
		j.LockedBy,
		j.Error,
		j.ProjectID,
		j.OrganizationID,
		j.CreatedAt,
		j.UpdatedAt,
	)
	return err
}

// GetByID returns a job by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Job, error) {
	const query = `
SELECT ` + jobColumns + `
FROM jobs
WHERE id = $1`
	return scanJob(r.DB.QueryRowContext(ctx, query, id))
}

// List returns jobs newest first, optionally filtered by status.
func (r *PGRepo) List(ctx context.Context, status Status, limit, offset int) ([]Job, error) {
	if status != "" {
		const query = `
SELECT ` + jobColumns + `
FROM jobs
WHERE status = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
		return r.queryJobs(ctx, query, string(status), limit, offset)
	}
	const query = `
SELECT ` + jobColumns + `
FROM jobs
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`
	return r.queryJobs(ctx, query, limit, offset)
}

// LockDue claims up to limit due, unlocked pending jobs in one conditional
// write. SKIP LOCKED keeps concurrent drain cycles from blocking on each
// other's row locks; the locked_at IS NULL predicate is what makes the claim
// exclusive.
func (r *PGRepo) LockDue(ctx context.Context, now time.Time, limit int, lockedBy string) ([]Job, error) {
	const query = `
UPDATE jobs
SET locked_at = $1, locked_by = $2, updated_at = $1
WHERE id IN (
    SELECT id
    FROM jobs
    WHERE status = 'pending' AND scheduled_for <= $1 AND locked_at IS NULL
    ORDER BY scheduled_for ASC
    LIMIT $3
    FOR UPDATE SKIP LOCKED
)
RETURNING ` + jobColumns
	return r.queryJobs(ctx, query, now, lockedBy, limit)
}

// Unlock releases a claim without touching status or attempts.
func (r *PGRepo) Unlock(ctx context.Context, id string) error {
	const query = `
UPDATE jobs
SET locked_at = NULL, locked_by = '', updated_at = $2
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkRunning moves a pending job to running and consumes an attempt.
func (r *PGRepo) MarkRunning(ctx context.Context, id string) (Job, error) {
	const query = `
UPDATE jobs
SET status = 'running', attempts = attempts + 1, updated_at = $2
WHERE id = $1 AND status = 'pending'
RETURNING ` + jobColumns
	j, err := scanJob(r.DB.QueryRowContext(ctx, query, id, time.Now().UTC()))
	if errors.Is(err, ErrNotFound) {
		return Job{}, r.transitionErr(ctx, id, StatusRunning)
	}
	return j, err
}

// Complete terminally completes a running job.
func (r *PGRepo) Complete(ctx context.Context, id string, note string) error {
	return r.transition(ctx, id, StatusCompleted, note, nil)
}

// Reschedule returns a running job to pending at a future time.
func (r *PGRepo) Reschedule(ctx context.Context, id string, scheduledFor time.Time, errMsg string) error {
	return r.transition(ctx, id, StatusPending, errMsg, &scheduledFor)
}

// Fail terminally fails a running job.
func (r *PGRepo) Fail(ctx context.Context, id string, errMsg string) error {
	return r.transition(ctx, id, StatusFailed, errMsg, nil)
}

func (r *PGRepo) transition(ctx context.Context, id string, to Status, errMsg string, scheduledFor *time.Time) error {
	const query = `
UPDATE jobs
SET status = $2,
    error = $3,
    scheduled_for = COALESCE($4, scheduled_for),
    locked_at = NULL,
    locked_by = '',
    updated_at = $5
WHERE id = $1 AND status = 'running'`
	res, err := r.DB.ExecContext(ctx, query, id, string(to), errMsg, nullableTime(scheduledFor), time.Now().UTC())
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.transitionErr(ctx, id, to)
	}
	return nil
}

// transitionErr distinguishes a missing row from an illegal lifecycle move
// after a guarded update matched nothing.
func (r *PGRepo) transitionErr(ctx context.Context, id string, to Status) error {
	j, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return InvalidTransitionError{From: j.Status, To: to}
}

// CountRunningByProject counts a project's running jobs.
func (r *PGRepo) CountRunningByProject(ctx context.Context, projectID string) (int, error) {
	const query = `SELECT COUNT(*) FROM jobs WHERE project_id = $1 AND status = 'running'`
	return r.count(ctx, query, projectID)
}

// CountRunningByOrg counts an organization's running jobs.
func (r *PGRepo) CountRunningByOrg(ctx context.Context, orgID string) (int, error) {
	const query = `SELECT COUNT(*) FROM jobs WHERE organization_id = $1 AND status = 'running'`
	return r.count(ctx, query, orgID)
}

func (r *PGRepo) count(ctx context.Context, query string, arg any) (int, error) {
	var count int
	if err := r.DB.QueryRowContext(ctx, query, arg).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PGRepo) queryJobs(ctx context.Context, query string, args ...any) ([]Job, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (Job, error) {
	var (
		j        Job
		status   string
		payload  []byte
		lockedAt sql.NullTime
		lockedBy sql.NullString
		errMsg   sql.NullString
	)
	err := row.Scan(
		&j.ID,
		&j.Type,
		&payload,
		&status,
		&j.Attempts,
		&j.MaxAttempts,
		&j.ScheduledFor,
		&lockedAt,
		&lockedBy,
		&errMsg,
		&j.ProjectID,
		&j.OrganizationID,
		&j.CreatedAt,
		&j.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	if err != nil {
		return Job{}, err
	}
	j.Status = Status(status)
	if len(payload) > 0 {
		p, err := DecodePayload(payload)
		if err != nil {
			return Job{}, fmt.Errorf("decode payload: %w", err)
		}
		j.Payload = p
	}
	if lockedAt.Valid {
		t := lockedAt.Time
		j.LockedAt = &t
	}
	j.LockedBy = lockedBy.String
	j.Error = errMsg.String
	return j, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

var _ Repo = (*PGRepo)(nil)
