package prompts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const promptColumns = `id, project_id, text, tags, is_active, schedule_enabled, schedule_cadence,
       last_run_at, next_run_at, created_at, updated_at`

// Create inserts a new prompt.
func (r *PGRepo) Create(ctx context.Context, p Prompt) error {
	const query = `
INSERT INTO prompts (id, project_id, text, tags, is_active, schedule_enabled, schedule_cadence,
	last_run_at, next_run_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	tags, err := marshalTags(p.Tags)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		p.ID,
		p.ProjectID,
		p.Text,
		tags,
		p.IsActive,
		p.ScheduleEnabled,
		string(p.ScheduleCadence),
		nullableTime(p.LastRunAt),
		nullableTime(p.NextRunAt),
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

// GetByID returns a prompt by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Prompt, error) {
	const query = `
SELECT ` + promptColumns + `
FROM prompts
WHERE id = $1
LIMIT 1`
	return scanPrompt(r.DB.QueryRowContext(ctx, query, id))
}

// ListByProject returns a project's prompts, newest first.
func (r *PGRepo) ListByProject(ctx context.Context, projectID string) ([]Prompt, error) {
	const query = `
SELECT ` + promptColumns + `
FROM prompts
WHERE project_id = $1
ORDER BY created_at DESC`
	return r.queryPrompts(ctx, query, projectID)
}

// Update applies partial updates to a prompt.
func (r *PGRepo) Update(ctx context.Context, id string, upd Update) (Prompt, error) {
	const query = `
UPDATE prompts
SET text = COALESCE($2, text),
    tags = COALESCE($3, tags),
    is_active = COALESCE($4, is_active),
    schedule_enabled = COALESCE($5, schedule_enabled),
    schedule_cadence = COALESCE($6, schedule_cadence),
    updated_at = NOW()
WHERE id = $1
RETURNING ` + promptColumns

	var tags any
	if upd.Tags != nil {
		payload, err := marshalTags(*upd.Tags)
		if err != nil {
			return Prompt{}, err
		}
		tags = payload
	}
	var cadence any
	if upd.ScheduleCadence != nil {
		cadence = string(*upd.ScheduleCadence)
	}
	return scanPrompt(r.DB.QueryRowContext(ctx, query,
		id,
		nullableString(upd.Text),
		tags,
		nullableBool(upd.IsActive),
		nullableBool(upd.ScheduleEnabled),
		cadence,
	))
}

// Delete removes a prompt.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM prompts WHERE id = $1`, id)
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

// CountByProject returns the number of prompts in a project.
func (r *PGRepo) CountByProject(ctx context.Context, projectID string) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM prompts WHERE project_id = $1`, projectID).Scan(&count)
	return count, err
}

// ListDue returns schedulable prompts due at or before now, longest-waiting
// first.
func (r *PGRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]Prompt, error) {
	const query = `
SELECT ` + promptColumns + `
FROM prompts
WHERE is_active = TRUE
  AND schedule_enabled = TRUE
  AND (next_run_at IS NULL OR next_run_at <= $1)
ORDER BY next_run_at ASC NULLS FIRST
LIMIT $2`
	return r.queryPrompts(ctx, query, now, limit)
}

// AdvanceSchedule records a dispatch on the prompt's schedule clock.
func (r *PGRepo) AdvanceSchedule(ctx context.Context, id string, lastRunAt, nextRunAt time.Time) error {
	const query = `
UPDATE prompts
SET last_run_at = $2, next_run_at = $3, updated_at = NOW()
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, id, lastRunAt, nextRunAt)
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

func (r *PGRepo) queryPrompts(ctx context.Context, query string, args ...any) ([]Prompt, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Prompt
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPrompt(row rowScanner) (Prompt, error) {
	var p Prompt
	var tags []byte
	var cadence sql.NullString
	var lastRunAt sql.NullTime
	var nextRunAt sql.NullTime
	err := row.Scan(
		&p.ID,
		&p.ProjectID,
		&p.Text,
		&tags,
		&p.IsActive,
		&p.ScheduleEnabled,
		&cadence,
		&lastRunAt,
		&nextRunAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Prompt{}, ErrNotFound
	}
	if err != nil {
		return Prompt{}, err
	}
	p.ScheduleCadence = Cadence(cadence.String)
	if lastRunAt.Valid {
		t := lastRunAt.Time
		p.LastRunAt = &t
	}
	if nextRunAt.Valid {
		t := nextRunAt.Time
		p.NextRunAt = &t
	}
	if p.Tags, err = unmarshalTags(tags); err != nil {
		return Prompt{}, err
	}
	return p, nil
}

var _ Repo = (*PGRepo)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func marshalTags(tags []string) ([]byte, error) {
	if tags == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(tags)
}

func unmarshalTags(payload []byte) ([]string, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal(payload, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullableBool(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}
