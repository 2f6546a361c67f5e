package runs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/marcalaing/gpt-rank-sub000/internal/extraction"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const runColumns = `id, prompt_id, project_id, organization_id, provider, model, status,
       raw_response, parsed_mentions, response_metadata, cost, completed_at, created_at`

// Create inserts a run in its initial state.
func (r *PGRepo) Create(ctx context.Context, run PromptRun) error {
	const query = `
INSERT INTO prompt_runs (id, prompt_id, project_id, organization_id, provider, model, status,
	raw_response, parsed_mentions, response_metadata, cost, completed_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	signals, err := marshalSignals(run.Signals)
	if err != nil {
		return err
	}
	metadata, err := json.Marshal(run.Metadata)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		run.ID,
		run.PromptID,
		run.ProjectID,
		run.OrganizationID,
		run.Provider,
		run.Model,
		run.Status,
		nullableString(run.RawResponse),
		signals,
		metadata,
		run.Cost,
		nullableTime(run.CompletedAt),
		run.CreatedAt,
	)
	return err
}

// GetByID returns a run by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (PromptRun, error) {
	const query = `
SELECT ` + runColumns + `
FROM prompt_runs
WHERE id = $1`
	return scanRun(r.DB.QueryRowContext(ctx, query, id))
}

// Finish persists a run's terminal state.
func (r *PGRepo) Finish(ctx context.Context, run PromptRun) error {
	const query = `
UPDATE prompt_runs
SET status = $2,
    raw_response = $3,
    parsed_mentions = $4,
    response_metadata = $5,
    cost = $6,
    completed_at = $7
WHERE id = $1`
	signals, err := marshalSignals(run.Signals)
	if err != nil {
		return err
	}
	metadata, err := json.Marshal(run.Metadata)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query,
		run.ID,
		run.Status,
		nullableString(run.RawResponse),
		signals,
		metadata,
		run.Cost,
		nullableTime(run.CompletedAt),
	)
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

// ListByPrompt returns a prompt's runs, newest first.
func (r *PGRepo) ListByPrompt(ctx context.Context, promptID string, limit, offset int) ([]PromptRun, error) {
	const query = `
SELECT ` + runColumns + `
FROM prompt_runs
WHERE prompt_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	return r.queryRuns(ctx, query, promptID, limit, offset)
}

// ListByProject returns a project's runs, newest first.
func (r *PGRepo) ListByProject(ctx context.Context, projectID string, limit, offset int) ([]PromptRun, error) {
	const query = `
SELECT ` + runColumns + `
FROM prompt_runs
WHERE project_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	return r.queryRuns(ctx, query, projectID, limit, offset)
}

// ListCompletedForPromptSince returns completed runs in the trailing window,
// oldest first.
func (r *PGRepo) ListCompletedForPromptSince(ctx context.Context, promptID string, since time.Time, excludeRunID string) ([]PromptRun, error) {
	const query = `
SELECT ` + runColumns + `
FROM prompt_runs
WHERE prompt_id = $1
  AND status = $2
  AND created_at >= $3
  AND id <> $4
ORDER BY created_at ASC`
	return r.queryRuns(ctx, query, promptID, StatusCompleted, since, excludeRunID)
}

func (r *PGRepo) queryRuns(ctx context.Context, query string, args ...any) ([]PromptRun, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PromptRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func scanRun(row rowScanner) (PromptRun, error) {
	var run PromptRun
	var rawResponse sql.NullString
	var signals []byte
	var metadata []byte
	var completedAt sql.NullTime
	err := row.Scan(
		&run.ID,
		&run.PromptID,
		&run.ProjectID,
		&run.OrganizationID,
		&run.Provider,
		&run.Model,
		&run.Status,
		&rawResponse,
		&signals,
		&metadata,
		&run.Cost,
		&completedAt,
		&run.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return PromptRun{}, ErrNotFound
	}
	if err != nil {
		return PromptRun{}, err
	}
	if rawResponse.Valid {
		s := rawResponse.String
		run.RawResponse = &s
	}
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	if run.Signals, err = unmarshalSignals(signals); err != nil {
		return PromptRun{}, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &run.Metadata); err != nil {
			return PromptRun{}, err
		}
	}
	return run, nil
}

var _ Repo = (*PGRepo)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func marshalSignals(sig *extraction.Signals) (any, error) {
	if sig == nil {
		return nil, nil
	}
	return json.Marshal(sig)
}

func unmarshalSignals(payload []byte) (*extraction.Signals, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	var sig extraction.Signals
	if err := json.Unmarshal(payload, &sig); err != nil {
		return nil, err
	}
	return &sig, nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// PGCitationsRepo implements CitationsRepo using Postgres.
type PGCitationsRepo struct {
	DB *sql.DB
}

// CreateBatch inserts a run's citations in one transaction.
func (r *PGCitationsRepo) CreateBatch(ctx context.Context, citations []Citation) error {
	if len(citations) == 0 {
		return nil
	}
	const query = `
INSERT INTO citations (id, run_id, url, title, snippet, domain, position, is_primary, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, c := range citations {
		if _, err := tx.ExecContext(ctx, query,
			c.ID,
			c.RunID,
			c.URL,
			c.Title,
			c.Snippet,
			c.Domain,
			c.Position,
			c.IsPrimary,
			c.CreatedAt,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListByRun returns a run's citations in position order.
func (r *PGCitationsRepo) ListByRun(ctx context.Context, runID string) ([]Citation, error) {
	const query = `
SELECT id, run_id, url, title, snippet, domain, position, is_primary, created_at
FROM citations
WHERE run_id = $1
ORDER BY position ASC`
	rows, err := r.DB.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Citation
	for rows.Next() {
		var c Citation
		if err := rows.Scan(
			&c.ID,
			&c.RunID,
			&c.URL,
			&c.Title,
			&c.Snippet,
			&c.Domain,
			&c.Position,
			&c.IsPrimary,
			&c.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

var _ CitationsRepo = (*PGCitationsRepo)(nil)
