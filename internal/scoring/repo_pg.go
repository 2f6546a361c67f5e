package scoring

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const scoreColumns = `id, run_id, brand_id, project_id, provider, score, mention_count,
       sentiment, sentiment_bonus, citation_bonus, created_at`

// Create inserts a new score.
func (r *PGRepo) Create(ctx context.Context, s Score) error {
	const query = `
INSERT INTO scores (id, run_id, brand_id, project_id, provider, score, mention_count,
	sentiment, sentiment_bonus, citation_bonus, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.DB.ExecContext(ctx, query,
		s.ID,
		s.RunID,
		s.BrandID,
		s.ProjectID,
		s.Provider,
		s.Score,
		s.MentionCount,
		s.Sentiment,
		s.SentimentBonus,
		s.CitationBonus,
		s.CreatedAt,
	)
	return err
}

// GetByRun returns the score recorded for a run.
func (r *PGRepo) GetByRun(ctx context.Context, runID string) (Score, error) {
	const query = `
SELECT ` + scoreColumns + `
FROM scores
WHERE run_id = $1
LIMIT 1`
	var s Score
	err := r.DB.QueryRowContext(ctx, query, runID).Scan(
		&s.ID,
		&s.RunID,
		&s.BrandID,
		&s.ProjectID,
		&s.Provider,
		&s.Score,
		&s.MentionCount,
		&s.Sentiment,
		&s.SentimentBonus,
		&s.CitationBonus,
		&s.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Score{}, ErrNotFound
	}
	if err != nil {
		return Score{}, err
	}
	return s, nil
}

// ListByProject returns a project's scores, newest first.
func (r *PGRepo) ListByProject(ctx context.Context, projectID string, limit, offset int) ([]Score, error) {
	const query = `
SELECT ` + scoreColumns + `
FROM scores
WHERE project_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	return r.queryScores(ctx, query, projectID, limit, offset)
}

// ListByBrand returns a brand's scores, newest first.
func (r *PGRepo) ListByBrand(ctx context.Context, brandID string, limit, offset int) ([]Score, error) {
	const query = `
SELECT ` + scoreColumns + `
FROM scores
WHERE brand_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	return r.queryScores(ctx, query, brandID, limit, offset)
}

func (r *PGRepo) queryScores(ctx context.Context, query string, args ...any) ([]Score, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Score
	for rows.Next() {
		var s Score
		if err := rows.Scan(
			&s.ID,
			&s.RunID,
			&s.BrandID,
			&s.ProjectID,
			&s.Provider,
			&s.Score,
			&s.MentionCount,
			&s.Sentiment,
			&s.SentimentBonus,
			&s.CitationBonus,
			&s.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
