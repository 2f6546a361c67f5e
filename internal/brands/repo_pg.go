package brands

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const brandColumns = `id, project_id, name, domain, synonyms, created_at, updated_at`

// Create inserts a new brand.
func (r *PGRepo) Create(ctx context.Context, b Brand) error {
	const query = `
INSERT INTO brands (id, project_id, name, domain, synonyms, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	synonyms, err := marshalTerms(b.Synonyms)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		b.ID,
		b.ProjectID,
		b.Name,
		b.Domain,
		synonyms,
		b.CreatedAt,
		b.UpdatedAt,
	)
	return err
}

// GetByID returns a brand by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Brand, error) {
	const query = `
SELECT ` + brandColumns + `
FROM brands
WHERE id = $1
LIMIT 1`
	return scanBrand(r.DB.QueryRowContext(ctx, query, id))
}

// ListByProject returns a project's brands in creation order.
func (r *PGRepo) ListByProject(ctx context.Context, projectID string) ([]Brand, error) {
	const query = `
SELECT ` + brandColumns + `
FROM brands
WHERE project_id = $1
ORDER BY created_at ASC`
	rows, err := r.DB.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Brand
	for rows.Next() {
		b, err := scanBrand(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetPrimaryForProject returns the first-created brand for a project.
func (r *PGRepo) GetPrimaryForProject(ctx context.Context, projectID string) (Brand, error) {
	const query = `
SELECT ` + brandColumns + `
FROM brands
WHERE project_id = $1
ORDER BY created_at ASC
LIMIT 1`
	return scanBrand(r.DB.QueryRowContext(ctx, query, projectID))
}

func scanBrand(row rowScanner) (Brand, error) {
	var b Brand
	var domain sql.NullString
	var synonyms []byte
	err := row.Scan(
		&b.ID,
		&b.ProjectID,
		&b.Name,
		&domain,
		&synonyms,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Brand{}, ErrNotFound
	}
	if err != nil {
		return Brand{}, err
	}
	b.Domain = domain.String
	if b.Synonyms, err = unmarshalTerms(synonyms); err != nil {
		return Brand{}, err
	}
	return b, nil
}

var _ Repo = (*PGRepo)(nil)

// PGCompetitorsRepo implements CompetitorsRepo using Postgres.
type PGCompetitorsRepo struct {
	DB *sql.DB
}

const competitorColumns = `id, project_id, name, synonyms, created_at, updated_at`

// Create inserts a new competitor.
func (r *PGCompetitorsRepo) Create(ctx context.Context, c Competitor) error {
	const query = `
INSERT INTO competitors (id, project_id, name, synonyms, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	synonyms, err := marshalTerms(c.Synonyms)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		c.ID,
		c.ProjectID,
		c.Name,
		synonyms,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

// GetByID returns a competitor by ID.
func (r *PGCompetitorsRepo) GetByID(ctx context.Context, id string) (Competitor, error) {
	const query = `
SELECT ` + competitorColumns + `
FROM competitors
WHERE id = $1
LIMIT 1`
	return scanCompetitor(r.DB.QueryRowContext(ctx, query, id))
}

// ListByProject returns a project's competitors in creation order.
func (r *PGCompetitorsRepo) ListByProject(ctx context.Context, projectID string) ([]Competitor, error) {
	const query = `
SELECT ` + competitorColumns + `
FROM competitors
WHERE project_id = $1
ORDER BY created_at ASC`
	rows, err := r.DB.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Competitor
	for rows.Next() {
		c, err := scanCompetitor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCompetitor(row rowScanner) (Competitor, error) {
	var c Competitor
	var synonyms []byte
	err := row.Scan(
		&c.ID,
		&c.ProjectID,
		&c.Name,
		&synonyms,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Competitor{}, ErrNotFound
	}
	if err != nil {
		return Competitor{}, err
	}
	if c.Synonyms, err = unmarshalTerms(synonyms); err != nil {
		return Competitor{}, err
	}
	return c, nil
}

var _ CompetitorsRepo = (*PGCompetitorsRepo)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func marshalTerms(terms []string) ([]byte, error) {
	if terms == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(terms)
}

func unmarshalTerms(payload []byte) ([]string, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	var terms []string
	if err := json.Unmarshal(payload, &terms); err != nil {
		return nil, err
	}
	return terms, nil
}
