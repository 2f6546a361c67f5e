package projects

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const projectColumns = `id, organization_id, name, current_month_usage, monthly_budget_soft, monthly_budget_hard, usage_month, created_at, updated_at`

// Create inserts a new project.
func (r *PGRepo) Create(ctx context.Context, p Project) error {
	const query = `
INSERT INTO projects (id, organization_id, name, current_month_usage, monthly_budget_soft, monthly_budget_hard, usage_month, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.DB.ExecContext(ctx, query,
		p.ID,
		p.OrganizationID,
		p.Name,
		p.CurrentMonthUsage,
		p.MonthlyBudgetSoft,
		p.MonthlyBudgetHard,
		p.UsageMonth,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

// GetByID returns a project by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Project, error) {
	const query = `
SELECT ` + projectColumns + `
FROM projects
WHERE id = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, id))
}

// ListByOrg returns an organization's projects, newest first.
func (r *PGRepo) ListByOrg(ctx context.Context, orgID string, limit, offset int) ([]Project, error) {
	const query = `
SELECT ` + projectColumns + `
FROM projects
WHERE organization_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.DB.QueryContext(ctx, query, orgID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		p, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountByOrg returns how many projects an organization owns.
func (r *PGRepo) CountByOrg(ctx context.Context, orgID string) (int, error) {
	const query = `SELECT COUNT(*) FROM projects WHERE organization_id = $1`
	var count int
	if err := r.DB.QueryRowContext(ctx, query, orgID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateBudgets applies partial budget updates and returns the stored row.
func (r *PGRepo) UpdateBudgets(ctx context.Context, id string, soft, hard *float64) (Project, error) {
	const query = `
UPDATE projects
SET monthly_budget_soft = COALESCE($2, monthly_budget_soft),
    monthly_budget_hard = COALESCE($3, monthly_budget_hard),
    updated_at = NOW()
WHERE id = $1
RETURNING ` + projectColumns

	var softArg, hardArg sql.NullFloat64
	if soft != nil {
		softArg = sql.NullFloat64{Float64: *soft, Valid: true}
	}
	if hard != nil {
		hardArg = sql.NullFloat64{Float64: *hard, Valid: true}
	}
	return r.scanOne(r.DB.QueryRowContext(ctx, query, id, softArg, hardArg))
}

// AddUsage increments the running monthly spend, restarting the counter when
// the stored month differs.
func (r *PGRepo) AddUsage(ctx context.Context, id string, cost float64, month string) error {
	const query = `
UPDATE projects
SET current_month_usage = CASE WHEN usage_month = $3 THEN current_month_usage + $2 ELSE $2 END,
    usage_month = $3,
    updated_at = NOW()
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, id, cost, month)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PGRepo) scanOne(row rowScanner) (Project, error) {
	p, err := r.scanRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Project{}, ErrNotFound
		}
		return Project{}, err
	}
	return p, nil
}

func (r *PGRepo) scanRow(row rowScanner) (Project, error) {
	var p Project
	var usageMonth sql.NullString
	err := row.Scan(
		&p.ID,
		&p.OrganizationID,
		&p.Name,
		&p.CurrentMonthUsage,
		&p.MonthlyBudgetSoft,
		&p.MonthlyBudgetHard,
		&usageMonth,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return Project{}, err
	}
	if usageMonth.Valid {
		p.UsageMonth = usageMonth.String
	}
	return p, nil
}

var _ Repo = (*PGRepo)(nil)
