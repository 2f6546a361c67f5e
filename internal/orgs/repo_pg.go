package orgs

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new organization.
func (r *PGRepo) Create(ctx context.Context, org Organization) error {
	const query = `
INSERT INTO organizations (id, name, subscription_tier, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.DB.ExecContext(ctx, query, org.ID, org.Name, org.SubscriptionTier, org.CreatedAt, org.UpdatedAt)
	return err
}

// GetByID returns an organization by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Organization, error) {
	const query = `
SELECT id, name, subscription_tier, created_at, updated_at
FROM organizations
WHERE id = $1`
	var org Organization
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&org.ID,
		&org.Name,
		&org.SubscriptionTier,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Organization{}, ErrNotFound
		}
		return Organization{}, err
	}
	return org, nil
}

// Update applies partial updates and returns the stored row.
func (r *PGRepo) Update(ctx context.Context, id string, name, tier *string) (Organization, error) {
	const query = `
UPDATE organizations
SET name = COALESCE($2, name),
    subscription_tier = COALESCE($3, subscription_tier),
    updated_at = NOW()
WHERE id = $1
RETURNING id, name, subscription_tier, created_at, updated_at`

	var nameArg, tierArg sql.NullString
	if name != nil {
		nameArg = sql.NullString{String: *name, Valid: true}
	}
	if tier != nil {
		tierArg = sql.NullString{String: *tier, Valid: true}
	}

	var org Organization
	err := r.DB.QueryRowContext(ctx, query, id, nameArg, tierArg).Scan(
		&org.ID,
		&org.Name,
		&org.SubscriptionTier,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Organization{}, ErrNotFound
		}
		return Organization{}, err
	}
	return org, nil
}

// List returns organizations, newest first.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Organization, error) {
	const query = `
SELECT id, name, subscription_tier, created_at, updated_at
FROM organizations
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Organization
	for rows.Next() {
		var org Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.SubscriptionTier, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, org)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
