package usage

import (
	"context"
	"database/sql"
	"errors"
)

// PGStore is a Postgres-backed usage store.
type PGStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed usage store.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{DB: db}
}

// Get returns the usage row for an organization and period. A missing row
// reads as zero usage; rows materialize on the first Record of a period.
func (s *PGStore) Get(ctx context.Context, orgID, period string) (Usage, error) {
	const query = `
SELECT runs_used FROM usage_periods WHERE organization_id = $1 AND period = $2`
	u := Usage{OrganizationID: orgID, Period: period}
	err := s.DB.QueryRowContext(ctx, query, orgID, period).Scan(&u.Used)
	if errors.Is(err, sql.ErrNoRows) {
		return u, nil
	}
	if err != nil {
		return Usage{}, err
	}
	return u, nil
}

// Record atomically counts one run for the organization's period.
func (s *PGStore) Record(ctx context.Context, orgID, period string) (Usage, error) {
	const query = `
INSERT INTO usage_periods (organization_id, period, runs_used, updated_at)
VALUES ($1, $2, 1, NOW())
ON CONFLICT (organization_id, period)
DO UPDATE SET runs_used = usage_periods.runs_used + 1, updated_at = NOW()
RETURNING runs_used`
	u := Usage{OrganizationID: orgID, Period: period}
	if err := s.DB.QueryRowContext(ctx, query, orgID, period).Scan(&u.Used); err != nil {
		return Usage{}, err
	}
	return u, nil
}

var _ store = (*PGStore)(nil)
