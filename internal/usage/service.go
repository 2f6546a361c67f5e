package usage

import (
	"context"
	"time"

	"github.com/marcalaing/gpt-rank-sub000/internal/tiers"
)

type store interface {
	Get(ctx context.Context, orgID, period string) (Usage, error)
	Record(ctx context.Context, orgID, period string) (Usage, error)
}

// Service tracks per-organization monthly run counts. The count backs the
// tier runsPerMonth gate: every created run increments it, whatever the
// run's eventual outcome.
type Service struct {
	store store
	Now   func() time.Time
}

// NewService constructs a Service with an in-memory store.
func NewService() *Service {
	return &Service{store: newMemoryStore()}
}

// NewPostgresService constructs a Service backed by Postgres.
func NewPostgresService(pgStore *PGStore) *Service {
	return &Service{store: pgStore}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Get returns the organization's usage for the current period.
func (s *Service) Get(ctx context.Context, orgID string) (Usage, error) {
	return s.store.Get(ctx, orgID, PeriodKey(s.now()))
}

// CanRun reports whether the organization is under its monthly run limit.
// An unlimited tier always passes.
func (s *Service) CanRun(ctx context.Context, orgID string, limit int) (bool, Usage, error) {
	u, err := s.Get(ctx, orgID)
	if err != nil {
		return false, Usage{}, err
	}
	if limit == tiers.Unlimited {
		return true, u, nil
	}
	return u.Used < limit, u, nil
}

// RecordRun counts one run against the organization's current period.
func (s *Service) RecordRun(ctx context.Context, orgID string) (Usage, error) {
	return s.store.Record(ctx, orgID, PeriodKey(s.now()))
}
