package projects

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marcalaing/gpt-rank-sub000/internal/orgs"
	"github.com/marcalaing/gpt-rank-sub000/internal/tiers"
)

// ErrInvalidInput indicates a validation failure on caller-supplied fields.
var ErrInvalidInput = errors.New("invalid project input")

// Service provides project operations, enforcing the tier project limit on
// creation.
type Service struct {
	Repo  Repo
	Orgs  orgs.Repo
	Tiers *tiers.Registry
	Now   func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create validates the tier project limit and stores a new project.
func (s *Service) Create(ctx context.Context, orgID, name string) (Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Project{}, ErrInvalidInput
	}

	org, err := s.Orgs.GetByID(ctx, orgID)
	if err != nil {
		return Project{}, fmt.Errorf("load organization: %w", err)
	}

	limits := s.Tiers.LimitsFor(org.SubscriptionTier)
	if limits.ProjectLimit != tiers.Unlimited {
		count, err := s.Repo.CountByOrg(ctx, orgID)
		if err != nil {
			return Project{}, fmt.Errorf("count projects: %w", err)
		}
		if count >= limits.ProjectLimit {
			return Project{}, ErrProjectLimit
		}
	}

	now := s.now().UTC()
	p := Project{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		Name:           name,
		UsageMonth:     UsageMonthKey(now),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Repo.Create(ctx, p); err != nil {
		return Project{}, err
	}
	return p, nil
}

// Get returns a project by ID.
func (s *Service) Get(ctx context.Context, id string) (Project, error) {
	return s.Repo.GetByID(ctx, id)
}

// ListByOrg returns an organization's projects.
func (s *Service) ListByOrg(ctx context.Context, orgID string, limit, offset int) ([]Project, error) {
	return s.Repo.ListByOrg(ctx, orgID, limit, offset)
}

// UpdateBudgets applies partial budget updates. Negative budgets are
// rejected; zero disables the respective cap.
func (s *Service) UpdateBudgets(ctx context.Context, id string, soft, hard *float64) (Project, error) {
	if soft != nil && *soft < 0 {
		return Project{}, ErrInvalidInput
	}
	if hard != nil && *hard < 0 {
		return Project{}, ErrInvalidInput
	}
	return s.Repo.UpdateBudgets(ctx, id, soft, hard)
}

// AddUsage accumulates run cost onto the project's current month.
func (s *Service) AddUsage(ctx context.Context, id string, cost float64) error {
	if cost <= 0 {
		return nil
	}
	return s.Repo.AddUsage(ctx, id, cost, UsageMonthKey(s.now()))
}
