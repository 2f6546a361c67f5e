package orgs

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marcalaing/gpt-rank-sub000/internal/tiers"
)

// ErrInvalidInput indicates a validation failure on caller-supplied fields.
var ErrInvalidInput = errors.New("invalid organization input")

// ErrUnknownTier indicates a tier name missing from the tier table.
var ErrUnknownTier = errors.New("unknown subscription tier")

// Service provides organization operations.
type Service struct {
	Repo  Repo
	Tiers *tiers.Registry
}

// Create validates and stores a new organization. The tier defaults to free.
func (s *Service) Create(ctx context.Context, name, tier string) (Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Organization{}, ErrInvalidInput
	}
	tier = strings.ToLower(strings.TrimSpace(tier))
	if tier == "" {
		tier = "free"
	}
	if err := s.validateTier(tier); err != nil {
		return Organization{}, err
	}

	now := time.Now().UTC()
	org := Organization{
		ID:               uuid.NewString(),
		Name:             name,
		SubscriptionTier: tier,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.Repo.Create(ctx, org); err != nil {
		return Organization{}, err
	}
	return org, nil
}

// Get returns an organization by ID.
func (s *Service) Get(ctx context.Context, id string) (Organization, error) {
	return s.Repo.GetByID(ctx, id)
}

// Update applies partial updates to name and/or tier.
func (s *Service) Update(ctx context.Context, id string, name, tier *string) (Organization, error) {
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return Organization{}, ErrInvalidInput
		}
		name = &trimmed
	}
	if tier != nil {
		normalized := strings.ToLower(strings.TrimSpace(*tier))
		if err := s.validateTier(normalized); err != nil {
			return Organization{}, err
		}
		tier = &normalized
	}
	return s.Repo.Update(ctx, id, name, tier)
}

// List returns organizations for the admin surface.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Organization, error) {
	return s.Repo.List(ctx, limit, offset)
}

// Limits resolves the organization's tier limits.
func (s *Service) Limits(org Organization) tiers.Limits {
	return s.Tiers.LimitsFor(org.SubscriptionTier)
}

func (s *Service) validateTier(tier string) error {
	for _, known := range s.Tiers.Known() {
		if known == tier {
			return nil
		}
	}
	return ErrUnknownTier
}
