package prompts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marcalaing/gpt-rank-sub000/internal/orgs"
	"github.com/marcalaing/gpt-rank-sub000/internal/projects"
	"github.com/marcalaing/gpt-rank-sub000/internal/tiers"
)

// Service provides prompt operations, enforcing the tier per-project
// prompt cap on creation.
type Service struct {
	Repo     Repo
	Projects projects.Repo
	Orgs     orgs.Repo
	Tiers    *tiers.Registry
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CreateInput carries fields for a new prompt.
type CreateInput struct {
	Text            string
	Tags            []string
	ScheduleEnabled bool
	ScheduleCadence Cadence
}

// Create validates the tier prompt cap and stores a new prompt. New
// prompts start active with next_run_at unset, so an enabled schedule
// fires on the next tick.
func (s *Service) Create(ctx context.Context, projectID string, in CreateInput) (Prompt, error) {
	in.Text = strings.TrimSpace(in.Text)
	if in.Text == "" {
		return Prompt{}, ErrInvalidInput
	}
	if in.ScheduleCadence == "" {
		in.ScheduleCadence = CadenceDaily
	}
	if !in.ScheduleCadence.Valid() {
		return Prompt{}, ErrInvalidInput
	}

	project, err := s.Projects.GetByID(ctx, projectID)
	if err != nil {
		return Prompt{}, fmt.Errorf("load project: %w", err)
	}
	org, err := s.Orgs.GetByID(ctx, project.OrganizationID)
	if err != nil {
		return Prompt{}, fmt.Errorf("load organization: %w", err)
	}

	limits := s.Tiers.LimitsFor(org.SubscriptionTier)
	if limits.PromptsPerProject != tiers.Unlimited {
		count, err := s.Repo.CountByProject(ctx, projectID)
		if err != nil {
			return Prompt{}, fmt.Errorf("count prompts: %w", err)
		}
		if count >= limits.PromptsPerProject {
			return Prompt{}, ErrPromptLimit
		}
	}

	now := s.now().UTC()
	p := Prompt{
		ID:              uuid.NewString(),
		ProjectID:       projectID,
		Text:            in.Text,
		Tags:            cleanTags(in.Tags),
		IsActive:        true,
		ScheduleEnabled: in.ScheduleEnabled,
		ScheduleCadence: in.ScheduleCadence,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Repo.Create(ctx, p); err != nil {
		return Prompt{}, err
	}
	return p, nil
}

// Get returns a prompt by ID.
func (s *Service) Get(ctx context.Context, id string) (Prompt, error) {
	return s.Repo.GetByID(ctx, id)
}

// ListByProject returns a project's prompts.
func (s *Service) ListByProject(ctx context.Context, projectID string) ([]Prompt, error) {
	return s.Repo.ListByProject(ctx, projectID)
}

// Update applies partial updates after validating them.
func (s *Service) Update(ctx context.Context, id string, upd Update) (Prompt, error) {
	if upd.Text != nil {
		trimmed := strings.TrimSpace(*upd.Text)
		if trimmed == "" {
			return Prompt{}, ErrInvalidInput
		}
		upd.Text = &trimmed
	}
	if upd.ScheduleCadence != nil && !upd.ScheduleCadence.Valid() {
		return Prompt{}, ErrInvalidInput
	}
	if upd.Tags != nil {
		cleaned := cleanTags(*upd.Tags)
		upd.Tags = &cleaned
	}
	return s.Repo.Update(ctx, id, upd)
}

// Delete removes a prompt.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.Repo.Delete(ctx, id)
}

func cleanTags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, tag := range in {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[strings.ToLower(tag)] {
			continue
		}
		seen[strings.ToLower(tag)] = true
		out = append(out, tag)
	}
	return out
}
