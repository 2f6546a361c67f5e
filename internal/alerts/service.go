package alerts

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marcalaing/gpt-rank-sub000/internal/projects"
)

// Service owns alert rule configuration.
type Service struct {
	Rules    RulesRepo
	Events   EventsRepo
	Projects projects.Repo
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CreateRule registers a rule on a project. A missing or non-positive
// threshold falls back to the type's built-in default.
func (s *Service) CreateRule(ctx context.Context, projectID, ruleType string, threshold *float64) (Rule, error) {
	if _, err := s.Projects.GetByID(ctx, projectID); err != nil {
		return Rule{}, err
	}
	ruleType = strings.TrimSpace(ruleType)
	if ruleType == "" {
		return Rule{}, ErrInvalidInput
	}

	th := DefaultThreshold(ruleType)
	if threshold != nil && *threshold > 0 {
		th = *threshold
	}

	now := s.now().UTC()
	rule := Rule{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Type:      ruleType,
		Threshold: th,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Rules.Create(ctx, rule); err != nil {
		return Rule{}, err
	}
	return rule, nil
}

// ListRules returns a project's rules.
func (s *Service) ListRules(ctx context.Context, projectID string) ([]Rule, error) {
	return s.Rules.ListByProject(ctx, projectID)
}

// UpdateRule applies partial updates to a rule.
func (s *Service) UpdateRule(ctx context.Context, id string, upd RuleUpdate) (Rule, error) {
	if upd.Threshold != nil && *upd.Threshold <= 0 {
		return Rule{}, ErrInvalidInput
	}
	return s.Rules.Update(ctx, id, upd)
}

// DeleteRule removes a rule. Past events keep their rule link.
func (s *Service) DeleteRule(ctx context.Context, id string) error {
	return s.Rules.Delete(ctx, id)
}

// ListEvents returns a project's events, newest first.
func (s *Service) ListEvents(ctx context.Context, projectID string, limit, offset int) ([]Event, error) {
	return s.Events.ListByProject(ctx, projectID, limit, offset)
}

// AcknowledgeEvent marks an event as seen.
func (s *Service) AcknowledgeEvent(ctx context.Context, id string) (Event, error) {
	return s.Events.Acknowledge(ctx, id)
}
