package alerts

import "context"

// RuleUpdate carries partial rule updates; nil fields are left unchanged.
type RuleUpdate struct {
	Threshold *float64
	IsActive  *bool
}

// RulesRepo defines persistence operations for alert rules.
type RulesRepo interface {
	Create(ctx context.Context, r Rule) error
	GetByID(ctx context.Context, id string) (Rule, error)
	ListByProject(ctx context.Context, projectID string) ([]Rule, error)
	ListActiveByProject(ctx context.Context, projectID string) ([]Rule, error)
	Update(ctx context.Context, id string, upd RuleUpdate) (Rule, error)
	Delete(ctx context.Context, id string) error
}

// EventsRepo defines persistence operations for alert events.
type EventsRepo interface {
	Create(ctx context.Context, e Event) error
	GetByID(ctx context.Context, id string) (Event, error)
	ListByProject(ctx context.Context, projectID string, limit, offset int) ([]Event, error)
	// Acknowledge marks an event as seen.
	Acknowledge(ctx context.Context, id string) (Event, error)
}
