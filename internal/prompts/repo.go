package prompts

import (
	"context"
	"time"
)

// Update carries partial prompt updates; nil fields are left untouched.
type Update struct {
	Text            *string
	Tags            *[]string
	IsActive        *bool
	ScheduleEnabled *bool
	ScheduleCadence *Cadence
}

// Repo defines persistence operations for prompts.
type Repo interface {
	Create(ctx context.Context, p Prompt) error
	GetByID(ctx context.Context, id string) (Prompt, error)
	ListByProject(ctx context.Context, projectID string) ([]Prompt, error)
	Update(ctx context.Context, id string, upd Update) (Prompt, error)
	Delete(ctx context.Context, id string) error
	CountByProject(ctx context.Context, projectID string) (int, error)

	// ListDue returns schedulable prompts whose next run is unset or has
	// passed, ordered by next_run_at ascending with unset first.
	ListDue(ctx context.Context, now time.Time, limit int) ([]Prompt, error)
	// AdvanceSchedule records a run dispatch on the prompt's clock.
	AdvanceSchedule(ctx context.Context, id string, lastRunAt, nextRunAt time.Time) error
}
