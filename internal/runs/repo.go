package runs

import (
	"context"
	"time"
)

// Repo defines persistence operations for prompt runs.
type Repo interface {
	Create(ctx context.Context, run PromptRun) error
	GetByID(ctx context.Context, id string) (PromptRun, error)
	// Finish persists a run's terminal state: status, raw response, signals,
	// metadata, cost and completion time.
	Finish(ctx context.Context, run PromptRun) error
	ListByPrompt(ctx context.Context, promptID string, limit, offset int) ([]PromptRun, error)
	ListByProject(ctx context.Context, projectID string, limit, offset int) ([]PromptRun, error)
	// ListCompletedForPromptSince returns completed runs for a prompt created
	// at or after since, oldest first, excluding excludeRunID. The alert
	// evaluator builds its trailing history window from this.
	ListCompletedForPromptSince(ctx context.Context, promptID string, since time.Time, excludeRunID string) ([]PromptRun, error)
}

// CitationsRepo defines persistence operations for run citations.
type CitationsRepo interface {
	CreateBatch(ctx context.Context, citations []Citation) error
	ListByRun(ctx context.Context, runID string) ([]Citation, error)
}
