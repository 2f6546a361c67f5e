package jobs

import (
	"context"
	"time"
)

// Repo defines persistence for the job queue. Transition methods validate
// the lifecycle: each succeeds only from the expected prior status and
// returns InvalidTransitionError otherwise.
type Repo interface {
	Create(ctx context.Context, j Job) error
	GetByID(ctx context.Context, id string) (Job, error)
	// List returns jobs newest first, optionally filtered by status
	// (empty status means all).
	List(ctx context.Context, status Status, limit, offset int) ([]Job, error)

	// LockDue claims up to limit pending, due, unlocked jobs for lockedBy
	// and returns them oldest-scheduled first. The claim is a single
	// conditional write: rows already locked by another caller are never
	// returned. This is the queue's only concurrency-safety mechanism.
	LockDue(ctx context.Context, now time.Time, limit int, lockedBy string) ([]Job, error)
	// Unlock releases a claim without changing status or attempts, used
	// when a locked job is skipped rather than run.
	Unlock(ctx context.Context, id string) error

	// MarkRunning moves a pending job to running and consumes an attempt,
	// returning the updated job.
	MarkRunning(ctx context.Context, id string) (Job, error)
	// Complete terminally completes a running job. The note lands in the
	// error column for operator visibility (e.g. a quota skip) and is
	// usually empty.
	Complete(ctx context.Context, id string, note string) error
	// Reschedule returns a running job to pending at a future time,
	// clearing the lock and retaining the triggering error.
	Reschedule(ctx context.Context, id string, scheduledFor time.Time, errMsg string) error
	// Fail terminally fails a running job, retaining the error.
	Fail(ctx context.Context, id string, errMsg string) error

	CountRunningByProject(ctx context.Context, projectID string) (int, error)
	CountRunningByOrg(ctx context.Context, orgID string) (int, error)
}
