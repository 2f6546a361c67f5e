package jobs

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo. The claim in LockDue
// happens under the repo mutex, giving the same only-if-unlocked guarantee
// the Postgres conditional update provides.
type MemoryRepo struct {
	mu   sync.Mutex
	data map[string]Job
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Job)}
}

// Create stores a new job.
func (r *MemoryRepo) Create(ctx context.Context, j Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[j.ID] = j
	return nil
}

// GetByID returns a job by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.data[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return j, nil
}

// List returns jobs newest first, optionally filtered by status.
func (r *MemoryRepo) List(ctx context.Context, status Status, limit, offset int) ([]Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Job
	for _, j := range r.data {
		if status != "" && j.Status != status {
			continue
		}
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// LockDue claims up to limit due, unlocked pending jobs, oldest-scheduled
// first.
func (r *MemoryRepo) LockDue(ctx context.Context, now time.Time, limit int, lockedBy string) ([]Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var due []Job
	for _, j := range r.data {
		if j.Due(now) && !j.Locked() {
			due = append(due, j)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].ScheduledFor.Before(due[j].ScheduledFor)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	lockedAt := now
	for i := range due {
		due[i].LockedAt = &lockedAt
		due[i].LockedBy = lockedBy
		due[i].UpdatedAt = now
		r.data[due[i].ID] = due[i]
	}
	return due, nil
}

// Unlock releases a claim without touching status or attempts.
func (r *MemoryRepo) Unlock(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	j.LockedAt = nil
	j.LockedBy = ""
	r.data[id] = j
	return nil
}

// MarkRunning moves a pending job to running and consumes an attempt.
func (r *MemoryRepo) MarkRunning(ctx context.Context, id string) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.data[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	if !j.Status.CanTransition(StatusRunning) {
		return Job{}, InvalidTransitionError{From: j.Status, To: StatusRunning}
	}
	j.Status = StatusRunning
	j.Attempts++
	j.UpdatedAt = time.Now().UTC()
	r.data[id] = j
	return j, nil
}

// Complete terminally completes a running job.
func (r *MemoryRepo) Complete(ctx context.Context, id string, note string) error {
	return r.transition(ctx, id, StatusCompleted, note, nil)
}

// Reschedule returns a running job to pending at a future time.
func (r *MemoryRepo) Reschedule(ctx context.Context, id string, scheduledFor time.Time, errMsg string) error {
	return r.transition(ctx, id, StatusPending, errMsg, &scheduledFor)
}

// Fail terminally fails a running job.
func (r *MemoryRepo) Fail(ctx context.Context, id string, errMsg string) error {
	return r.transition(ctx, id, StatusFailed, errMsg, nil)
}

func (r *MemoryRepo) transition(ctx context.Context, id string, to Status, errMsg string, scheduledFor *time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	if !j.Status.CanTransition(to) {
		return InvalidTransitionError{From: j.Status, To: to}
	}
	j.Status = to
	j.Error = errMsg
	j.LockedAt = nil
	j.LockedBy = ""
	if scheduledFor != nil {
		j.ScheduledFor = *scheduledFor
	}
	j.UpdatedAt = time.Now().UTC()
	r.data[id] = j
	return nil
}

// CountRunningByProject counts a project's running jobs.
func (r *MemoryRepo) CountRunningByProject(ctx context.Context, projectID string) (int, error) {
	return r.countRunning(ctx, func(j Job) bool { return j.ProjectID == projectID })
}

// CountRunningByOrg counts an organization's running jobs.
func (r *MemoryRepo) CountRunningByOrg(ctx context.Context, orgID string) (int, error) {
	return r.countRunning(ctx, func(j Job) bool { return j.OrganizationID == orgID })
}

func (r *MemoryRepo) countRunning(ctx context.Context, match func(Job) bool) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, j := range r.data {
		if j.Status == StatusRunning && match(j) {
			count++
		}
	}
	return count, nil
}

var _ Repo = (*MemoryRepo)(nil)
