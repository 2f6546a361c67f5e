package prompts

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Prompt
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Prompt)}
}

// Create stores a new prompt.
func (r *MemoryRepo) Create(ctx context.Context, p Prompt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[p.ID] = p
	return nil
}

// GetByID returns a prompt by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Prompt, error) {
	if err := ctx.Err(); err != nil {
		return Prompt{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.data[id]
	if !ok {
		return Prompt{}, ErrNotFound
	}
	return p, nil
}

// ListByProject returns a project's prompts, newest first.
func (r *MemoryRepo) ListByProject(ctx context.Context, projectID string) ([]Prompt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Prompt
	for _, p := range r.data {
		if p.ProjectID == projectID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Update applies partial updates to a prompt.
func (r *MemoryRepo) Update(ctx context.Context, id string, upd Update) (Prompt, error) {
	if err := ctx.Err(); err != nil {
		return Prompt{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok {
		return Prompt{}, ErrNotFound
	}
	if upd.Text != nil {
		p.Text = *upd.Text
	}
	if upd.Tags != nil {
		p.Tags = *upd.Tags
	}
	if upd.IsActive != nil {
		p.IsActive = *upd.IsActive
	}
	if upd.ScheduleEnabled != nil {
		p.ScheduleEnabled = *upd.ScheduleEnabled
	}
	if upd.ScheduleCadence != nil {
		p.ScheduleCadence = *upd.ScheduleCadence
	}
	p.UpdatedAt = time.Now().UTC()
	r.data[id] = p
	return p, nil
}

// Delete removes a prompt.
func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}

// CountByProject returns the number of prompts in a project.
func (r *MemoryRepo) CountByProject(ctx context.Context, projectID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, p := range r.data {
		if p.ProjectID == projectID {
			count++
		}
	}
	return count, nil
}

// ListDue returns schedulable prompts due at or before now.
func (r *MemoryRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]Prompt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Prompt
	for _, p := range r.data {
		if !p.Schedulable() {
			continue
		}
		if p.NextRunAt == nil || !p.NextRunAt.After(now) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].NextRunAt, out[j].NextRunAt
		switch {
		case a == nil && b == nil:
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		case a == nil:
			return true
		case b == nil:
			return false
		default:
			return a.Before(*b)
		}
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// AdvanceSchedule records a dispatch on the prompt's schedule clock.
func (r *MemoryRepo) AdvanceSchedule(ctx context.Context, id string, lastRunAt, nextRunAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	last := lastRunAt
	next := nextRunAt
	p.LastRunAt = &last
	p.NextRunAt = &next
	p.UpdatedAt = time.Now().UTC()
	r.data[id] = p
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
