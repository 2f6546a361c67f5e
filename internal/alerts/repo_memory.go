package alerts

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRulesRepo is an in-memory implementation of RulesRepo.
type MemoryRulesRepo struct {
	mu   sync.RWMutex
	data map[string]Rule
}

// NewMemoryRulesRepo constructs a MemoryRulesRepo.
func NewMemoryRulesRepo() *MemoryRulesRepo {
	return &MemoryRulesRepo{data: make(map[string]Rule)}
}

// Create stores a new rule.
func (r *MemoryRulesRepo) Create(ctx context.Context, rule Rule) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[rule.ID] = rule
	return nil
}

// GetByID returns a rule by ID.
func (r *MemoryRulesRepo) GetByID(ctx context.Context, id string) (Rule, error) {
	if err := ctx.Err(); err != nil {
		return Rule{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.data[id]
	if !ok {
		return Rule{}, ErrNotFound
	}
	return rule, nil
}

// ListByProject returns a project's rules, oldest first.
func (r *MemoryRulesRepo) ListByProject(ctx context.Context, projectID string) ([]Rule, error) {
	return r.listWhere(ctx, func(rule Rule) bool { return rule.ProjectID == projectID })
}

// ListActiveByProject returns a project's active rules, oldest first.
func (r *MemoryRulesRepo) ListActiveByProject(ctx context.Context, projectID string) ([]Rule, error) {
	return r.listWhere(ctx, func(rule Rule) bool { return rule.ProjectID == projectID && rule.IsActive })
}

func (r *MemoryRulesRepo) listWhere(ctx context.Context, match func(Rule) bool) ([]Rule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Rule
	for _, rule := range r.data {
		if match(rule) {
			out = append(out, rule)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Update applies partial updates to a rule.
func (r *MemoryRulesRepo) Update(ctx context.Context, id string, upd RuleUpdate) (Rule, error) {
	if err := ctx.Err(); err != nil {
		return Rule{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.data[id]
	if !ok {
		return Rule{}, ErrNotFound
	}
	if upd.Threshold != nil {
		rule.Threshold = *upd.Threshold
	}
	if upd.IsActive != nil {
		rule.IsActive = *upd.IsActive
	}
	rule.UpdatedAt = time.Now().UTC()
	r.data[id] = rule
	return rule, nil
}

// Delete removes a rule.
func (r *MemoryRulesRepo) Delete(ctx context.Context, id string) error {
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

var _ RulesRepo = (*MemoryRulesRepo)(nil)

// MemoryEventsRepo is an in-memory implementation of EventsRepo.
type MemoryEventsRepo struct {
	mu   sync.RWMutex
	data map[string]Event
}

// NewMemoryEventsRepo constructs a MemoryEventsRepo.
func NewMemoryEventsRepo() *MemoryEventsRepo {
	return &MemoryEventsRepo{data: make(map[string]Event)}
}

// Create stores a new event.
func (r *MemoryEventsRepo) Create(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[e.ID] = e
	return nil
}

// GetByID returns an event by ID.
func (r *MemoryEventsRepo) GetByID(ctx context.Context, id string) (Event, error) {
	if err := ctx.Err(); err != nil {
		return Event{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.data[id]
	if !ok {
		return Event{}, ErrNotFound
	}
	return e, nil
}

// ListByProject returns a project's events, newest first.
func (r *MemoryEventsRepo) ListByProject(ctx context.Context, projectID string, limit, offset int) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Event
	for _, e := range r.data {
		if e.ProjectID == projectID {
			out = append(out, e)
		}
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

// Acknowledge marks an event as seen.
func (r *MemoryEventsRepo) Acknowledge(ctx context.Context, id string) (Event, error) {
	if err := ctx.Err(); err != nil {
		return Event{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.data[id]
	if !ok {
		return Event{}, ErrNotFound
	}
	e.Acknowledged = true
	r.data[id] = e
	return e, nil
}

var _ EventsRepo = (*MemoryEventsRepo)(nil)
