package alerts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// PGRulesRepo implements RulesRepo using Postgres.
type PGRulesRepo struct {
	DB *sql.DB
}

const ruleColumns = `id, project_id, type, threshold, is_active, created_at, updated_at`

// Create inserts a new rule.
func (r *PGRulesRepo) Create(ctx context.Context, rule Rule) error {
	const query = `
INSERT INTO alert_rules (id, project_id, type, threshold, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.DB.ExecContext(ctx, query,
		rule.ID,
		rule.ProjectID,
		rule.Type,
		rule.Threshold,
		rule.IsActive,
		rule.CreatedAt,
		rule.UpdatedAt,
	)
	return err
}

// GetByID returns a rule by ID.
func (r *PGRulesRepo) GetByID(ctx context.Context, id string) (Rule, error) {
	const query = `
SELECT ` + ruleColumns + `
FROM alert_rules
WHERE id = $1`
	return scanRule(r.DB.QueryRowContext(ctx, query, id))
}

// ListByProject returns a project's rules, oldest first.
func (r *PGRulesRepo) ListByProject(ctx context.Context, projectID string) ([]Rule, error) {
	const query = `
SELECT ` + ruleColumns + `
FROM alert_rules
WHERE project_id = $1
ORDER BY created_at ASC`
	return r.queryRules(ctx, query, projectID)
}

// ListActiveByProject returns a project's active rules, oldest first.
func (r *PGRulesRepo) ListActiveByProject(ctx context.Context, projectID string) ([]Rule, error) {
	const query = `
SELECT ` + ruleColumns + `
FROM alert_rules
WHERE project_id = $1 AND is_active = TRUE
ORDER BY created_at ASC`
	return r.queryRules(ctx, query, projectID)
}

// Update applies partial updates to a rule.
func (r *PGRulesRepo) Update(ctx context.Context, id string, upd RuleUpdate) (Rule, error) {
	const query = `
UPDATE alert_rules
SET threshold = COALESCE($2, threshold),
    is_active = COALESCE($3, is_active),
    updated_at = $4
WHERE id = $1
RETURNING ` + ruleColumns
	return scanRule(r.DB.QueryRowContext(ctx, query,
		id,
		nullableFloat(upd.Threshold),
		nullableBool(upd.IsActive),
		time.Now().UTC(),
	))
}

// Delete removes a rule.
func (r *PGRulesRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM alert_rules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRulesRepo) queryRules(ctx context.Context, query string, args ...any) ([]Rule, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func scanRule(row rowScanner) (Rule, error) {
	var rule Rule
	err := row.Scan(
		&rule.ID,
		&rule.ProjectID,
		&rule.Type,
		&rule.Threshold,
		&rule.IsActive,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Rule{}, ErrNotFound
	}
	if err != nil {
		return Rule{}, err
	}
	return rule, nil
}

var _ RulesRepo = (*PGRulesRepo)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func nullableFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullableBool(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}

// PGEventsRepo implements EventsRepo using Postgres.
type PGEventsRepo struct {
	DB *sql.DB
}

const eventColumns = `id, rule_id, run_id, project_id, type, message, metadata, acknowledged, created_at`

// Create inserts a new event.
func (r *PGEventsRepo) Create(ctx context.Context, e Event) error {
	const query = `
INSERT INTO alert_events (id, rule_id, run_id, project_id, type, message, metadata, acknowledged, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	metadata, err := marshalMetadata(e.Metadata)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		e.ID,
		e.RuleID,
		e.RunID,
		e.ProjectID,
		e.Type,
		e.Message,
		metadata,
		e.Acknowledged,
		e.CreatedAt,
	)
	return err
}

// GetByID returns an event by ID.
func (r *PGEventsRepo) GetByID(ctx context.Context, id string) (Event, error) {
	const query = `
SELECT ` + eventColumns + `
FROM alert_events
WHERE id = $1`
	return scanEvent(r.DB.QueryRowContext(ctx, query, id))
}

// ListByProject returns a project's events, newest first.
func (r *PGEventsRepo) ListByProject(ctx context.Context, projectID string, limit, offset int) ([]Event, error) {
	const query = `
SELECT ` + eventColumns + `
FROM alert_events
WHERE project_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, projectID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Acknowledge marks an event as seen.
func (r *PGEventsRepo) Acknowledge(ctx context.Context, id string) (Event, error) {
	const query = `
UPDATE alert_events
SET acknowledged = TRUE
WHERE id = $1
RETURNING ` + eventColumns
	return scanEvent(r.DB.QueryRowContext(ctx, query, id))
}

func scanEvent(row rowScanner) (Event, error) {
	var e Event
	var metadata []byte
	err := row.Scan(
		&e.ID,
		&e.RuleID,
		&e.RunID,
		&e.ProjectID,
		&e.Type,
		&e.Message,
		&metadata,
		&e.Acknowledged,
		&e.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Event{}, ErrNotFound
	}
	if err != nil {
		return Event{}, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
			return Event{}, err
		}
	}
	return e, nil
}

func marshalMetadata(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

var _ EventsRepo = (*PGEventsRepo)(nil)
