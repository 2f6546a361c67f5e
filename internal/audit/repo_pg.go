package audit

import (
	"context"
	"database/sql"
	"encoding/json"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const entryColumns = `id, organization_id, project_id, actor, action, message, metadata, created_at`

// Create inserts a new entry.
func (r *PGRepo) Create(ctx context.Context, e Entry) error {
	const query = `
INSERT INTO audit_entries (id, organization_id, project_id, actor, action, message, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	metadata, err := marshalMetadata(e.Metadata)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		e.ID,
		e.OrganizationID,
		nullableID(e.ProjectID),
		e.Actor,
		e.Action,
		e.Message,
		metadata,
		e.CreatedAt,
	)
	return err
}

// ListByProject returns a project's entries, newest first.
func (r *PGRepo) ListByProject(ctx context.Context, projectID string, limit, offset int) ([]Entry, error) {
	const query = `
SELECT ` + entryColumns + `
FROM audit_entries
WHERE project_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	return r.queryEntries(ctx, query, projectID, limit, offset)
}

// ListByOrg returns an organization's entries, newest first.
func (r *PGRepo) ListByOrg(ctx context.Context, orgID string, limit, offset int) ([]Entry, error) {
	const query = `
SELECT ` + entryColumns + `
FROM audit_entries
WHERE organization_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	return r.queryEntries(ctx, query, orgID, limit, offset)
}

func (r *PGRepo) queryEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var projectID sql.NullString
		var metadata []byte
		if err := rows.Scan(
			&e.ID,
			&e.OrganizationID,
			&projectID,
			&e.Actor,
			&e.Action,
			&e.Message,
			&metadata,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		e.ProjectID = projectID.String
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, err
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)

func marshalMetadata(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func nullableID(id string) any {
	if id == "" {
		return nil
	}
	return id
}
