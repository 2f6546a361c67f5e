package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/marcalaing/gpt-rank-sub000/internal/shared/telemetry"
)

// Service records audit entries. Logging never fails callers: a write
// error is reported to telemetry and swallowed, because the actions being
// audited must not be blocked by the audit trail itself.
type Service struct {
	Repo Repo
	Now  func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Log records an audit entry.
func (s *Service) Log(ctx context.Context, orgID, projectID, actor, action, message string, metadata map[string]any) {
	e := Entry{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		ProjectID:      projectID,
		Actor:          actor,
		Action:         action,
		Message:        message,
		Metadata:       metadata,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.Repo.Create(ctx, e); err != nil {
		telemetry.Error("audit.write_failed", map[string]any{
			"error":  err.Error(),
			"action": action,
			"org_id": orgID,
		})
	}
}

// ListByProject returns a project's entries, newest first.
func (s *Service) ListByProject(ctx context.Context, projectID string, limit, offset int) ([]Entry, error) {
	return s.Repo.ListByProject(ctx, projectID, limit, offset)
}

// ListByOrg returns an organization's entries, newest first.
func (s *Service) ListByOrg(ctx context.Context, orgID string, limit, offset int) ([]Entry, error) {
	return s.Repo.ListByOrg(ctx, orgID, limit, offset)
}
