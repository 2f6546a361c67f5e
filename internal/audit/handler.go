package audit

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/marcalaing/gpt-rank-sub000/internal/shared/server/respond"
)

// Handler exposes the audit trail read surface.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches audit routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/projects/:id/audit", h.listByProject)
	rg.GET("/orgs/:id/audit", h.listByOrg)
}

func (h *Handler) listByProject(c *gin.Context) {
	limit, offset := pagination(c)
	list, err := h.Svc.ListByProject(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list audit entries", nil)
		return
	}
	respond.OK(c, gin.H{"entries": entryResponses(list)})
}

func (h *Handler) listByOrg(c *gin.Context) {
	limit, offset := pagination(c)
	list, err := h.Svc.ListByOrg(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list audit entries", nil)
		return
	}
	respond.OK(c, gin.H{"entries": entryResponses(list)})
}

func entryResponses(list []Entry) []gin.H {
	out := make([]gin.H, 0, len(list))
	for _, e := range list {
		out = append(out, gin.H{
			"id":             e.ID,
			"organizationId": e.OrganizationID,
			"projectId":      e.ProjectID,
			"actor":          e.Actor,
			"action":         e.Action,
			"message":        e.Message,
			"metadata":       e.Metadata,
			"createdAt":      e.CreatedAt,
		})
	}
	return out
}

func pagination(c *gin.Context) (int, int) {
	limit := 50
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
