package alerts

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/marcalaing/gpt-rank-sub000/internal/projects"
	"github.com/marcalaing/gpt-rank-sub000/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the alerts service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches alert rule and event routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/projects/:id/alert-rules", h.createRule)
	rg.GET("/projects/:id/alert-rules", h.listRules)
	rg.PATCH("/alert-rules/:id", h.updateRule)
	rg.DELETE("/alert-rules/:id", h.deleteRule)
	rg.GET("/projects/:id/alert-events", h.listEvents)
	rg.POST("/alert-events/:id/ack", h.acknowledgeEvent)
}

type createRuleRequest struct {
	Type      string   `json:"type" binding:"required"`
	Threshold *float64 `json:"threshold"`
}

func (h *Handler) createRule(c *gin.Context) {
	var req createRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "type is required", nil)
		return
	}

	rule, err := h.Svc.CreateRule(c.Request.Context(), c.Param("id"), req.Type, req.Threshold)
	if err != nil {
		switch {
		case errors.Is(err, projects.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "project not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid rule fields", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create rule", nil)
		}
		return
	}
	respond.Created(c, ruleResponse(rule))
}

func (h *Handler) listRules(c *gin.Context) {
	list, err := h.Svc.ListRules(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list rules", nil)
		return
	}
	out := make([]gin.H, 0, len(list))
	for _, rule := range list {
		out = append(out, ruleResponse(rule))
	}
	respond.OK(c, gin.H{"rules": out})
}

type updateRuleRequest struct {
	Threshold *float64 `json:"threshold"`
	IsActive  *bool    `json:"isActive"`
}

func (h *Handler) updateRule(c *gin.Context) {
	var req updateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	rule, err := h.Svc.UpdateRule(c.Request.Context(), c.Param("id"), RuleUpdate{
		Threshold: req.Threshold,
		IsActive:  req.IsActive,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "rule not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "threshold must be positive", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update rule", nil)
		}
		return
	}
	respond.OK(c, ruleResponse(rule))
}

func (h *Handler) deleteRule(c *gin.Context) {
	if err := h.Svc.DeleteRule(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "rule not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete rule", nil)
		return
	}
	respond.OK(c, gin.H{"deleted": true})
}

func (h *Handler) listEvents(c *gin.Context) {
	limit, offset := pagination(c)
	list, err := h.Svc.ListEvents(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list events", nil)
		return
	}
	out := make([]gin.H, 0, len(list))
	for _, e := range list {
		out = append(out, eventResponse(e))
	}
	respond.OK(c, gin.H{"events": out})
}

func (h *Handler) acknowledgeEvent(c *gin.Context) {
	e, err := h.Svc.AcknowledgeEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "event not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to acknowledge event", nil)
		return
	}
	respond.OK(c, eventResponse(e))
}

func ruleResponse(r Rule) gin.H {
	return gin.H{
		"id":        r.ID,
		"projectId": r.ProjectID,
		"type":      r.Type,
		"threshold": r.Threshold,
		"isActive":  r.IsActive,
		"createdAt": r.CreatedAt,
		"updatedAt": r.UpdatedAt,
	}
}

func eventResponse(e Event) gin.H {
	return gin.H{
		"id":           e.ID,
		"ruleId":       e.RuleID,
		"runId":        e.RunID,
		"projectId":    e.ProjectID,
		"type":         e.Type,
		"message":      e.Message,
		"metadata":     e.Metadata,
		"acknowledged": e.Acknowledged,
		"createdAt":    e.CreatedAt,
	}
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
