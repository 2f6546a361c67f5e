package prompts

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marcalaing/gpt-rank-sub000/internal/orgs"
	"github.com/marcalaing/gpt-rank-sub000/internal/projects"
	"github.com/marcalaing/gpt-rank-sub000/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the prompts service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches prompt CRUD routes to the router group. The
// on-demand run route lives with the runs handler.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/projects/:id/prompts", h.createPrompt)
	rg.GET("/projects/:id/prompts", h.listPrompts)
	rg.GET("/prompts/:id", h.getPrompt)
	rg.PATCH("/prompts/:id", h.updatePrompt)
	rg.DELETE("/prompts/:id", h.deletePrompt)
}

type createPromptRequest struct {
	Text            string   `json:"text" binding:"required"`
	Tags            []string `json:"tags"`
	ScheduleEnabled bool     `json:"scheduleEnabled"`
	ScheduleCadence string   `json:"scheduleCadence"`
}

func (h *Handler) createPrompt(c *gin.Context) {
	var req createPromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "text is required", nil)
		return
	}

	p, err := h.Svc.Create(c.Request.Context(), c.Param("id"), CreateInput{
		Text:            req.Text,
		Tags:            req.Tags,
		ScheduleEnabled: req.ScheduleEnabled,
		ScheduleCadence: Cadence(req.ScheduleCadence),
	})
	if err != nil {
		switch {
		case errors.Is(err, projects.ErrNotFound), errors.Is(err, orgs.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "project not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid prompt fields", nil)
		case errors.Is(err, ErrPromptLimit):
			respond.Error(c, http.StatusTooManyRequests, "limit_reached", "Your plan does not allow more prompts in this project. Upgrade to continue.", []map[string]string{
				{"field": "prompts", "issue": "limit_reached"},
			})
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create prompt", nil)
		}
		return
	}

	c.Set("promptId", p.ID)
	respond.Created(c, promptResponse(p))
}

func (h *Handler) getPrompt(c *gin.Context) {
	p, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "prompt not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch prompt", nil)
		}
		return
	}
	respond.OK(c, promptResponse(p))
}

type updatePromptRequest struct {
	Text            *string   `json:"text"`
	Tags            *[]string `json:"tags"`
	IsActive        *bool     `json:"isActive"`
	ScheduleEnabled *bool     `json:"scheduleEnabled"`
	ScheduleCadence *string   `json:"scheduleCadence"`
}

func (h *Handler) updatePrompt(c *gin.Context) {
	var req updatePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	upd := Update{
		Text:            req.Text,
		Tags:            req.Tags,
		IsActive:        req.IsActive,
		ScheduleEnabled: req.ScheduleEnabled,
	}
	if req.ScheduleCadence != nil {
		cadence := Cadence(*req.ScheduleCadence)
		upd.ScheduleCadence = &cadence
	}

	p, err := h.Svc.Update(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "prompt not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid prompt fields", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update prompt", nil)
		}
		return
	}
	respond.OK(c, promptResponse(p))
}

func (h *Handler) deletePrompt(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "prompt not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete prompt", nil)
		}
		return
	}
	respond.OK(c, gin.H{"deleted": true})
}

func (h *Handler) listPrompts(c *gin.Context) {
	list, err := h.Svc.ListByProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list prompts", nil)
		return
	}

	out := make([]gin.H, 0, len(list))
	for _, p := range list {
		out = append(out, promptResponse(p))
	}
	respond.OK(c, gin.H{"prompts": out})
}

func promptResponse(p Prompt) gin.H {
	return gin.H{
		"id":              p.ID,
		"projectId":       p.ProjectID,
		"text":            p.Text,
		"tags":            p.Tags,
		"isActive":        p.IsActive,
		"scheduleEnabled": p.ScheduleEnabled,
		"scheduleCadence": p.ScheduleCadence,
		"lastRunAt":       p.LastRunAt,
		"nextRunAt":       p.NextRunAt,
		"createdAt":       p.CreatedAt,
		"updatedAt":       p.UpdatedAt,
	}
}
