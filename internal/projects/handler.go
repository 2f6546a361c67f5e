package projects

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/marcalaing/gpt-rank-sub000/internal/orgs"
	"github.com/marcalaing/gpt-rank-sub000/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the projects service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches project routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/orgs/:id/projects", h.createProject)
	rg.GET("/orgs/:id/projects", h.listProjects)
	rg.GET("/projects/:id", h.getProject)
	rg.PATCH("/projects/:id/budgets", h.updateBudgets)
}

type createProjectRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) createProject(c *gin.Context) {
	orgID := c.Param("id")
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "name is required", nil)
		return
	}

	p, err := h.Svc.Create(c.Request.Context(), orgID, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, orgs.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "organization not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "name is required", nil)
		case errors.Is(err, ErrProjectLimit):
			respond.Error(c, http.StatusTooManyRequests, "limit_reached", "Your plan does not allow more projects. Upgrade to continue.", []map[string]string{
				{"field": "projects", "issue": "limit_reached"},
			})
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create project", nil)
		}
		return
	}

	c.Set("projectId", p.ID)
	respond.Created(c, projectResponse(p))
}

func (h *Handler) getProject(c *gin.Context) {
	p, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "project not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch project", nil)
		}
		return
	}
	respond.OK(c, projectResponse(p))
}

type updateBudgetsRequest struct {
	MonthlyBudgetSoft *float64 `json:"monthlyBudgetSoft"`
	MonthlyBudgetHard *float64 `json:"monthlyBudgetHard"`
}

func (h *Handler) updateBudgets(c *gin.Context) {
	var req updateBudgetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	p, err := h.Svc.UpdateBudgets(c.Request.Context(), c.Param("id"), req.MonthlyBudgetSoft, req.MonthlyBudgetHard)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "project not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "budgets must not be negative", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update budgets", nil)
		}
		return
	}
	respond.OK(c, projectResponse(p))
}

func (h *Handler) listProjects(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 50)
	offset := parseIntQuery(c, "offset", 0)

	list, err := h.Svc.ListByOrg(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list projects", nil)
		return
	}

	out := make([]gin.H, 0, len(list))
	for _, p := range list {
		out = append(out, projectResponse(p))
	}
	respond.OK(c, gin.H{"projects": out})
}

func projectResponse(p Project) gin.H {
	return gin.H{
		"id":                p.ID,
		"organizationId":    p.OrganizationID,
		"name":              p.Name,
		"currentMonthUsage": p.CurrentMonthUsage,
		"monthlyBudgetSoft": p.MonthlyBudgetSoft,
		"monthlyBudgetHard": p.MonthlyBudgetHard,
		"createdAt":         p.CreatedAt,
		"updatedAt":         p.UpdatedAt,
	}
}

func parseIntQuery(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}
