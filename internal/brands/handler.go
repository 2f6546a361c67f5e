package brands

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marcalaing/gpt-rank-sub000/internal/projects"
	"github.com/marcalaing/gpt-rank-sub000/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the brands service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches brand and competitor routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/projects/:id/brands", h.createBrand)
	rg.GET("/projects/:id/brands", h.listBrands)
	rg.POST("/projects/:id/competitors", h.createCompetitor)
	rg.GET("/projects/:id/competitors", h.listCompetitors)
}

type createBrandRequest struct {
	Name     string   `json:"name" binding:"required"`
	Domain   string   `json:"domain"`
	Synonyms []string `json:"synonyms"`
}

func (h *Handler) createBrand(c *gin.Context) {
	var req createBrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "name is required", nil)
		return
	}

	b, err := h.Svc.CreateBrand(c.Request.Context(), c.Param("id"), req.Name, req.Domain, req.Synonyms)
	if err != nil {
		switch {
		case errors.Is(err, projects.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "project not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid brand fields", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create brand", nil)
		}
		return
	}
	respond.Created(c, brandResponse(b))
}

func (h *Handler) listBrands(c *gin.Context) {
	list, err := h.Svc.ListBrands(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list brands", nil)
		return
	}

	out := make([]gin.H, 0, len(list))
	for i, b := range list {
		resp := brandResponse(b)
		resp["isPrimary"] = i == 0
		out = append(out, resp)
	}
	respond.OK(c, gin.H{"brands": out})
}

type createCompetitorRequest struct {
	Name     string   `json:"name" binding:"required"`
	Synonyms []string `json:"synonyms"`
}

func (h *Handler) createCompetitor(c *gin.Context) {
	var req createCompetitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "name is required", nil)
		return
	}

	comp, err := h.Svc.CreateCompetitor(c.Request.Context(), c.Param("id"), req.Name, req.Synonyms)
	if err != nil {
		switch {
		case errors.Is(err, projects.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "project not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid competitor fields", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create competitor", nil)
		}
		return
	}
	respond.Created(c, competitorResponse(comp))
}

func (h *Handler) listCompetitors(c *gin.Context) {
	list, err := h.Svc.ListCompetitors(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list competitors", nil)
		return
	}

	out := make([]gin.H, 0, len(list))
	for _, comp := range list {
		out = append(out, competitorResponse(comp))
	}
	respond.OK(c, gin.H{"competitors": out})
}

func brandResponse(b Brand) gin.H {
	return gin.H{
		"id":        b.ID,
		"projectId": b.ProjectID,
		"name":      b.Name,
		"domain":    b.Domain,
		"synonyms":  b.Synonyms,
		"createdAt": b.CreatedAt,
		"updatedAt": b.UpdatedAt,
	}
}

func competitorResponse(c Competitor) gin.H {
	return gin.H{
		"id":        c.ID,
		"projectId": c.ProjectID,
		"name":      c.Name,
		"synonyms":  c.Synonyms,
		"createdAt": c.CreatedAt,
		"updatedAt": c.UpdatedAt,
	}
}
