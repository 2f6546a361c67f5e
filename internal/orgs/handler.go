package orgs

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/marcalaing/gpt-rank-sub000/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the orgs service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches organization routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/orgs", h.createOrg)
	rg.GET("/orgs", h.listOrgs)
	rg.GET("/orgs/:id", h.getOrg)
	rg.PATCH("/orgs/:id", h.updateOrg)
}

type createOrgRequest struct {
	Name string `json:"name" binding:"required"`
	Tier string `json:"tier"`
}

func (h *Handler) createOrg(c *gin.Context) {
	var req createOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "name is required", nil)
		return
	}

	org, err := h.Svc.Create(c.Request.Context(), req.Name, req.Tier)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "name is required", nil)
		case errors.Is(err, ErrUnknownTier):
			respond.Error(c, http.StatusBadRequest, "validation_error", "unknown subscription tier", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create organization", nil)
		}
		return
	}

	c.Set("orgId", org.ID)
	respond.Created(c, orgResponse(org))
}

func (h *Handler) getOrg(c *gin.Context) {
	org, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "organization not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch organization", nil)
		}
		return
	}
	respond.OK(c, orgResponse(org))
}

type updateOrgRequest struct {
	Name *string `json:"name"`
	Tier *string `json:"tier"`
}

func (h *Handler) updateOrg(c *gin.Context) {
	var req updateOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	org, err := h.Svc.Update(c.Request.Context(), c.Param("id"), req.Name, req.Tier)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "organization not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "name must not be empty", nil)
		case errors.Is(err, ErrUnknownTier):
			respond.Error(c, http.StatusBadRequest, "validation_error", "unknown subscription tier", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update organization", nil)
		}
		return
	}
	respond.OK(c, orgResponse(org))
}

func (h *Handler) listOrgs(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 50)
	offset := parseIntQuery(c, "offset", 0)

	list, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list organizations", nil)
		return
	}

	out := make([]gin.H, 0, len(list))
	for _, org := range list {
		out = append(out, orgResponse(org))
	}
	respond.OK(c, gin.H{"organizations": out})
}

func orgResponse(org Organization) gin.H {
	return gin.H{
		"id":        org.ID,
		"name":      org.Name,
		"tier":      org.SubscriptionTier,
		"createdAt": org.CreatedAt,
		"updatedAt": org.UpdatedAt,
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
