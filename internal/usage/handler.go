package usage

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marcalaing/gpt-rank-sub000/internal/orgs"
	"github.com/marcalaing/gpt-rank-sub000/internal/shared/server/respond"
	"github.com/marcalaing/gpt-rank-sub000/internal/tiers"
)

// Handler exposes usage endpoints.
type Handler struct {
	Svc   *Service
	Orgs  orgs.Repo
	Tiers *tiers.Registry
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, orgRepo orgs.Repo, registry *tiers.Registry) *Handler {
	return &Handler{Svc: svc, Orgs: orgRepo, Tiers: registry}
}

// RegisterRoutes attaches usage routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/orgs/:id/usage", h.getUsage)
}

func (h *Handler) getUsage(c *gin.Context) {
	orgID := c.Param("id")

	org, err := h.Orgs.GetByID(c.Request.Context(), orgID)
	if err != nil {
		switch {
		case errors.Is(err, orgs.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "organization not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch organization", nil)
		}
		return
	}

	u, err := h.Svc.Get(c.Request.Context(), orgID)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch usage", nil)
		}
		return
	}

	limits := h.Tiers.LimitsFor(org.SubscriptionTier)
	respond.OK(c, gin.H{
		"tier":         org.SubscriptionTier,
		"period":       u.Period,
		"runsUsed":     u.Used,
		"runsPerMonth": limits.RunsPerMonth,
	})
}
