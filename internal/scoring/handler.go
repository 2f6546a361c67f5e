package scoring

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/marcalaing/gpt-rank-sub000/internal/shared/server/respond"
)

// Handler exposes the score read surface.
type Handler struct {
	Repo Repo
}

// NewHandler constructs a Handler.
func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes attaches score routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/projects/:id/scores", h.listByProject)
	rg.GET("/brands/:id/scores", h.listByBrand)
	rg.GET("/runs/:id/score", h.getByRun)
}

func (h *Handler) listByProject(c *gin.Context) {
	limit, offset := pagination(c)
	list, err := h.Repo.ListByProject(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list scores", nil)
		return
	}
	respond.OK(c, gin.H{"scores": scoreResponses(list)})
}

func (h *Handler) listByBrand(c *gin.Context) {
	limit, offset := pagination(c)
	list, err := h.Repo.ListByBrand(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list scores", nil)
		return
	}
	respond.OK(c, gin.H{"scores": scoreResponses(list)})
}

func (h *Handler) getByRun(c *gin.Context) {
	s, err := h.Repo.GetByRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "score not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch score", nil)
		}
		return
	}
	respond.OK(c, scoreResponse(s))
}

func scoreResponses(list []Score) []gin.H {
	out := make([]gin.H, 0, len(list))
	for _, s := range list {
		out = append(out, scoreResponse(s))
	}
	return out
}

func scoreResponse(s Score) gin.H {
	mentionScore := s.MentionCount * 20
	if mentionScore > 60 {
		mentionScore = 60
	}
	return gin.H{
		"id":             s.ID,
		"runId":          s.RunID,
		"brandId":        s.BrandID,
		"projectId":      s.ProjectID,
		"provider":       s.Provider,
		"score":          s.Score,
		"mentionCount":   s.MentionCount,
		"mentionScore":   mentionScore,
		"sentiment":      s.Sentiment,
		"sentimentBonus": s.SentimentBonus,
		"citationBonus":  s.CitationBonus,
		"createdAt":      s.CreatedAt,
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
