package jobs

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marcalaing/gpt-rank-sub000/internal/shared/server/respond"
)

// Handler exposes job inspection routes and the cron tick.
type Handler struct {
	Scheduler *Scheduler
	Repo      Repo
}

// RegisterRoutes attaches job inspection routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/jobs", h.listJobs)
	rg.GET("/jobs/:id", h.getJob)
}

// RegisterCron attaches the tick route to the cron-guarded group.
func (h *Handler) RegisterCron(rg *gin.RouterGroup) {
	rg.POST("/tick", h.tick)
}

func (h *Handler) tick(c *gin.Context) {
	stats, err := h.Scheduler.Tick(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Scheduler tick failed", stats)
		return
	}
	respond.OK(c, stats)
}

func (h *Handler) listJobs(c *gin.Context) {
	status := Status(c.Query("status"))
	if status != "" && !status.Valid() {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown job status", nil)
		return
	}
	limit, offset := pagination(c)
	list, err := h.Repo.List(c.Request.Context(), status, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list jobs", nil)
		return
	}
	out := make([]gin.H, 0, len(list))
	for _, j := range list {
		out = append(out, jobResponse(j))
	}
	respond.OK(c, gin.H{"jobs": out})
}

func (h *Handler) getJob(c *gin.Context) {
	j, err := h.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load job", nil)
		return
	}
	respond.OK(c, jobResponse(j))
}

func jobResponse(j Job) gin.H {
	var lockedAt any
	if j.LockedAt != nil {
		lockedAt = j.LockedAt.UTC().Format(time.RFC3339Nano)
	}
	return gin.H{
		"id":             j.ID,
		"type":           j.Type,
		"payload":        j.Payload,
		"status":         j.Status,
		"attempts":       j.Attempts,
		"maxAttempts":    j.MaxAttempts,
		"scheduledFor":   j.ScheduledFor,
		"lockedAt":       lockedAt,
		"lockedBy":       j.LockedBy,
		"error":          j.Error,
		"projectId":      j.ProjectID,
		"organizationId": j.OrganizationID,
		"createdAt":      j.CreatedAt,
		"updatedAt":      j.UpdatedAt,
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
