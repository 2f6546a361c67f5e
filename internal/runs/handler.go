package runs

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/marcalaing/gpt-rank-sub000/internal/audit"
	"github.com/marcalaing/gpt-rank-sub000/internal/projects"
	"github.com/marcalaing/gpt-rank-sub000/internal/prompts"
	"github.com/marcalaing/gpt-rank-sub000/internal/provider"
	"github.com/marcalaing/gpt-rank-sub000/internal/shared/server/respond"
	"github.com/marcalaing/gpt-rank-sub000/internal/shared/telemetry"
)

// AlertSink receives completed runs for alert evaluation.
type AlertSink interface {
	EvaluateRun(ctx context.Context, run PromptRun)
}

// Handler wires HTTP handlers to the runner and run storage. The on-demand
// endpoint owns the caller-side effects of a run: the project hard-budget
// gate, spend accounting, the audit trail and alert evaluation.
type Handler struct {
	Runner    *Runner
	Repo      Repo
	Citations CitationsRepo
	Prompts   prompts.Repo
	Projects  *projects.Service
	Audit     *audit.Service
	Alerts    AlertSink

	DefaultProvider string
}

// RegisterRoutes attaches run routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/prompts/:id/run", h.runPrompt)
	rg.GET("/prompts/:id/runs", h.listByPrompt)
	rg.GET("/projects/:id/runs", h.listByProject)
	rg.GET("/runs/:id", h.getRun)
	rg.GET("/runs/:id/citations", h.listCitations)
}

type runRequest struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

func (h *Handler) runPrompt(c *gin.Context) {
	ctx := c.Request.Context()

	var req runRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}
	providerName := req.Provider
	if providerName == "" {
		providerName = h.DefaultProvider
	}

	prompt, err := h.Prompts.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, prompts.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "prompt not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load prompt", nil)
		return
	}
	project, err := h.Projects.Get(ctx, prompt.ProjectID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load project", nil)
		return
	}
	if project.OverHardBudget() {
		respond.Error(c, http.StatusPaymentRequired, "budget_exceeded", "project hard budget reached", gin.H{
			"currentMonthUsage": project.CurrentMonthUsage,
			"monthlyBudgetHard": project.MonthlyBudgetHard,
		})
		return
	}

	result, err := h.Runner.RunPromptOnce(ctx, prompt.ID, providerName, req.Model)
	if err != nil {
		switch {
		case errors.Is(err, provider.ErrUnsupportedProvider):
			respond.Error(c, http.StatusBadRequest, "validation_error", "unsupported provider", gin.H{"provider": providerName})
		case errors.Is(err, prompts.ErrNotFound), errors.Is(err, projects.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "prompt not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to run prompt", nil)
		}
		return
	}
	if result.LimitExceeded {
		respond.Error(c, http.StatusTooManyRequests, "limit_reached", "monthly run limit reached", nil)
		return
	}

	run := result.Run
	if result.Success {
		if run.Cost > 0 {
			if err := h.Projects.AddUsage(ctx, project.ID, run.Cost); err != nil {
				telemetry.Warn("runs.spend_record_failed", map[string]any{
					"runId": run.ID,
					"error": err.Error(),
				})
			}
		}
		h.Audit.Log(ctx, run.OrganizationID, run.ProjectID, "api", audit.ActionRunCompleted, "Prompt run completed", map[string]any{
			"runId":    run.ID,
			"promptId": run.PromptID,
			"provider": run.Provider,
			"model":    run.Model,
			"cost":     run.Cost,
		})
		if h.Alerts != nil {
			h.Alerts.EvaluateRun(ctx, *run)
		}
	} else {
		h.Audit.Log(ctx, run.OrganizationID, run.ProjectID, "api", audit.ActionRunFailed, "Prompt run failed", map[string]any{
			"runId":    run.ID,
			"promptId": run.PromptID,
			"provider": run.Provider,
			"error":    result.Error,
		})
	}

	body := gin.H{"success": result.Success, "run": runResponse(*run)}
	if result.Error != "" {
		body["error"] = result.Error
	}
	respond.OK(c, body)
}

func (h *Handler) getRun(c *gin.Context) {
	run, err := h.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "run not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load run", nil)
		return
	}
	respond.OK(c, runResponse(run))
}

func (h *Handler) listByPrompt(c *gin.Context) {
	limit, offset := pagination(c)
	list, err := h.Repo.ListByPrompt(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list runs", nil)
		return
	}
	respond.OK(c, gin.H{"runs": runResponses(list)})
}

func (h *Handler) listByProject(c *gin.Context) {
	limit, offset := pagination(c)
	list, err := h.Repo.ListByProject(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list runs", nil)
		return
	}
	respond.OK(c, gin.H{"runs": runResponses(list)})
}

func (h *Handler) listCitations(c *gin.Context) {
	list, err := h.Citations.ListByRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list citations", nil)
		return
	}
	out := make([]gin.H, 0, len(list))
	for _, cite := range list {
		out = append(out, gin.H{
			"id":        cite.ID,
			"runId":     cite.RunID,
			"url":       cite.URL,
			"title":     cite.Title,
			"snippet":   cite.Snippet,
			"domain":    cite.Domain,
			"position":  cite.Position,
			"isPrimary": cite.IsPrimary,
			"createdAt": cite.CreatedAt,
		})
	}
	respond.OK(c, gin.H{"citations": out})
}

func runResponses(list []PromptRun) []gin.H {
	out := make([]gin.H, 0, len(list))
	for _, run := range list {
		out = append(out, runResponse(run))
	}
	return out
}

func runResponse(run PromptRun) gin.H {
	return gin.H{
		"id":             run.ID,
		"promptId":       run.PromptID,
		"projectId":      run.ProjectID,
		"organizationId": run.OrganizationID,
		"provider":       run.Provider,
		"model":          run.Model,
		"status":         run.Status,
		"rawResponse":    run.RawResponse,
		"parsedMentions": run.Signals,
		"metadata":       run.Metadata,
		"cost":           run.Cost,
		"completedAt":    run.CompletedAt,
		"createdAt":      run.CreatedAt,
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
