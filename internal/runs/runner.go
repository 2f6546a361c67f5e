package runs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marcalaing/gpt-rank-sub000/internal/brands"
	"github.com/marcalaing/gpt-rank-sub000/internal/extraction"
	"github.com/marcalaing/gpt-rank-sub000/internal/orgs"
	"github.com/marcalaing/gpt-rank-sub000/internal/projects"
	"github.com/marcalaing/gpt-rank-sub000/internal/prompts"
	"github.com/marcalaing/gpt-rank-sub000/internal/provider"
	"github.com/marcalaing/gpt-rank-sub000/internal/scoring"
	"github.com/marcalaing/gpt-rank-sub000/internal/shared/metrics"
	"github.com/marcalaing/gpt-rank-sub000/internal/shared/storage/object"
	"github.com/marcalaing/gpt-rank-sub000/internal/shared/telemetry"
	"github.com/marcalaing/gpt-rank-sub000/internal/tiers"
	"github.com/marcalaing/gpt-rank-sub000/internal/usage"
)

// Failure classes recorded in run metadata.
const (
	FailureTimeout     = "timeout"
	FailureRateLimited = "rate_limited"
	FailureAuth        = "auth"
	FailureProvider    = "provider_error"
)

const maxErrorLen = 500

// Result is the outcome of one run attempt. LimitExceeded means the
// organization's monthly run quota blocked the attempt before a run row was
// created; Error carries the sanitized failure message when Success is false.
type Result struct {
	Success       bool
	LimitExceeded bool
	Run           *PromptRun
	Error         string
}

// Runner executes one prompt against one provider and persists everything
// observable about the attempt. A run row is written before the provider
// call; every failure after that point lands on the row instead of being
// returned as a Go error. Callers own the follow-up side effects (project
// spend, audit trail, alert evaluation).
type Runner struct {
	Prompts     prompts.Repo
	Projects    projects.Repo
	Orgs        orgs.Repo
	Brands      brands.Repo
	Competitors brands.CompetitorsRepo
	Repo        Repo
	Citations   CitationsRepo
	Scores      scoring.Repo
	Usage       *usage.Service
	Tiers       *tiers.Registry
	Providers   *provider.Registry
	Extractor   *extraction.Engine

	// Archive receives the full provider payload per run when set.
	Archive       object.Store
	ArchivePrefix string

	Locale string
	Now    func() time.Time
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// RunPromptOnce executes the prompt against the named provider. A non-nil
// error is only returned for failures before a run row exists: unknown
// prompt/project/organization, an unknown provider name, or a storage error
// during setup. Quota exhaustion returns LimitExceeded with no row.
func (r *Runner) RunPromptOnce(ctx context.Context, promptID, providerName, model string) (*Result, error) {
	prompt, err := r.Prompts.GetByID(ctx, promptID)
	if err != nil {
		return nil, fmt.Errorf("load prompt: %w", err)
	}
	project, err := r.Projects.GetByID(ctx, prompt.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	org, err := r.Orgs.GetByID(ctx, project.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("load organization: %w", err)
	}
	adapter, err := r.Providers.ForName(providerName)
	if err != nil {
		return nil, err
	}

	limits := r.Tiers.LimitsFor(org.SubscriptionTier)
	allowed, used, err := r.Usage.CanRun(ctx, org.ID, limits.RunsPerMonth)
	if err != nil {
		return nil, fmt.Errorf("usage check: %w", err)
	}
	if !allowed {
		telemetry.Info("runs.limit_exceeded", map[string]any{
			"organizationId": org.ID,
			"tier":           org.SubscriptionTier,
			"runsUsed":       used.Used,
			"runsPerMonth":   limits.RunsPerMonth,
		})
		return &Result{Success: false, LimitExceeded: true}, nil
	}

	run := PromptRun{
		ID:             uuid.NewString(),
		PromptID:       prompt.ID,
		ProjectID:      project.ID,
		OrganizationID: org.ID,
		Provider:       adapter.Name(),
		Model:          model,
		Status:         StatusStarted,
		CreatedAt:      r.now().UTC(),
	}
	if err := r.Repo.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	metrics.IncRunStarted()

	// Count the attempt against the monthly quota as soon as the row
	// exists. A counting failure is logged, not fatal: losing one tick of
	// quota accounting beats losing the run.
	if _, err := r.Usage.RecordRun(ctx, org.ID); err != nil {
		telemetry.Warn("runs.usage_record_failed", map[string]any{
			"runId": run.ID,
			"error": err.Error(),
		})
	}

	pctx := provider.Context{Locale: r.Locale}
	var brandTerms []string
	var brandDomain, brandID string
	hasBrand := false
	brand, err := r.Brands.GetPrimaryForProject(ctx, project.ID)
	switch {
	case err == nil:
		hasBrand = true
		brandID = brand.ID
		brandDomain = brand.Domain
		brandTerms = brand.Terms()
		pctx.BrandNames = brandTerms
	case errors.Is(err, brands.ErrNotFound):
		// No brand registered yet; the run still executes and extracts.
	default:
		return r.fail(ctx, run, fmt.Errorf("load brand: %w", err))
	}

	comps, err := r.Competitors.ListByProject(ctx, project.ID)
	if err != nil {
		return r.fail(ctx, run, fmt.Errorf("load competitors: %w", err))
	}
	compTerms := make([]extraction.CompetitorTerms, 0, len(comps))
	for _, comp := range comps {
		compTerms = append(compTerms, extraction.CompetitorTerms{
			ID:    comp.ID,
			Name:  comp.Name,
			Terms: comp.Terms(),
		})
		pctx.CompetitorNames = append(pctx.CompetitorNames, comp.Name)
	}

	answer, err := adapter.RunPrompt(ctx, prompt.Text, pctx, model)
	if err != nil {
		return r.fail(ctx, run, fmt.Errorf("provider call: %w", err))
	}
	metrics.ObserveProviderDurationMs(adapter.Name(), float64(answer.Duration.Milliseconds()))

	sig := r.Extractor.Extract(ctx, extraction.Input{
		RawText:     answer.RawText,
		BrandTerms:  brandTerms,
		Competitors: compTerms,
	})

	archiveKey := r.archiveAnswer(ctx, run, answer)

	finished := r.now().UTC()
	raw := answer.RawText
	run.Status = StatusCompleted
	run.RawResponse = &raw
	run.Signals = &sig
	run.Cost = answer.CostEstimate
	run.CompletedAt = &finished
	if answer.Model != "" {
		run.Model = answer.Model
	}
	run.Metadata = Metadata{
		DurationMs: answer.Duration.Milliseconds(),
		ArchiveKey: archiveKey,
	}
	if answer.Usage != nil {
		run.Metadata.PromptTokens = answer.Usage.PromptTokens
		run.Metadata.CompletionTokens = answer.Usage.CompletionTokens
		run.Metadata.TotalTokens = answer.Usage.TotalTokens
	}
	if err := r.Repo.Finish(ctx, run); err != nil {
		return r.fail(ctx, run, fmt.Errorf("persist run: %w", err))
	}

	if len(answer.Citations) > 0 {
		cites := buildCitations(run.ID, finished, answer.Citations, brandDomain)
		if err := r.Citations.CreateBatch(ctx, cites); err != nil {
			return r.fail(ctx, run, fmt.Errorf("persist citations: %w", err))
		}
	}

	if hasBrand {
		breakdown := scoring.Calculate(sig, brandDomain)
		score := scoring.Score{
			ID:             uuid.NewString(),
			RunID:          run.ID,
			BrandID:        brandID,
			ProjectID:      project.ID,
			Provider:       run.Provider,
			Score:          breakdown.Score,
			MentionCount:   breakdown.MentionCount,
			Sentiment:      breakdown.Sentiment,
			SentimentBonus: breakdown.SentimentBonus,
			CitationBonus:  breakdown.CitationBonus,
			CreatedAt:      finished,
		}
		if err := r.Scores.Create(ctx, score); err != nil {
			return r.fail(ctx, run, fmt.Errorf("persist score: %w", err))
		}
	}

	metrics.IncRunCompleted()
	telemetry.Info("runs.completed", map[string]any{
		"runId":    run.ID,
		"promptId": run.PromptID,
		"provider": run.Provider,
		"model":    run.Model,
		"cost":     run.Cost,
	})
	return &Result{Success: true, Run: &run}, nil
}

// fail writes the terminal failed state onto the already-created run row.
// Fields the run accumulated before the failure (raw response, signals) are
// kept so a partially-processed answer stays inspectable.
func (r *Runner) fail(ctx context.Context, run PromptRun, cause error) (*Result, error) {
	msg := sanitizeError(cause)
	finished := r.now().UTC()
	run.Status = StatusFailed
	run.CompletedAt = &finished
	run.Metadata.Error = msg
	run.Metadata.FailureClass = ClassifyFailure(cause)

	if err := r.Repo.Finish(ctx, run); err != nil {
		telemetry.Error("runs.persist_failure_state", map[string]any{
			"runId": run.ID,
			"error": err.Error(),
		})
	}
	metrics.IncRunFailed()
	telemetry.Warn("runs.failed", map[string]any{
		"runId":    run.ID,
		"promptId": run.PromptID,
		"provider": run.Provider,
		"class":    run.Metadata.FailureClass,
		"error":    msg,
	})
	return &Result{Success: false, Run: &run, Error: msg}, nil
}

func (r *Runner) archiveAnswer(ctx context.Context, run PromptRun, answer *provider.Answer) string {
	if r.Archive == nil {
		return ""
	}
	doc := map[string]any{
		"runId":        run.ID,
		"promptId":     run.PromptID,
		"provider":     run.Provider,
		"model":        answer.Model,
		"rawText":      answer.RawText,
		"citations":    answer.Citations,
		"usage":        answer.Usage,
		"costEstimate": answer.CostEstimate,
		"durationMs":   answer.Duration.Milliseconds(),
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		telemetry.Warn("runs.archive_failed", map[string]any{"runId": run.ID, "error": err.Error()})
		return ""
	}
	prefix := r.ArchivePrefix
	if prefix == "" {
		prefix = "runs"
	}
	key := path.Join(prefix, run.ID+".json")
	if _, err := r.Archive.Save(ctx, key, "application/json", bytes.NewReader(payload)); err != nil {
		telemetry.Warn("runs.archive_failed", map[string]any{"runId": run.ID, "error": err.Error()})
		return ""
	}
	return key
}

func buildCitations(runID string, now time.Time, list []provider.Citation, brandDomain string) []Citation {
	out := make([]Citation, 0, len(list))
	for i, c := range list {
		domain, _ := extraction.DomainOf(c.URL)
		out = append(out, Citation{
			ID:        uuid.NewString(),
			RunID:     runID,
			URL:       c.URL,
			Title:     c.Title,
			Snippet:   c.Snippet,
			Domain:    domain,
			Position:  i,
			IsPrimary: IsPrimarySource(domain, brandDomain),
			CreatedAt: now,
		})
	}
	return out
}

// ClassifyFailure buckets an error for run metadata and metrics.
func ClassifyFailure(err error) string {
	var apiErr *provider.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429:
			return FailureRateLimited
		case apiErr.StatusCode == 401 || apiErr.StatusCode == 403:
			return FailureAuth
		default:
			return FailureProvider
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}
	return FailureProvider
}

// sanitizeError flattens an error message to a single bounded line before it
// is persisted or logged.
func sanitizeError(err error) string {
	msg := strings.Join(strings.Fields(err.Error()), " ")
	if len(msg) > maxErrorLen {
		msg = msg[:maxErrorLen]
	}
	return msg
}
