package alerts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marcalaing/gpt-rank-sub000/internal/runs"
	"github.com/marcalaing/gpt-rank-sub000/internal/shared/metrics"
	"github.com/marcalaing/gpt-rank-sub000/internal/shared/telemetry"
)

const defaultWindow = 7 * 24 * time.Hour

// Evaluator checks a freshly completed run against the project's active
// alert rules. Rules are independent: one rule's failure is logged and the
// rest still evaluate. Evaluation is a side effect only; it never blocks or
// fails the run that triggered it.
type Evaluator struct {
	Rules  RulesRepo
	Events EventsRepo
	Runs   runs.Repo

	// Window is the trailing history span; zero means seven days.
	Window time.Duration
	Now    func() time.Time
}

func (e *Evaluator) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Evaluator) window() time.Duration {
	if e.Window > 0 {
		return e.Window
	}
	return defaultWindow
}

// EvaluateRun evaluates every active rule on the run's project.
func (e *Evaluator) EvaluateRun(ctx context.Context, run runs.PromptRun) {
	if run.Signals == nil {
		return
	}
	rules, err := e.Rules.ListActiveByProject(ctx, run.ProjectID)
	if err != nil {
		telemetry.Error("alerts.load_rules_failed", map[string]any{
			"projectId": run.ProjectID,
			"error":     err.Error(),
		})
		return
	}
	if len(rules) == 0 {
		return
	}

	since := e.now().Add(-e.window())
	history, err := e.Runs.ListCompletedForPromptSince(ctx, run.PromptID, since, run.ID)
	if err != nil {
		telemetry.Error("alerts.load_history_failed", map[string]any{
			"promptId": run.PromptID,
			"error":    err.Error(),
		})
		return
	}

	for _, rule := range rules {
		events, err := e.evaluateRule(rule, run, history)
		if err != nil {
			telemetry.Error("alerts.rule_failed", map[string]any{
				"ruleId": rule.ID,
				"type":   rule.Type,
				"error":  err.Error(),
			})
			continue
		}
		for _, event := range events {
			if err := e.Events.Create(ctx, event); err != nil {
				telemetry.Error("alerts.event_write_failed", map[string]any{
					"ruleId": rule.ID,
					"type":   rule.Type,
					"error":  err.Error(),
				})
				continue
			}
			metrics.IncAlertFired()
			telemetry.Info("alerts.fired", map[string]any{
				"ruleId":    rule.ID,
				"runId":     run.ID,
				"projectId": run.ProjectID,
				"type":      rule.Type,
				"message":   event.Message,
			})
		}
	}
}

func (e *Evaluator) evaluateRule(rule Rule, run runs.PromptRun, history []runs.PromptRun) ([]Event, error) {
	switch rule.Type {
	case TypeBrandMentionDrop:
		return e.brandMentionDrop(rule, run, history), nil
	case TypeCompetitorSpike:
		return e.competitorSpike(rule, run, history), nil
	case TypeNewDomainCited:
		return e.newDomainCited(rule, run, history), nil
	default:
		// Unknown types are CRUD-managed configuration with no evaluator.
		return nil, nil
	}
}

// brandMentionDrop fires when the run's brand mention count falls a
// threshold percentage below the trailing average. Needs at least three
// historical data points, and a non-zero average to divide by.
func (e *Evaluator) brandMentionDrop(rule Rule, run runs.PromptRun, history []runs.PromptRun) []Event {
	var counts []int
	for _, h := range history {
		if h.Signals != nil {
			counts = append(counts, h.Signals.BrandMentionCount)
		}
	}
	if len(counts) < 3 {
		return nil
	}
	avg := mean(counts)
	if avg <= 0 {
		return nil
	}

	current := run.Signals.BrandMentionCount
	drop := (avg - float64(current)) / avg * 100
	threshold := rule.Threshold
	if threshold <= 0 {
		threshold = DefaultDropThreshold
	}
	if drop < threshold {
		return nil
	}

	return []Event{e.newEvent(rule, run,
		fmt.Sprintf("Brand mentions dropped %.0f%% below the 7-day average (%.1f avg, %d current)", drop, avg, current),
		map[string]any{
			"currentCount":      current,
			"historicalAverage": avg,
			"dropPercent":       drop,
			"historyRuns":       len(counts),
		},
	)}
}

// competitorSpike fires per competitor whose count rose a threshold
// percentage above its own trailing average. Competitors without a
// historical data point are skipped.
func (e *Evaluator) competitorSpike(rule Rule, run runs.PromptRun, history []runs.PromptRun) []Event {
	past := make(map[string][]int)
	for _, h := range history {
		if h.Signals == nil {
			continue
		}
		for _, cm := range h.Signals.CompetitorMentions {
			past[cm.ID] = append(past[cm.ID], cm.Count)
		}
	}

	threshold := rule.Threshold
	if threshold <= 0 {
		threshold = DefaultSpikeThreshold
	}

	var out []Event
	for _, cm := range run.Signals.CompetitorMentions {
		points := past[cm.ID]
		if len(points) == 0 {
			continue
		}
		avg := mean(points)
		if avg <= 0 {
			continue
		}
		increase := (float64(cm.Count) - avg) / avg * 100
		if increase < threshold {
			continue
		}
		out = append(out, e.newEvent(rule, run,
			fmt.Sprintf("Competitor %s mentions up %.0f%% vs the 7-day average (%.1f avg, %d current)", cm.Name, increase, avg, cm.Count),
			map[string]any{
				"competitorId":      cm.ID,
				"competitorName":    cm.Name,
				"currentCount":      cm.Count,
				"historicalAverage": avg,
				"increasePercent":   increase,
			},
		))
	}
	return out
}

// newDomainCited fires once per cited domain absent from the union of
// domains cited across the trailing window.
func (e *Evaluator) newDomainCited(rule Rule, run runs.PromptRun, history []runs.PromptRun) []Event {
	seen := make(map[string]bool)
	for _, h := range history {
		if h.Signals == nil {
			continue
		}
		for _, dc := range h.Signals.CitedDomains {
			seen[strings.ToLower(dc.Domain)] = true
		}
	}

	var out []Event
	for _, dc := range run.Signals.CitedDomains {
		domain := strings.ToLower(dc.Domain)
		if domain == "" || seen[domain] {
			continue
		}
		seen[domain] = true
		out = append(out, e.newEvent(rule, run,
			fmt.Sprintf("New domain cited: %s", domain),
			map[string]any{
				"domain":    domain,
				"citeCount": dc.Count,
			},
		))
	}
	return out
}

func (e *Evaluator) newEvent(rule Rule, run runs.PromptRun, message string, metadata map[string]any) Event {
	return Event{
		ID:        uuid.NewString(),
		RuleID:    rule.ID,
		RunID:     run.ID,
		ProjectID: run.ProjectID,
		Type:      rule.Type,
		Message:   message,
		Metadata:  metadata,
		CreatedAt: e.now().UTC(),
	}
}

func mean(points []int) float64 {
	if len(points) == 0 {
		return 0
	}
	sum := 0
	for _, p := range points {
		sum += p
	}
	return float64(sum) / float64(len(points))
}

var _ runs.AlertSink = (*Evaluator)(nil)
