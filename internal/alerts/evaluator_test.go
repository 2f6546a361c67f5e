package alerts

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcalaing/gpt-rank-sub000/internal/extraction"
	"github.com/marcalaing/gpt-rank-sub000/internal/runs"
)

var evalNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type evalHarness struct {
	rules  *MemoryRulesRepo
	events *MemoryEventsRepo
	runs   *runs.MemoryRepo
	eval   *Evaluator
}

func newEvalHarness(t *testing.T) *evalHarness {
	t.Helper()
	h := &evalHarness{
		rules:  NewMemoryRulesRepo(),
		events: NewMemoryEventsRepo(),
		runs:   runs.NewMemoryRepo(),
	}
	h.eval = &Evaluator{
		Rules:  h.rules,
		Events: h.events,
		Runs:   h.runs,
		Now:    func() time.Time { return evalNow },
	}
	return h
}

func (h *evalHarness) seedRule(t *testing.T, ruleType string, threshold float64, active bool) Rule {
	t.Helper()
	rule := Rule{
		ID:        "rule-" + ruleType,
		ProjectID: "proj-1",
		Type:      ruleType,
		Threshold: threshold,
		IsActive:  active,
		CreatedAt: evalNow,
	}
	require.NoError(t, h.rules.Create(context.Background(), rule))
	return rule
}

func completedRun(id string, createdAt time.Time, sig extraction.Signals) runs.PromptRun {
	s := sig
	return runs.PromptRun{
		ID:             id,
		PromptID:       "prompt-1",
		ProjectID:      "proj-1",
		OrganizationID: "org-1",
		Provider:       "openai",
		Status:         runs.StatusCompleted,
		Signals:        &s,
		CreatedAt:      createdAt,
	}
}

func (h *evalHarness) seedHistory(t *testing.T, brandCounts ...int) {
	t.Helper()
	for i, count := range brandCounts {
		run := completedRun(
			fmt.Sprintf("hist-%d", i),
			evalNow.AddDate(0, 0, -(i+1)),
			extraction.Signals{BrandMentioned: count > 0, BrandMentionCount: count, Sentiment: extraction.SentimentNeutral},
		)
		require.NoError(t, h.runs.Create(context.Background(), run))
	}
}

func (h *evalHarness) projectEvents(t *testing.T) []Event {
	t.Helper()
	events, err := h.events.ListByProject(context.Background(), "proj-1", 100, 0)
	require.NoError(t, err)
	return events
}

func TestBrandMentionDropFires(t *testing.T) {
	h := newEvalHarness(t)
	rule := h.seedRule(t, TypeBrandMentionDrop, DefaultDropThreshold, true)
	h.seedHistory(t, 4, 5, 6) // avg 5

	current := completedRun("run-now", evalNow, extraction.Signals{BrandMentioned: true, BrandMentionCount: 2})
	require.NoError(t, h.runs.Create(context.Background(), current))

	h.eval.EvaluateRun(context.Background(), current)

	events := h.projectEvents(t)
	require.Len(t, events, 1)
	e := events[0]
	assert.Equal(t, rule.ID, e.RuleID)
	assert.Equal(t, "run-now", e.RunID)
	assert.Equal(t, TypeBrandMentionDrop, e.Type)
	assert.False(t, e.Acknowledged)
	assert.Contains(t, e.Message, "dropped 60%")
	assert.Equal(t, 2, e.Metadata["currentCount"])
	assert.Equal(t, 5.0, e.Metadata["historicalAverage"])
}

func TestBrandMentionDropNeedsThreeHistoricalRuns(t *testing.T) {
	h := newEvalHarness(t)
	h.seedRule(t, TypeBrandMentionDrop, DefaultDropThreshold, true)
	h.seedHistory(t, 5, 5)

	current := completedRun("run-now", evalNow, extraction.Signals{BrandMentionCount: 0})
	h.eval.EvaluateRun(context.Background(), current)

	assert.Empty(t, h.projectEvents(t))
}

func TestBrandMentionDropZeroAverageGuard(t *testing.T) {
	h := newEvalHarness(t)
	h.seedRule(t, TypeBrandMentionDrop, DefaultDropThreshold, true)
	h.seedHistory(t, 0, 0, 0)

	current := completedRun("run-now", evalNow, extraction.Signals{BrandMentionCount: 0})
	h.eval.EvaluateRun(context.Background(), current)

	assert.Empty(t, h.projectEvents(t))
}

func TestBrandMentionDropThresholdBoundary(t *testing.T) {
	h := newEvalHarness(t)
	h.seedRule(t, TypeBrandMentionDrop, DefaultDropThreshold, true)
	h.seedHistory(t, 5, 5, 5)

	// Exactly a 20% drop meets the default threshold.
	current := completedRun("run-now", evalNow, extraction.Signals{BrandMentionCount: 4})
	h.eval.EvaluateRun(context.Background(), current)
	require.Len(t, h.projectEvents(t), 1)
}

func TestBrandMentionDropCustomThreshold(t *testing.T) {
	h := newEvalHarness(t)
	h.seedRule(t, TypeBrandMentionDrop, 70, true)
	h.seedHistory(t, 4, 5, 6) // avg 5

	// 60% drop stays under the custom 70% threshold.
	current := completedRun("run-now", evalNow, extraction.Signals{BrandMentionCount: 2})
	h.eval.EvaluateRun(context.Background(), current)

	assert.Empty(t, h.projectEvents(t))
}

func TestCompetitorSpikeFiresPerCompetitor(t *testing.T) {
	h := newEvalHarness(t)
	h.seedRule(t, TypeCompetitorSpike, DefaultSpikeThreshold, true)

	for i := 0; i < 3; i++ {
		run := completedRun(fmt.Sprintf("hist-%d", i), evalNow.AddDate(0, 0, -(i+1)), extraction.Signals{
			CompetitorMentions: []extraction.CompetitorMention{
				{ID: "c1", Name: "Globex", Count: 2},
				{ID: "c3", Name: "Initech", Count: 1},
			},
		})
		require.NoError(t, h.runs.Create(context.Background(), run))
	}

	current := completedRun("run-now", evalNow, extraction.Signals{
		CompetitorMentions: []extraction.CompetitorMention{
			{ID: "c1", Name: "Globex", Count: 4},  // +100% vs avg 2
			{ID: "c2", Name: "Hooli", Count: 9},   // no history, skipped
			{ID: "c3", Name: "Initech", Count: 2}, // +100% vs avg 1
		},
	})
	h.eval.EvaluateRun(context.Background(), current)

	events := h.projectEvents(t)
	require.Len(t, events, 2)
	names := []string{events[0].Metadata["competitorName"].(string), events[1].Metadata["competitorName"].(string)}
	assert.ElementsMatch(t, []string{"Globex", "Initech"}, names)
	for _, e := range events {
		assert.Equal(t, TypeCompetitorSpike, e.Type)
		assert.Contains(t, e.Message, "up 100%")
	}
}

func TestCompetitorSpikeBelowThreshold(t *testing.T) {
	h := newEvalHarness(t)
	h.seedRule(t, TypeCompetitorSpike, DefaultSpikeThreshold, true)

	for i := 0; i < 3; i++ {
		run := completedRun(fmt.Sprintf("hist-%d", i), evalNow.AddDate(0, 0, -(i+1)), extraction.Signals{
			CompetitorMentions: []extraction.CompetitorMention{{ID: "c1", Name: "Globex", Count: 2}},
		})
		require.NoError(t, h.runs.Create(context.Background(), run))
	}

	current := completedRun("run-now", evalNow, extraction.Signals{
		CompetitorMentions: []extraction.CompetitorMention{{ID: "c1", Name: "Globex", Count: 2}},
	})
	h.eval.EvaluateRun(context.Background(), current)

	assert.Empty(t, h.projectEvents(t))
}

func TestNewDomainCited(t *testing.T) {
	h := newEvalHarness(t)
	h.seedRule(t, TypeNewDomainCited, 0, true)

	hist := completedRun("hist-0", evalNow.AddDate(0, 0, -2), extraction.Signals{
		CitedDomains: []extraction.DomainCitation{
			{Domain: "acme.com", Count: 2},
			{Domain: "Example.org", Count: 1},
		},
	})
	require.NoError(t, h.runs.Create(context.Background(), hist))

	current := completedRun("run-now", evalNow, extraction.Signals{
		CitedDomains: []extraction.DomainCitation{
			{Domain: "acme.com", Count: 1},
			{Domain: "example.org", Count: 1}, // case-insensitive match, not new
			{Domain: "newsite.io", Count: 3},
		},
	})
	h.eval.EvaluateRun(context.Background(), current)

	events := h.projectEvents(t)
	require.Len(t, events, 1)
	assert.Equal(t, "New domain cited: newsite.io", events[0].Message)
	assert.Equal(t, "newsite.io", events[0].Metadata["domain"])
	assert.Equal(t, 3, events[0].Metadata["citeCount"])
}

func TestNewDomainCitedEmptyHistoryFiresAll(t *testing.T) {
	h := newEvalHarness(t)
	h.seedRule(t, TypeNewDomainCited, 0, true)

	current := completedRun("run-now", evalNow, extraction.Signals{
		CitedDomains: []extraction.DomainCitation{
			{Domain: "acme.com", Count: 1},
			{Domain: "example.org", Count: 1},
		},
	})
	h.eval.EvaluateRun(context.Background(), current)

	assert.Len(t, h.projectEvents(t), 2)
}

func TestInactiveRuleSkipped(t *testing.T) {
	h := newEvalHarness(t)
	h.seedRule(t, TypeBrandMentionDrop, DefaultDropThreshold, false)
	h.seedHistory(t, 5, 5, 5)

	current := completedRun("run-now", evalNow, extraction.Signals{BrandMentionCount: 0})
	h.eval.EvaluateRun(context.Background(), current)

	assert.Empty(t, h.projectEvents(t))
}

func TestWindowExcludesOldRuns(t *testing.T) {
	h := newEvalHarness(t)
	h.seedRule(t, TypeBrandMentionDrop, DefaultDropThreshold, true)

	// Two in-window runs plus one outside the seven-day window: not enough
	// history, so the rule stays quiet.
	h.seedHistory(t, 5, 5)
	old := completedRun("hist-old", evalNow.AddDate(0, 0, -8), extraction.Signals{BrandMentionCount: 5})
	require.NoError(t, h.runs.Create(context.Background(), old))

	current := completedRun("run-now", evalNow, extraction.Signals{BrandMentionCount: 0})
	h.eval.EvaluateRun(context.Background(), current)

	assert.Empty(t, h.projectEvents(t))
}

func TestCurrentRunExcludedFromHistory(t *testing.T) {
	h := newEvalHarness(t)
	h.seedRule(t, TypeBrandMentionDrop, DefaultDropThreshold, true)
	h.seedHistory(t, 5, 5, 5)

	// The current run is already persisted when evaluation happens; its own
	// count must not drag the historical average down.
	current := completedRun("run-now", evalNow, extraction.Signals{BrandMentionCount: 0})
	require.NoError(t, h.runs.Create(context.Background(), current))

	h.eval.EvaluateRun(context.Background(), current)

	events := h.projectEvents(t)
	require.Len(t, events, 1)
	assert.Equal(t, 5.0, events[0].Metadata["historicalAverage"])
}

func TestEvaluateRunWithoutSignalsIsNoop(t *testing.T) {
	h := newEvalHarness(t)
	h.seedRule(t, TypeBrandMentionDrop, DefaultDropThreshold, true)

	run := runs.PromptRun{ID: "run-now", PromptID: "prompt-1", ProjectID: "proj-1", Status: runs.StatusFailed}
	h.eval.EvaluateRun(context.Background(), run)

	assert.Empty(t, h.projectEvents(t))
}

func TestUnknownRuleTypeIgnored(t *testing.T) {
	h := newEvalHarness(t)
	h.seedRule(t, "weekly_digest", 0, true)
	h.seedRule(t, TypeNewDomainCited, 0, true)

	current := completedRun("run-now", evalNow, extraction.Signals{
		CitedDomains: []extraction.DomainCitation{{Domain: "acme.com", Count: 1}},
	})
	h.eval.EvaluateRun(context.Background(), current)

	events := h.projectEvents(t)
	require.Len(t, events, 1)
	assert.Equal(t, TypeNewDomainCited, events[0].Type)
}

type failingEvents struct {
	*MemoryEventsRepo
	failFor string
}

func (f *failingEvents) Create(ctx context.Context, e Event) error {
	if e.Type == f.failFor {
		return errors.New("events table unavailable")
	}
	return f.MemoryEventsRepo.Create(ctx, e)
}

func TestRuleFailureDoesNotBlockOthers(t *testing.T) {
	h := newEvalHarness(t)
	h.eval.Events = &failingEvents{MemoryEventsRepo: h.events, failFor: TypeBrandMentionDrop}
	h.seedRule(t, TypeBrandMentionDrop, DefaultDropThreshold, true)
	h.seedRule(t, TypeNewDomainCited, 0, true)
	h.seedHistory(t, 5, 5, 5)

	current := completedRun("run-now", evalNow, extraction.Signals{
		BrandMentionCount: 0,
		CitedDomains:      []extraction.DomainCitation{{Domain: "brand-new.io", Count: 1}},
	})
	h.eval.EvaluateRun(context.Background(), current)

	// The drop event write failed; the new-domain rule still fired.
	events := h.projectEvents(t)
	require.Len(t, events, 1)
	assert.Equal(t, TypeNewDomainCited, events[0].Type)
}

func TestDefaultThresholds(t *testing.T) {
	assert.Equal(t, 20.0, DefaultThreshold(TypeBrandMentionDrop))
	assert.Equal(t, 50.0, DefaultThreshold(TypeCompetitorSpike))
	assert.Equal(t, 0.0, DefaultThreshold(TypeNewDomainCited))
	assert.True(t, EvaluatedType(TypeCompetitorSpike))
	assert.False(t, EvaluatedType("weekly_digest"))
}
