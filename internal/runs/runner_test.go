package runs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/marcalaing/gpt-rank-sub000/internal/brands"
	"github.com/marcalaing/gpt-rank-sub000/internal/extraction"
	"github.com/marcalaing/gpt-rank-sub000/internal/orgs"
	"github.com/marcalaing/gpt-rank-sub000/internal/projects"
	"github.com/marcalaing/gpt-rank-sub000/internal/prompts"
	"github.com/marcalaing/gpt-rank-sub000/internal/provider"
	"github.com/marcalaing/gpt-rank-sub000/internal/scoring"
	"github.com/marcalaing/gpt-rank-sub000/internal/tiers"
	"github.com/marcalaing/gpt-rank-sub000/internal/usage"
)

type stubAdapter struct {
	name       string
	answer     *provider.Answer
	err        error
	calls      int
	lastPrompt string
	lastModel  string
	lastCtx    provider.Context
}

func (a *stubAdapter) Name() string { return a.name }

func (a *stubAdapter) RunPrompt(ctx context.Context, promptText string, pctx provider.Context, model string) (*provider.Answer, error) {
	a.calls++
	a.lastPrompt = promptText
	a.lastModel = model
	a.lastCtx = pctx
	if a.err != nil {
		return nil, a.err
	}
	return a.answer, nil
}

type stubArchive struct {
	mu    sync.Mutex
	saved map[string][]byte
}

func (s *stubArchive) Save(ctx context.Context, storageKey, contentType string, r io.Reader) (int64, error) {
	payload, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		s.saved = make(map[string][]byte)
	}
	s.saved[storageKey] = payload
	return int64(len(payload)), nil
}

func (s *stubArchive) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.saved[storageKey]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(payload)), nil
}

type runnerHarness struct {
	orgs    *orgs.MemoryRepo
	brands  *brands.MemoryRepo
	comps   *brands.MemoryCompetitorsRepo
	prompts *prompts.MemoryRepo
	runs    *MemoryRepo
	cites   *MemoryCitationsRepo
	scores  *scoring.MemoryRepo
	usage   *usage.Service
	adapter *stubAdapter
	archive *stubArchive
	runner  *Runner
	now     time.Time
}

func newRunnerHarness(t *testing.T, tier string) *runnerHarness {
	t.Helper()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	h := &runnerHarness{
		orgs:    orgs.NewMemoryRepo(),
		brands:  brands.NewMemoryRepo(),
		comps:   brands.NewMemoryCompetitorsRepo(),
		prompts: prompts.NewMemoryRepo(),
		runs:    NewMemoryRepo(),
		cites:   NewMemoryCitationsRepo(),
		scores:  scoring.NewMemoryRepo(),
		usage:   usage.NewService(),
		adapter: &stubAdapter{name: "openai"},
		archive: &stubArchive{},
		now:     now,
	}
	h.usage.Now = clock

	projectRepo := projects.NewMemoryRepo()
	ctx := context.Background()
	if err := h.orgs.Create(ctx, orgs.Organization{ID: "org-1", Name: "Acme Inc", SubscriptionTier: tier, CreatedAt: now}); err != nil {
		t.Fatalf("seed org: %v", err)
	}
	if err := projectRepo.Create(ctx, projects.Project{ID: "proj-1", OrganizationID: "org-1", Name: "Acme Visibility", CreatedAt: now}); err != nil {
		t.Fatalf("seed project: %v", err)
	}
	if err := h.prompts.Create(ctx, prompts.Prompt{
		ID:        "prompt-1",
		ProjectID: "proj-1",
		Text:      "What is the best CRM for small teams?",
		IsActive:  true,
		CreatedAt: now,
	}); err != nil {
		t.Fatalf("seed prompt: %v", err)
	}

	h.runner = &Runner{
		Prompts:     h.prompts,
		Projects:    projectRepo,
		Orgs:        h.orgs,
		Brands:      h.brands,
		Competitors: h.comps,
		Repo:        h.runs,
		Citations:   h.cites,
		Scores:      h.scores,
		Usage:       h.usage,
		Tiers:       tiers.NewRegistry(),
		Providers:   provider.NewRegistry(h.adapter),
		Extractor:   extraction.NewEngine(nil, extraction.Lexical{}),
		Archive:     h.archive,
		Locale:      "en-US",
		Now:         clock,
	}
	return h
}

func (h *runnerHarness) seedBrand(t *testing.T) {
	t.Helper()
	if err := h.brands.Create(context.Background(), brands.Brand{
		ID:        "brand-1",
		ProjectID: "proj-1",
		Name:      "Acme",
		Domain:    "acme.com",
		CreatedAt: h.now,
	}); err != nil {
		t.Fatalf("seed brand: %v", err)
	}
}

func (h *runnerHarness) seedCompetitor(t *testing.T) {
	t.Helper()
	if err := h.comps.Create(context.Background(), brands.Competitor{
		ID:        "comp-1",
		ProjectID: "proj-1",
		Name:      "Globex",
		CreatedAt: h.now,
	}); err != nil {
		t.Fatalf("seed competitor: %v", err)
	}
}

func TestRunPromptOnceHappyPath(t *testing.T) {
	h := newRunnerHarness(t, "growth")
	h.seedBrand(t)
	h.seedCompetitor(t)
	h.adapter.answer = &provider.Answer{
		RawText: "Acme is excellent for small teams. Globex is a popular alternative. See https://www.acme.com/pricing",
		Citations: []provider.Citation{
			{URL: "https://www.acme.com/pricing", Title: "Acme Pricing"},
		},
		Usage:        &provider.Usage{PromptTokens: 120, CompletionTokens: 80, TotalTokens: 200},
		CostEstimate: 0.0123,
		Model:        "gpt-4o-mini-2024-07-18",
		Duration:     1500 * time.Millisecond,
	}

	ctx := context.Background()
	result, err := h.runner.RunPromptOnce(ctx, "prompt-1", "openai", "")
	if err != nil {
		t.Fatalf("RunPromptOnce: %v", err)
	}
	if !result.Success || result.LimitExceeded {
		t.Fatalf("expected success, got %+v", result)
	}

	run, err := h.runs.GetByID(ctx, result.Run.ID)
	if err != nil {
		t.Fatalf("load run: %v", err)
	}
	if run.Status != StatusCompleted {
		t.Fatalf("status = %q, want %q", run.Status, StatusCompleted)
	}
	if run.Provider != "openai" || run.Model != "gpt-4o-mini-2024-07-18" {
		t.Fatalf("provider/model = %q/%q", run.Provider, run.Model)
	}
	if run.RawResponse == nil || !strings.Contains(*run.RawResponse, "Acme is excellent") {
		t.Fatalf("raw response not persisted: %v", run.RawResponse)
	}
	if run.Cost != 0.0123 {
		t.Fatalf("cost = %v", run.Cost)
	}
	if run.CompletedAt == nil {
		t.Fatal("completedAt not set")
	}
	if run.Metadata.TotalTokens != 200 || run.Metadata.DurationMs != 1500 {
		t.Fatalf("metadata = %+v", run.Metadata)
	}

	if run.Signals == nil {
		t.Fatal("signals not persisted")
	}
	// One prose mention plus the brand's host inside the cited URL.
	if !run.Signals.BrandMentioned || run.Signals.BrandMentionCount != 2 {
		t.Fatalf("brand signals = %+v", run.Signals)
	}
	if len(run.Signals.CompetitorMentions) != 1 || run.Signals.CompetitorMentions[0].Count != 1 {
		t.Fatalf("competitor signals = %+v", run.Signals.CompetitorMentions)
	}

	if h.adapter.calls != 1 {
		t.Fatalf("adapter calls = %d", h.adapter.calls)
	}
	if h.adapter.lastPrompt != "What is the best CRM for small teams?" {
		t.Fatalf("prompt text = %q", h.adapter.lastPrompt)
	}
	if len(h.adapter.lastCtx.BrandNames) != 1 || h.adapter.lastCtx.BrandNames[0] != "Acme" {
		t.Fatalf("brand names = %v", h.adapter.lastCtx.BrandNames)
	}
	if len(h.adapter.lastCtx.CompetitorNames) != 1 || h.adapter.lastCtx.CompetitorNames[0] != "Globex" {
		t.Fatalf("competitor names = %v", h.adapter.lastCtx.CompetitorNames)
	}
	if h.adapter.lastCtx.Locale != "en-US" {
		t.Fatalf("locale = %q", h.adapter.lastCtx.Locale)
	}

	u, err := h.usage.Get(ctx, "org-1")
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if u.Used != 1 {
		t.Fatalf("runs used = %d, want 1", u.Used)
	}

	cites, err := h.cites.ListByRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("citations: %v", err)
	}
	if len(cites) != 1 {
		t.Fatalf("citations = %d, want 1", len(cites))
	}
	if cites[0].Domain != "acme.com" || !cites[0].IsPrimary || cites[0].Position != 0 {
		t.Fatalf("citation = %+v", cites[0])
	}

	score, err := h.scores.GetByRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	// Two mentions (40) + positive sentiment (20) + own-domain citation (20).
	if score.Score != 80 || score.MentionCount != 2 || score.Sentiment != extraction.SentimentPositive {
		t.Fatalf("score = %+v", score)
	}
	if score.BrandID != "brand-1" || score.Provider != "openai" {
		t.Fatalf("score attribution = %+v", score)
	}

	wantKey := "runs/" + run.ID + ".json"
	if run.Metadata.ArchiveKey != wantKey {
		t.Fatalf("archive key = %q, want %q", run.Metadata.ArchiveKey, wantKey)
	}
	payload, ok := h.archive.saved[wantKey]
	if !ok {
		t.Fatalf("archive object missing at %q", wantKey)
	}
	var doc map[string]any
	if err := json.Unmarshal(payload, &doc); err != nil {
		t.Fatalf("archive payload: %v", err)
	}
	if doc["runId"] != run.ID {
		t.Fatalf("archived runId = %v", doc["runId"])
	}
	if _, ok := doc["rawText"].(string); !ok {
		t.Fatal("archived payload missing rawText")
	}
}

func TestRunPromptOnceUnknownPrompt(t *testing.T) {
	h := newRunnerHarness(t, "growth")

	result, err := h.runner.RunPromptOnce(context.Background(), "missing", "openai", "")
	if !errors.Is(err, prompts.ErrNotFound) {
		t.Fatalf("err = %v, want prompts.ErrNotFound", err)
	}
	if result != nil {
		t.Fatalf("result = %+v, want nil", result)
	}
}

func TestRunPromptOnceUnknownProvider(t *testing.T) {
	h := newRunnerHarness(t, "growth")

	_, err := h.runner.RunPromptOnce(context.Background(), "prompt-1", "gemini", "")
	if !errors.Is(err, provider.ErrUnsupportedProvider) {
		t.Fatalf("err = %v, want ErrUnsupportedProvider", err)
	}
	list, _ := h.runs.ListByProject(context.Background(), "proj-1", 10, 0)
	if len(list) != 0 {
		t.Fatalf("runs created = %d, want 0", len(list))
	}
}

func TestRunPromptOnceQuotaExceeded(t *testing.T) {
	h := newRunnerHarness(t, "free")
	ctx := context.Background()
	for i := 0; i < 30; i++ {
		if _, err := h.usage.RecordRun(ctx, "org-1"); err != nil {
			t.Fatalf("seed usage: %v", err)
		}
	}

	result, err := h.runner.RunPromptOnce(ctx, "prompt-1", "openai", "")
	if err != nil {
		t.Fatalf("RunPromptOnce: %v", err)
	}
	if result.Success || !result.LimitExceeded {
		t.Fatalf("result = %+v, want limit exceeded", result)
	}
	if result.Run != nil {
		t.Fatalf("run created despite quota: %+v", result.Run)
	}
	if h.adapter.calls != 0 {
		t.Fatalf("adapter called %d times", h.adapter.calls)
	}
	list, _ := h.runs.ListByProject(ctx, "proj-1", 10, 0)
	if len(list) != 0 {
		t.Fatalf("runs created = %d, want 0", len(list))
	}
	u, _ := h.usage.Get(ctx, "org-1")
	if u.Used != 30 {
		t.Fatalf("runs used = %d, want 30", u.Used)
	}
}

func TestRunPromptOnceProviderFailure(t *testing.T) {
	h := newRunnerHarness(t, "growth")
	h.seedBrand(t)
	h.adapter.err = &provider.APIError{Provider: "openai", StatusCode: 429, Type: "rate_limit_error", Message: "rate limited"}

	ctx := context.Background()
	result, err := h.runner.RunPromptOnce(ctx, "prompt-1", "openai", "")
	if err != nil {
		t.Fatalf("RunPromptOnce: %v", err)
	}
	if result.Success || result.LimitExceeded {
		t.Fatalf("result = %+v, want persisted failure", result)
	}
	if result.Error == "" || !strings.Contains(result.Error, "rate limited") {
		t.Fatalf("error = %q", result.Error)
	}

	run, err := h.runs.GetByID(ctx, result.Run.ID)
	if err != nil {
		t.Fatalf("load run: %v", err)
	}
	if run.Status != StatusFailed {
		t.Fatalf("status = %q, want %q", run.Status, StatusFailed)
	}
	if run.Metadata.Error == "" || run.Metadata.FailureClass != FailureRateLimited {
		t.Fatalf("metadata = %+v", run.Metadata)
	}
	if run.CompletedAt == nil {
		t.Fatal("completedAt not set on failed run")
	}

	// The attempt still counts against the monthly quota.
	u, _ := h.usage.Get(ctx, "org-1")
	if u.Used != 1 {
		t.Fatalf("runs used = %d, want 1", u.Used)
	}
	if _, err := h.scores.GetByRun(ctx, run.ID); !errors.Is(err, scoring.ErrNotFound) {
		t.Fatalf("score lookup = %v, want not found", err)
	}
}

func TestRunPromptOnceWithoutBrand(t *testing.T) {
	h := newRunnerHarness(t, "growth")
	h.adapter.answer = &provider.Answer{
		RawText:  "Several tools compete in this space.",
		Model:    "gpt-4o-mini",
		Duration: 200 * time.Millisecond,
	}

	ctx := context.Background()
	result, err := h.runner.RunPromptOnce(ctx, "prompt-1", "openai", "")
	if err != nil {
		t.Fatalf("RunPromptOnce: %v", err)
	}
	if !result.Success {
		t.Fatalf("result = %+v", result)
	}
	if len(h.adapter.lastCtx.BrandNames) != 0 {
		t.Fatalf("brand names = %v, want none", h.adapter.lastCtx.BrandNames)
	}
	if result.Run.Signals == nil || result.Run.Signals.BrandMentioned {
		t.Fatalf("signals = %+v", result.Run.Signals)
	}
	if _, err := h.scores.GetByRun(ctx, result.Run.ID); !errors.Is(err, scoring.ErrNotFound) {
		t.Fatalf("score lookup = %v, want not found", err)
	}
}

type failingScores struct {
	scoring.Repo
}

func (failingScores) Create(ctx context.Context, s scoring.Score) error {
	return errors.New("scores table unavailable")
}

func TestRunPromptOnceScorePersistFailure(t *testing.T) {
	h := newRunnerHarness(t, "growth")
	h.seedBrand(t)
	h.runner.Scores = failingScores{h.scores}
	h.adapter.answer = &provider.Answer{
		RawText:  "Acme leads the market.",
		Model:    "gpt-4o-mini",
		Duration: 300 * time.Millisecond,
	}

	ctx := context.Background()
	result, err := h.runner.RunPromptOnce(ctx, "prompt-1", "openai", "")
	if err != nil {
		t.Fatalf("RunPromptOnce: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure result")
	}

	run, err := h.runs.GetByID(ctx, result.Run.ID)
	if err != nil {
		t.Fatalf("load run: %v", err)
	}
	if run.Status != StatusFailed {
		t.Fatalf("status = %q, want %q", run.Status, StatusFailed)
	}
	// The answer survives on the failed run for inspection.
	if run.RawResponse == nil || run.Signals == nil {
		t.Fatalf("failed run lost its answer: raw=%v signals=%v", run.RawResponse, run.Signals)
	}
}

func TestClassifyFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"rate limited", &provider.APIError{StatusCode: 429}, FailureRateLimited},
		{"unauthorized", &provider.APIError{StatusCode: 401}, FailureAuth},
		{"forbidden", &provider.APIError{StatusCode: 403}, FailureAuth},
		{"server error", &provider.APIError{StatusCode: 500}, FailureProvider},
		{"wrapped api error", fmt.Errorf("provider call: %w", &provider.APIError{StatusCode: 429}), FailureRateLimited},
		{"deadline", context.DeadlineExceeded, FailureTimeout},
		{"canceled", context.Canceled, FailureTimeout},
		{"generic", errors.New("boom"), FailureProvider},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyFailure(tt.err); got != tt.want {
				t.Fatalf("ClassifyFailure() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSanitizeError(t *testing.T) {
	got := sanitizeError(errors.New("line one\nline two\t spaced"))
	if got != "line one line two spaced" {
		t.Fatalf("sanitizeError = %q", got)
	}

	long := sanitizeError(errors.New(strings.Repeat("x", 600)))
	if len(long) != maxErrorLen {
		t.Fatalf("len = %d, want %d", len(long), maxErrorLen)
	}
}

func TestIsPrimarySource(t *testing.T) {
	tests := []struct {
		domain      string
		brandDomain string
		want        bool
	}{
		{"acme.com", "acme.com", true},
		{"docs.acme.com", "acme.com", true},
		{"www.acme.com", "acme.com", true},
		{"acme.com", "www.acme.com", true},
		{"shop.acme.co.uk", "acme.co.uk", true},
		{"globex.com", "acme.com", false},
		{"notacme.com", "acme.com", false},
		{"", "acme.com", false},
		{"acme.com", "", false},
	}
	for _, tt := range tests {
		if got := IsPrimarySource(tt.domain, tt.brandDomain); got != tt.want {
			t.Errorf("IsPrimarySource(%q, %q) = %v, want %v", tt.domain, tt.brandDomain, got, tt.want)
		}
	}
}

func TestBuildCitations(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	list := []provider.Citation{
		{URL: "https://www.acme.com/pricing", Title: "Pricing"},
		{URL: "https://reviews.example.org/crm", Title: "Reviews", Snippet: "top picks"},
		{URL: "not a url"},
	}

	out := buildCitations("run-1", now, list, "acme.com")
	if len(out) != 3 {
		t.Fatalf("citations = %d, want 3", len(out))
	}
	if out[0].Domain != "acme.com" || !out[0].IsPrimary || out[0].Position != 0 {
		t.Fatalf("first = %+v", out[0])
	}
	if out[1].Domain != "reviews.example.org" || out[1].IsPrimary || out[1].Position != 1 {
		t.Fatalf("second = %+v", out[1])
	}
	if out[2].Domain != "" || out[2].IsPrimary {
		t.Fatalf("third = %+v", out[2])
	}
	for _, c := range out {
		if c.RunID != "run-1" || c.ID == "" {
			t.Fatalf("citation identity = %+v", c)
		}
	}
}
