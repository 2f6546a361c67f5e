package projects

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marcalaing/gpt-rank-sub000/internal/orgs"
	"github.com/marcalaing/gpt-rank-sub000/internal/tiers"
)

func newTestService(t *testing.T, tier string) (*Service, string) {
	t.Helper()
	orgRepo := orgs.NewMemoryRepo()
	org := orgs.Organization{ID: "org-1", Name: "Acme", SubscriptionTier: tier}
	if err := orgRepo.Create(context.Background(), org); err != nil {
		t.Fatalf("seed org: %v", err)
	}
	svc := &Service{
		Repo:  NewMemoryRepo(),
		Orgs:  orgRepo,
		Tiers: tiers.NewRegistry(),
	}
	return svc, org.ID
}

func TestCreateEnforcesProjectLimit(t *testing.T) {
	svc, orgID := newTestService(t, "free")

	if _, err := svc.Create(context.Background(), orgID, "First"); err != nil {
		t.Fatalf("first project: %v", err)
	}
	_, err := svc.Create(context.Background(), orgID, "Second")
	if !errors.Is(err, ErrProjectLimit) {
		t.Fatalf("expected ErrProjectLimit, got %v", err)
	}
}

func TestCreateUnlimitedTier(t *testing.T) {
	svc, orgID := newTestService(t, "scale")

	for i := 0; i < 5; i++ {
		if _, err := svc.Create(context.Background(), orgID, "Project"); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
}

func TestCreateUnknownOrg(t *testing.T) {
	svc, _ := newTestService(t, "free")

	_, err := svc.Create(context.Background(), "missing", "Name")
	if !errors.Is(err, orgs.ErrNotFound) {
		t.Fatalf("expected org not found, got %v", err)
	}
}

func TestAddUsageAccumulatesWithinMonth(t *testing.T) {
	svc, orgID := newTestService(t, "free")
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return now }

	p, err := svc.Create(context.Background(), orgID, "Tracked")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.AddUsage(context.Background(), p.ID, 0.25); err != nil {
		t.Fatalf("add usage: %v", err)
	}
	if err := svc.AddUsage(context.Background(), p.ID, 0.50); err != nil {
		t.Fatalf("add usage: %v", err)
	}

	got, err := svc.Get(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CurrentMonthUsage != 0.75 {
		t.Fatalf("expected usage 0.75, got %v", got.CurrentMonthUsage)
	}
}

func TestAddUsageRollsOverOnNewMonth(t *testing.T) {
	svc, orgID := newTestService(t, "free")
	now := time.Date(2025, 3, 31, 23, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return now }

	p, err := svc.Create(context.Background(), orgID, "Tracked")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.AddUsage(context.Background(), p.ID, 2.0); err != nil {
		t.Fatalf("add usage: %v", err)
	}

	now = time.Date(2025, 4, 1, 0, 5, 0, 0, time.UTC)
	if err := svc.AddUsage(context.Background(), p.ID, 0.30); err != nil {
		t.Fatalf("add usage: %v", err)
	}

	got, err := svc.Get(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CurrentMonthUsage != 0.30 {
		t.Fatalf("expected usage reset to 0.30, got %v", got.CurrentMonthUsage)
	}
	if got.UsageMonth != "2025-04" {
		t.Fatalf("expected usage month 2025-04, got %s", got.UsageMonth)
	}
}

func TestAddUsageIgnoresNonPositiveCost(t *testing.T) {
	svc, orgID := newTestService(t, "free")
	p, err := svc.Create(context.Background(), orgID, "Tracked")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.AddUsage(context.Background(), p.ID, 0); err != nil {
		t.Fatalf("zero cost should be a no-op: %v", err)
	}
	got, _ := svc.Get(context.Background(), p.ID)
	if got.CurrentMonthUsage != 0 {
		t.Fatalf("expected no usage, got %v", got.CurrentMonthUsage)
	}
}

func TestOverHardBudget(t *testing.T) {
	p := Project{CurrentMonthUsage: 10, MonthlyBudgetHard: 10}
	if !p.OverHardBudget() {
		t.Fatalf("usage equal to hard budget should count as exceeded")
	}
	p.MonthlyBudgetHard = 0
	if p.OverHardBudget() {
		t.Fatalf("zero hard budget means no cap")
	}
}
