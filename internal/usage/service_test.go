package usage

import (
	"context"
	"testing"
	"time"

	"github.com/marcalaing/gpt-rank-sub000/internal/tiers"
)

func TestCanRunAgainstLimit(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	ok, u, err := svc.CanRun(ctx, "org-1", 2)
	if err != nil || !ok {
		t.Fatalf("fresh org: ok=%v err=%v, want allowed", ok, err)
	}
	if u.Used != 0 {
		t.Errorf("fresh org used = %d, want 0", u.Used)
	}

	for i := 0; i < 2; i++ {
		if _, err := svc.RecordRun(ctx, "org-1"); err != nil {
			t.Fatalf("record run %d: %v", i, err)
		}
	}

	ok, u, err = svc.CanRun(ctx, "org-1", 2)
	if err != nil {
		t.Fatalf("CanRun: %v", err)
	}
	if ok {
		t.Errorf("at limit: allowed with used=%d limit=2", u.Used)
	}
}

func TestCanRunUnlimitedTier(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		if _, err := svc.RecordRun(ctx, "org-1"); err != nil {
			t.Fatalf("record run %d: %v", i, err)
		}
	}
	ok, _, err := svc.CanRun(ctx, "org-1", tiers.Unlimited)
	if err != nil || !ok {
		t.Fatalf("unlimited: ok=%v err=%v, want allowed", ok, err)
	}
}

func TestPeriodRollover(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	march := time.Date(2025, 3, 31, 23, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return march }

	for i := 0; i < 30; i++ {
		if _, err := svc.RecordRun(ctx, "org-1"); err != nil {
			t.Fatalf("record run %d: %v", i, err)
		}
	}
	if ok, _, _ := svc.CanRun(ctx, "org-1", 30); ok {
		t.Fatal("march at limit: want blocked")
	}

	svc.Now = func() time.Time { return march.Add(2 * time.Hour) } // April 1st

	ok, u, err := svc.CanRun(ctx, "org-1", 30)
	if err != nil {
		t.Fatalf("CanRun after rollover: %v", err)
	}
	if !ok || u.Used != 0 {
		t.Errorf("april: ok=%v used=%d, want fresh period", ok, u.Used)
	}
	if u.Period != "2025-04" {
		t.Errorf("period = %q, want 2025-04", u.Period)
	}
}

func TestPeriodKeyIsUTC(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	// 23:30 EST on Jan 31 is already February in UTC.
	at := time.Date(2025, 1, 31, 23, 30, 0, 0, est)
	if got := PeriodKey(at); got != "2025-02" {
		t.Errorf("PeriodKey = %q, want 2025-02", got)
	}
}
