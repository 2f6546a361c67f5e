package prompts

import (
	"testing"
	"time"
)

func TestNextRunAdvancesByCadence(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	daily := NextRun(CadenceDaily, now, now)
	if want := now.Add(24 * time.Hour); !daily.Equal(want) {
		t.Errorf("daily next = %v, want %v", daily, want)
	}

	weekly := NextRun(CadenceWeekly, now, now)
	if want := now.Add(7 * 24 * time.Hour); !weekly.Equal(want) {
		t.Errorf("weekly next = %v, want %v", weekly, want)
	}
}

func TestNextRunClampsOverduePrompts(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	// Last due three days ago: one daily step would still be in the past.
	from := now.Add(-72 * time.Hour)

	next := NextRun(CadenceDaily, from, now)
	if !next.After(now) {
		t.Fatalf("next = %v, want strictly after now %v", next, now)
	}
	if want := now.Add(24 * time.Hour); !next.Equal(want) {
		t.Errorf("next = %v, want resumed from now %v", next, want)
	}
}

func TestNextRunExactlyDueStillAdvances(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	from := now.Add(-24 * time.Hour)

	next := NextRun(CadenceDaily, from, now)
	if !next.After(now) {
		t.Errorf("next = %v, want strictly after now", next)
	}
}

func TestCadenceValid(t *testing.T) {
	if !CadenceDaily.Valid() || !CadenceWeekly.Valid() {
		t.Error("daily and weekly must be valid cadences")
	}
	if Cadence("hourly").Valid() {
		t.Error("hourly must not be a valid cadence")
	}
	if Cadence("").Valid() {
		t.Error("empty cadence must not be valid")
	}
}
