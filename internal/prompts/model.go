package prompts

import "time"

// Cadence is how often a scheduled prompt runs.
type Cadence string

const (
	CadenceDaily  Cadence = "daily"
	CadenceWeekly Cadence = "weekly"
)

// Valid reports whether the cadence is a known value.
func (c Cadence) Valid() bool {
	return c == CadenceDaily || c == CadenceWeekly
}

// Interval returns the wall-clock gap between runs for this cadence.
func (c Cadence) Interval() time.Duration {
	if c == CadenceWeekly {
		return 7 * 24 * time.Hour
	}
	return 24 * time.Hour
}

// Prompt is a reusable query template owned by a project.
//
// A prompt is schedulable only while IsActive && ScheduleEnabled; the
// scheduler owns LastRunAt/NextRunAt, the CRUD layer owns the rest.
type Prompt struct {
	ID              string
	ProjectID       string
	Text            string
	Tags            []string
	IsActive        bool
	ScheduleEnabled bool
	ScheduleCadence Cadence
	LastRunAt       *time.Time
	NextRunAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Schedulable reports whether the scheduler should consider this prompt.
func (p Prompt) Schedulable() bool {
	return p.IsActive && p.ScheduleEnabled
}

// NextRun advances a schedule from its previous due time. The result is
// always strictly in the future: a prompt that sat overdue resumes from
// now rather than burning through missed slots.
func NextRun(c Cadence, from, now time.Time) time.Time {
	next := from.Add(c.Interval())
	if !next.After(now) {
		next = now.Add(c.Interval())
	}
	return next
}
