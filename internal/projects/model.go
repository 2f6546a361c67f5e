package projects

import "time"

// Project groups the brands, competitors and prompts tracked for one site or
// product. Cost budgets and the running monthly spend live here; the
// subscription tier lives on the owning organization.
type Project struct {
	ID                string
	OrganizationID    string
	Name              string
	CurrentMonthUsage float64
	MonthlyBudgetSoft float64
	MonthlyBudgetHard float64
	UsageMonth        string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// OverHardBudget reports whether the hard budget is met or exceeded. A zero
// hard budget means no cap.
func (p Project) OverHardBudget() bool {
	return p.MonthlyBudgetHard > 0 && p.CurrentMonthUsage >= p.MonthlyBudgetHard
}

// OverSoftBudget reports whether the soft budget is met or exceeded. A zero
// soft budget means no warning threshold.
func (p Project) OverSoftBudget() bool {
	return p.MonthlyBudgetSoft > 0 && p.CurrentMonthUsage >= p.MonthlyBudgetSoft
}

// UsageMonthKey formats a time as the YYYY-MM key used for usage rollover.
func UsageMonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
