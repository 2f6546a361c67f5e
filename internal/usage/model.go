package usage

import "time"

// Usage is an organization's run consumption for one monthly period.
type Usage struct {
	OrganizationID string `json:"organizationId"`
	Period         string `json:"period"`
	Used           int    `json:"used"`
}

// PeriodKey returns the monthly period key for a point in time, UTC.
func PeriodKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
