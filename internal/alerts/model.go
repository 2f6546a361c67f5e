package alerts

import "time"

// Rule types.
const (
	TypeBrandMentionDrop = "brand_mention_drop"
	TypeCompetitorSpike  = "competitor_spike"
	TypeNewDomainCited   = "new_domain_cited"
)

// Default thresholds (percent) applied when a rule is created without one.
const (
	DefaultDropThreshold  = 20.0
	DefaultSpikeThreshold = 50.0
)

// EvaluatedType reports whether the evaluator implements this rule type.
// Rule CRUD accepts other type strings; the evaluator skips them.
func EvaluatedType(t string) bool {
	switch t {
	case TypeBrandMentionDrop, TypeCompetitorSpike, TypeNewDomainCited:
		return true
	}
	return false
}

// DefaultThreshold returns the built-in threshold for a rule type. The
// new-domain rule has no threshold; it fires on any unseen domain.
func DefaultThreshold(t string) float64 {
	switch t {
	case TypeBrandMentionDrop:
		return DefaultDropThreshold
	case TypeCompetitorSpike:
		return DefaultSpikeThreshold
	}
	return 0
}

// Rule is a per-project alert condition evaluated after each run.
type Rule struct {
	ID        string
	ProjectID string
	Type      string
	Threshold float64
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Event is one firing of a rule, linked to the run that triggered it.
type Event struct {
	ID           string
	RuleID       string
	RunID        string
	ProjectID    string
	Type         string
	Message      string
	Metadata     map[string]any
	Acknowledged bool
	CreatedAt    time.Time
}
