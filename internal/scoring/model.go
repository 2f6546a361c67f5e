package scoring

import "time"

// Score is one persisted visibility measurement: the primary brand's
// score for a single prompt run.
type Score struct {
	ID             string
	RunID          string
	BrandID        string
	ProjectID      string
	Provider       string
	Score          int
	MentionCount   int
	Sentiment      string
	SentimentBonus int
	CitationBonus  int
	CreatedAt      time.Time
}
