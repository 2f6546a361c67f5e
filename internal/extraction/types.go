package extraction

import "context"

// Sentiment labels. The LLM strategy may also report "mixed", which is
// collapsed to neutral before it leaves this package.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// CompetitorMention is one competitor's mention count in an answer.
type CompetitorMention struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DomainCitation groups an answer's cited URLs by registered domain.
type DomainCitation struct {
	Domain string   `json:"domain"`
	Count  int      `json:"count"`
	URLs   []string `json:"urls"`
}

// Signals is the shared output shape of every extraction strategy.
type Signals struct {
	BrandMentioned     bool                `json:"brandMentioned"`
	BrandMentionCount  int                 `json:"brandMentionCount"`
	CompetitorMentions []CompetitorMention `json:"competitorMentions"`
	CitedDomains       []DomainCitation    `json:"citedDomains"`
	Sentiment          string              `json:"sentiment"`
	Topics             []string            `json:"topics"`
}

// CompetitorTerms is one competitor's matchable vocabulary.
type CompetitorTerms struct {
	ID    string
	Name  string
	Terms []string
}

// Input is the text to analyze plus the project's tracked vocabulary.
// BrandTerms is the primary brand's name and synonyms; it may be empty
// when the project has no brand registered yet.
type Input struct {
	RawText     string
	BrandTerms  []string
	Competitors []CompetitorTerms
}

// Strategy turns a raw answer into Signals.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, in Input) (Signals, error)
}
