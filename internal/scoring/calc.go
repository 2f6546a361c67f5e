package scoring

import (
	"strings"

	"github.com/marcalaing/gpt-rank-sub000/internal/extraction"
)

// Breakdown is a visibility score with the components that produced it.
// The components are persisted so historical scores stay explainable.
type Breakdown struct {
	Score          int    `json:"score"`
	MentionScore   int    `json:"mentionScore"`
	SentimentBonus int    `json:"sentimentBonus"`
	CitationBonus  int    `json:"citationBonus"`
	MentionCount   int    `json:"mentionCount"`
	Sentiment      string `json:"sentiment"`
}

// Calculate applies the visibility formula to extraction signals:
//
//	mentionScore   = min(count*20, 60)
//	sentimentBonus = +20 positive, -10 negative, 0 neutral
//	citationBonus  = +20 if any cited domain contains the brand's
//	                 registered domain, else 0
//	score          = clamp(sum, 0, 100)
//
// The rule must not change shape without versioning; stored scores are
// compared across time.
func Calculate(sig extraction.Signals, brandDomain string) Breakdown {
	mentionScore := sig.BrandMentionCount * 20
	if mentionScore > 60 {
		mentionScore = 60
	}

	sentimentBonus := 0
	switch sig.Sentiment {
	case extraction.SentimentPositive:
		sentimentBonus = 20
	case extraction.SentimentNegative:
		sentimentBonus = -10
	}

	citationBonus := 0
	if domainCited(sig.CitedDomains, brandDomain) {
		citationBonus = 20
	}

	score := mentionScore + sentimentBonus + citationBonus
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return Breakdown{
		Score:          score,
		MentionScore:   mentionScore,
		SentimentBonus: sentimentBonus,
		CitationBonus:  citationBonus,
		MentionCount:   sig.BrandMentionCount,
		Sentiment:      sig.Sentiment,
	}
}

// domainCited matches by containment so subdomains of the registered
// domain (docs.acme.com vs acme.com) still earn the bonus.
func domainCited(domains []extraction.DomainCitation, brandDomain string) bool {
	registered := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(brandDomain)), "www.")
	if registered == "" {
		return false
	}
	for _, d := range domains {
		if strings.Contains(d.Domain, registered) {
			return true
		}
	}
	return false
}
