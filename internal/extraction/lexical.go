package extraction

import (
	"context"
	"strings"
	"unicode"
)

// Lexical is the deterministic extraction strategy. It always succeeds and
// serves both as ground truth and as the fallback when the LLM strategy
// misbehaves.
type Lexical struct{}

// Name returns the strategy name.
func (Lexical) Name() string { return "lexical" }

// Extract analyzes the text with word-boundary counting, URL grouping,
// windowed sentiment, and keyword topics. The returned error is always nil.
func (Lexical) Extract(ctx context.Context, in Input) (Signals, error) {
	counts := tokenCounts(in.RawText)

	brandCount := 0
	for _, term := range in.BrandTerms {
		brandCount += countTerm(counts, term)
	}

	var competitors []CompetitorMention
	for _, comp := range in.Competitors {
		count := 0
		for _, term := range comp.Terms {
			count += countTerm(counts, term)
		}
		if count > 0 {
			competitors = append(competitors, CompetitorMention{
				ID:    comp.ID,
				Name:  comp.Name,
				Count: count,
			})
		}
	}

	return Signals{
		BrandMentioned:     brandCount > 0,
		BrandMentionCount:  brandCount,
		CompetitorMentions: competitors,
		CitedDomains:       ExtractDomains(in.RawText),
		Sentiment:          scanSentiment(in.RawText, in.BrandTerms),
		Topics:             InferTopics(in.RawText),
	}, nil
}

// normalize lowercases, turns every non-alphanumeric rune into a space,
// and collapses runs of whitespace.
func normalize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

func tokenCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, tok := range strings.Fields(normalize(text)) {
		counts[tok]++
	}
	return counts
}

// countTerm counts word-boundary occurrences of a term. A multi-word term
// requires all of its words to be present and contributes the count of its
// least frequent word; this is a permissive approximation, not phrase
// matching.
func countTerm(counts map[string]int, term string) int {
	termWords := strings.Fields(normalize(term))
	switch len(termWords) {
	case 0:
		return 0
	case 1:
		return counts[termWords[0]]
	}
	minCount := 0
	for i, w := range termWords {
		c := counts[w]
		if c == 0 {
			return 0
		}
		if i == 0 || c < minCount {
			minCount = c
		}
	}
	return minCount
}

var _ Strategy = Lexical{}
