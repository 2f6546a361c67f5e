package extraction

import (
	"strings"
	"unicode"
)

const sentimentWindow = 100

var positiveWords = map[string]bool{
	"best": true, "great": true, "excellent": true, "top": true,
	"leading": true, "recommended": true, "recommend": true, "popular": true,
	"reliable": true, "powerful": true, "easy": true, "intuitive": true,
	"love": true, "favorite": true, "solid": true, "strong": true,
	"robust": true, "impressive": true, "outstanding": true, "superior": true,
}

var negativeWords = map[string]bool{
	"avoid": true, "bad": true, "worst": true, "worse": true,
	"poor": true, "expensive": true, "overpriced": true, "difficult": true,
	"slow": true, "unreliable": true, "buggy": true, "clunky": true,
	"complaints": true, "issues": true, "problems": true, "frustrating": true,
	"lacking": true, "limited": true, "outdated": true, "weak": true,
}

// scanSentiment inspects a ±100-character window around each brand-term
// occurrence, tallies positive and negative keywords across all windows,
// and reduces the totals to one label. Ties and near-ties (a margin of one
// or less) read as neutral; no brand occurrence reads as neutral.
func scanSentiment(text string, brandTerms []string) string {
	lower := strings.ToLower(text)

	positives, negatives := 0, 0
	for _, term := range brandTerms {
		needle := strings.ToLower(strings.TrimSpace(term))
		if needle == "" {
			continue
		}
		for _, idx := range boundedOccurrences(lower, needle) {
			start := idx - sentimentWindow
			if start < 0 {
				start = 0
			}
			end := idx + len(needle) + sentimentWindow
			if end > len(lower) {
				end = len(lower)
			}
			p, n := countSentimentWords(lower[start:end])
			positives += p
			negatives += n
		}
	}

	switch {
	case positives > negatives+1:
		return SentimentPositive
	case negatives > positives+1:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

func countSentimentWords(window string) (int, int) {
	positives, negatives := 0, 0
	for _, tok := range strings.Fields(normalize(window)) {
		if positiveWords[tok] {
			positives++
		}
		if negativeWords[tok] {
			negatives++
		}
	}
	return positives, negatives
}

// boundedOccurrences finds substring occurrences whose neighbors are not
// alphanumeric, so "acme" does not match inside "macmed".
func boundedOccurrences(haystack, needle string) []int {
	var out []int
	for from := 0; ; {
		idx := strings.Index(haystack[from:], needle)
		if idx < 0 {
			return out
		}
		abs := from + idx
		if boundaryBefore(haystack, abs) && boundaryAfter(haystack, abs+len(needle)) {
			out = append(out, abs)
		}
		from = abs + len(needle)
	}
}

func boundaryBefore(s string, idx int) bool {
	if idx == 0 {
		return true
	}
	r := rune(s[idx-1])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func boundaryAfter(s string, idx int) bool {
	if idx >= len(s) {
		return true
	}
	r := rune(s[idx])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
