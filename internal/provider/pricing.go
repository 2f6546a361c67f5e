package provider

import "strings"

// rate is USD per 1000 tokens.
type rate struct {
	Input  float64
	Output float64
}

// Pricing keyed "provider/model". Kept in rough sync with published list
// prices; exact billing reconciliation happens outside this system, the
// estimate only feeds the project budget counters.
var pricing = map[string]rate{
	"openai/gpt-4o":               {Input: 0.0025, Output: 0.01},
	"openai/gpt-4o-mini":          {Input: 0.00015, Output: 0.0006},
	"openai/gpt-4.1":              {Input: 0.002, Output: 0.008},
	"openai/gpt-4.1-mini":         {Input: 0.0004, Output: 0.0016},
	"anthropic/claude-sonnet-4-0": {Input: 0.003, Output: 0.015},
	"anthropic/claude-3-5-haiku":  {Input: 0.0008, Output: 0.004},
	"anthropic/claude-opus-4-0":   {Input: 0.015, Output: 0.075},
}

var defaultRate = rate{Input: 0.003, Output: 0.015}

// EstimateCost returns the estimated USD cost of an answer from its token
// usage. Unknown models fall back to a conservative default rate; nil
// usage estimates as zero.
func EstimateCost(providerName, model string, usage *Usage) float64 {
	if usage == nil {
		return 0
	}
	key := strings.ToLower(providerName) + "/" + strings.ToLower(model)
	r, ok := pricing[key]
	if !ok {
		r = lookupByPrefix(key)
	}
	return float64(usage.PromptTokens)/1000*r.Input + float64(usage.CompletionTokens)/1000*r.Output
}

// lookupByPrefix matches dated model variants (e.g. gpt-4o-2024-08-06)
// against their base entry. Longest prefix wins so gpt-4.1-mini does not
// resolve to the gpt-4.1 rate.
func lookupByPrefix(key string) rate {
	best := defaultRate
	bestLen := 0
	for known, r := range pricing {
		if strings.HasPrefix(key, known) && len(known) > bestLen {
			best = r
			bestLen = len(known)
		}
	}
	return best
}
