package extraction

import "strings"

const maxTopics = 5

// topicVocabulary is the fixed topic set, in reporting order. Each topic
// carries the keyword patterns that imply it.
var topicVocabulary = []struct {
	topic    string
	keywords []string
}{
	{"pricing", []string{"price", "prices", "pricing", "cost", "costs", "cheap", "affordable", "subscription", "per month", "free tier", "free plan"}},
	{"features", []string{"feature", "features", "functionality", "capabilities", "capability"}},
	{"comparison", []string{"vs", "versus", "compared to", "comparison", "compare", "better than", "alternative to"}},
	{"reviews", []string{"review", "reviews", "rating", "ratings", "testimonial", "feedback"}},
	{"alternatives", []string{"alternative", "alternatives", "instead of", "competitor", "competitors", "similar to"}},
	{"integrations", []string{"integration", "integrations", "integrates", "api", "plugin", "plugins", "connects with"}},
	{"support", []string{"support", "customer service", "help desk", "documentation", "onboarding"}},
	{"security", []string{"security", "secure", "encryption", "compliance", "gdpr", "soc 2", "privacy"}},
	{"performance", []string{"performance", "fast", "speed", "latency", "uptime", "scalable", "scalability"}},
	{"usability", []string{"usability", "user friendly", "ease of use", "easy to use", "interface", "ux", "learning curve"}},
}

// InferTopics matches keyword patterns against the fixed topic vocabulary,
// capped at five topics in vocabulary order. It backs the deterministic
// path only; the LLM strategy reports its own topics.
func InferTopics(text string) []string {
	norm := " " + normalize(text) + " "

	var topics []string
	for _, entry := range topicVocabulary {
		for _, kw := range entry.keywords {
			if strings.Contains(norm, " "+normalize(kw)+" ") {
				topics = append(topics, entry.topic)
				break
			}
		}
		if len(topics) == maxTopics {
			break
		}
	}
	return topics
}
