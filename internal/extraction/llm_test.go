package extraction

import "testing"

func knownCompetitors() []CompetitorTerms {
	return []CompetitorTerms{
		{ID: "c1", Name: "Globex", Terms: []string{"Globex", "GX"}},
		{ID: "c2", Name: "Initech", Terms: []string{"Initech"}},
	}
}

func TestMapExtractionCollapsesMixedSentiment(t *testing.T) {
	sig, err := mapExtraction(llmExtraction{Sentiment: "mixed"}, Input{})
	if err != nil {
		t.Fatalf("mapExtraction: %v", err)
	}
	if sig.Sentiment != SentimentNeutral {
		t.Errorf("sentiment = %q, want neutral", sig.Sentiment)
	}
}

func TestMapExtractionResolvesCompetitors(t *testing.T) {
	parsed := llmExtraction{
		Sentiment: "positive",
		CompetitorMentions: []llmMention{
			{Name: "globex", Count: 2},  // case-insensitive name match
			{Name: "GX", Count: 1},      // synonym resolves to the same competitor
			{Name: "Unknown Co", Count: 5}, // not in the known list
			{Name: "Initech", Count: 0}, // zero counts are dropped
		},
	}
	sig, err := mapExtraction(parsed, Input{Competitors: knownCompetitors()})
	if err != nil {
		t.Fatalf("mapExtraction: %v", err)
	}

	if len(sig.CompetitorMentions) != 1 {
		t.Fatalf("mentions = %+v, want one resolved competitor", sig.CompetitorMentions)
	}
	m := sig.CompetitorMentions[0]
	if m.ID != "c1" || m.Name != "Globex" || m.Count != 3 {
		t.Errorf("mention = %+v, want c1/Globex/3 merged", m)
	}
}

func TestMapExtractionGroupsCitedURLs(t *testing.T) {
	parsed := llmExtraction{
		Sentiment: "neutral",
		CitedUrls: []string{
			"https://www.example.com/a",
			"https://example.com/b",
			"garbage",
		},
	}
	sig, err := mapExtraction(parsed, Input{})
	if err != nil {
		t.Fatalf("mapExtraction: %v", err)
	}
	if len(sig.CitedDomains) != 1 || sig.CitedDomains[0].Domain != "example.com" || sig.CitedDomains[0].Count != 2 {
		t.Errorf("domains = %+v, want example.com/2", sig.CitedDomains)
	}
}

func TestMapExtractionRejectsBadShapes(t *testing.T) {
	cases := []struct {
		name   string
		parsed llmExtraction
	}{
		{"unknown sentiment", llmExtraction{Sentiment: "enthusiastic"}},
		{"empty sentiment", llmExtraction{}},
		{"negative mention count", llmExtraction{Sentiment: "neutral", BrandMentionCount: -1}},
		{"negative competitor count", llmExtraction{
			Sentiment:          "neutral",
			CompetitorMentions: []llmMention{{Name: "Globex", Count: -2}},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := mapExtraction(tc.parsed, Input{Competitors: knownCompetitors()}); err == nil {
				t.Error("expected shape validation error")
			}
		})
	}
}

func TestMapExtractionReconcilesMentionFlag(t *testing.T) {
	sig, err := mapExtraction(llmExtraction{Sentiment: "neutral", BrandMentionCount: 2}, Input{})
	if err != nil {
		t.Fatalf("mapExtraction: %v", err)
	}
	if !sig.BrandMentioned {
		t.Error("count > 0 must imply mentioned")
	}
}

func TestMapExtractionCapsTopics(t *testing.T) {
	parsed := llmExtraction{
		Sentiment: "neutral",
		Topics:    []string{"a", "b", "c", "d", "e", "f", "g"},
	}
	sig, err := mapExtraction(parsed, Input{})
	if err != nil {
		t.Fatalf("mapExtraction: %v", err)
	}
	if len(sig.Topics) != 5 {
		t.Errorf("topics = %v, want capped at 5", sig.Topics)
	}
}
