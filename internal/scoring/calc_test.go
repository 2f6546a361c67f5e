package scoring

import (
	"testing"

	"github.com/marcalaing/gpt-rank-sub000/internal/extraction"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name        string
		sig         extraction.Signals
		brandDomain string
		want        Breakdown
	}{
		{
			name: "single neutral mention",
			sig:  extraction.Signals{BrandMentionCount: 1, Sentiment: extraction.SentimentNeutral},
			want: Breakdown{Score: 20, MentionScore: 20, MentionCount: 1, Sentiment: "neutral"},
		},
		{
			name: "mention score caps at 60",
			sig:  extraction.Signals{BrandMentionCount: 10, Sentiment: extraction.SentimentNeutral},
			want: Breakdown{Score: 60, MentionScore: 60, MentionCount: 10, Sentiment: "neutral"},
		},
		{
			name: "positive sentiment adds 20",
			sig:  extraction.Signals{BrandMentionCount: 2, Sentiment: extraction.SentimentPositive},
			want: Breakdown{Score: 60, MentionScore: 40, SentimentBonus: 20, MentionCount: 2, Sentiment: "positive"},
		},
		{
			name: "negative sentiment subtracts 10",
			sig:  extraction.Signals{BrandMentionCount: 1, Sentiment: extraction.SentimentNegative},
			want: Breakdown{Score: 10, MentionScore: 20, SentimentBonus: -10, MentionCount: 1, Sentiment: "negative"},
		},
		{
			name: "negative with no mentions clamps at zero",
			sig:  extraction.Signals{BrandMentionCount: 0, Sentiment: extraction.SentimentNegative},
			want: Breakdown{Score: 0, SentimentBonus: -10, Sentiment: "negative"},
		},
		{
			name: "full house",
			sig: extraction.Signals{
				BrandMentionCount: 5,
				Sentiment:         extraction.SentimentPositive,
				CitedDomains:      []extraction.DomainCitation{{Domain: "acme.com", Count: 1}},
			},
			brandDomain: "acme.com",
			want:        Breakdown{Score: 100, MentionScore: 60, SentimentBonus: 20, CitationBonus: 20, MentionCount: 5, Sentiment: "positive"},
		},
		{
			name: "citation bonus via subdomain containment",
			sig: extraction.Signals{
				BrandMentionCount: 1,
				Sentiment:         extraction.SentimentNeutral,
				CitedDomains:      []extraction.DomainCitation{{Domain: "docs.acme.com", Count: 1}},
			},
			brandDomain: "acme.com",
			want:        Breakdown{Score: 40, MentionScore: 20, CitationBonus: 20, MentionCount: 1, Sentiment: "neutral"},
		},
		{
			name: "brand domain with www prefix still matches",
			sig: extraction.Signals{
				BrandMentionCount: 1,
				Sentiment:         extraction.SentimentNeutral,
				CitedDomains:      []extraction.DomainCitation{{Domain: "acme.com", Count: 1}},
			},
			brandDomain: "www.acme.com",
			want:        Breakdown{Score: 40, MentionScore: 20, CitationBonus: 20, MentionCount: 1, Sentiment: "neutral"},
		},
		{
			name: "unrelated domains earn nothing",
			sig: extraction.Signals{
				BrandMentionCount: 1,
				Sentiment:         extraction.SentimentNeutral,
				CitedDomains:      []extraction.DomainCitation{{Domain: "other.org", Count: 4}},
			},
			brandDomain: "acme.com",
			want:        Breakdown{Score: 20, MentionScore: 20, MentionCount: 1, Sentiment: "neutral"},
		},
		{
			name:        "empty brand domain never earns the bonus",
			sig:         extraction.Signals{BrandMentionCount: 1, Sentiment: extraction.SentimentNeutral, CitedDomains: []extraction.DomainCitation{{Domain: "acme.com"}}},
			brandDomain: "",
			want:        Breakdown{Score: 20, MentionScore: 20, MentionCount: 1, Sentiment: "neutral"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(tt.sig, tt.brandDomain)
			if got != tt.want {
				t.Errorf("Calculate = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCalculateIsIdempotent(t *testing.T) {
	sig := extraction.Signals{
		BrandMentionCount: 3,
		Sentiment:         extraction.SentimentPositive,
		CitedDomains:      []extraction.DomainCitation{{Domain: "acme.com", Count: 2}},
	}
	first := Calculate(sig, "acme.com")
	for i := 0; i < 3; i++ {
		if again := Calculate(sig, "acme.com"); again != first {
			t.Fatalf("run %d diverged: %+v vs %+v", i, again, first)
		}
	}
}
