package extraction

import "testing"

func TestScanSentiment(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		terms []string
		want  string
	}{
		{
			name:  "clearly positive",
			text:  "Acme is the best and most reliable option available today.",
			terms: []string{"Acme"},
			want:  SentimentPositive,
		},
		{
			name:  "clearly negative",
			text:  "Avoid Acme: it is slow, buggy and expensive.",
			terms: []string{"Acme"},
			want:  SentimentNegative,
		},
		{
			name:  "single positive word is within the tie margin",
			text:  "Acme is a great tool.",
			terms: []string{"Acme"},
			want:  SentimentNeutral,
		},
		{
			name:  "balanced reads neutral",
			text:  "Acme is great and reliable but slow and expensive.",
			terms: []string{"Acme"},
			want:  SentimentNeutral,
		},
		{
			name:  "keywords outside the window do not count",
			text:  "Acme exists. " + filler(120) + " Everything else here is the best, great, excellent and outstanding.",
			terms: []string{"Acme"},
			want:  SentimentNeutral,
		},
		{
			name:  "no brand occurrence",
			text:  "This excellent answer never names the brand.",
			terms: []string{"Acme"},
			want:  SentimentNeutral,
		},
		{
			name:  "no brand terms",
			text:  "The best, great, excellent product.",
			terms: nil,
			want:  SentimentNeutral,
		},
		{
			name:  "window at text start",
			text:  "Acme: best in class, excellent support.",
			terms: []string{"Acme"},
			want:  SentimentPositive,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := scanSentiment(tt.text, tt.terms); got != tt.want {
				t.Errorf("scanSentiment = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBoundedOccurrences(t *testing.T) {
	got := boundedOccurrences("acme, acme's friend macme acmeish", "acme")
	// "acme" at 0 and 6 have boundaries; "macme" and "acmeish" do not.
	if len(got) != 2 || got[0] != 0 || got[1] != 6 {
		t.Errorf("occurrences = %v, want [0 6]", got)
	}
}

func filler(n int) string {
	out := make([]byte, n)
	for i := range out {
		out[i] = 'x'
	}
	return string(out)
}
