package extraction

import "testing"

func TestInferTopics(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "single topic",
			text: "The pricing starts at $10 per seat.",
			want: []string{"pricing"},
		},
		{
			name: "multi-word keyword",
			text: "Acme compared to Globex holds up well.",
			want: []string{"comparison"},
		},
		{
			name: "vocabulary order preserved",
			text: "Great features, strong security, fair cost.",
			want: []string{"pricing", "features", "security"},
		},
		{
			name: "capped at five",
			text: "pricing features comparison reviews alternatives integrations support security",
			want: []string{"pricing", "features", "comparison", "reviews", "alternatives"},
		},
		{
			name: "no topics",
			text: "The sky is blue.",
			want: nil,
		},
		{
			name: "keyword needs word boundary",
			text: "The apiary is lovely.",
			want: nil,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := InferTopics(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("topics = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("topics = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}
