package provider

import "testing"

func TestEstimateCostKnownModel(t *testing.T) {
	usage := &Usage{PromptTokens: 2000, CompletionTokens: 1000}
	got := EstimateCost("openai", "gpt-4o", usage)
	want := 2*0.0025 + 1*0.01
	if got != want {
		t.Errorf("EstimateCost = %v, want %v", got, want)
	}
}

func TestEstimateCostDatedVariantUsesBaseRate(t *testing.T) {
	usage := &Usage{PromptTokens: 1000, CompletionTokens: 1000}
	base := EstimateCost("openai", "gpt-4o-mini", usage)
	dated := EstimateCost("openai", "gpt-4o-mini-2024-07-18", usage)
	if base != dated {
		t.Errorf("dated variant = %v, base = %v; want equal", dated, base)
	}
}

func TestEstimateCostLongestPrefixWins(t *testing.T) {
	usage := &Usage{PromptTokens: 1000, CompletionTokens: 0}
	mini := EstimateCost("openai", "gpt-4.1-mini-2025-04-14", usage)
	if want := 0.0004; mini != want {
		t.Errorf("gpt-4.1-mini variant input rate = %v, want %v", mini, want)
	}
}

func TestEstimateCostUnknownModelUsesDefault(t *testing.T) {
	usage := &Usage{PromptTokens: 1000, CompletionTokens: 1000}
	got := EstimateCost("someprovider", "mystery-model", usage)
	want := defaultRate.Input + defaultRate.Output
	if got != want {
		t.Errorf("EstimateCost = %v, want default %v", got, want)
	}
}

func TestEstimateCostNilUsage(t *testing.T) {
	if got := EstimateCost("openai", "gpt-4o", nil); got != 0 {
		t.Errorf("EstimateCost(nil) = %v, want 0", got)
	}
}

func TestRegistryForName(t *testing.T) {
	reg := NewRegistry(Placeholder{ProviderName: "openai"})

	if _, err := reg.ForName("openai"); err != nil {
		t.Errorf("ForName(openai): %v", err)
	}
	if _, err := reg.ForName(" OpenAI "); err != nil {
		t.Errorf("ForName with case/space: %v", err)
	}
	if _, err := reg.ForName("perplexity"); err == nil {
		t.Error("unregistered provider must error")
	}
}
