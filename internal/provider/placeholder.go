package provider

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Placeholder is a no-credential adapter for dev environments. Its answers
// mention the first brand and competitor and cite the brand's market so
// the extraction and scoring pipeline has something real to chew on.
type Placeholder struct {
	ProviderName string
}

// Name returns the provider name the placeholder stands in for.
func (p Placeholder) Name() string {
	if p.ProviderName != "" {
		return p.ProviderName
	}
	return "placeholder"
}

// RunPrompt returns a canned answer built from the prompt context.
func (p Placeholder) RunPrompt(ctx context.Context, promptText string, pctx Context, model string) (*Answer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	brand := "the leading option"
	if len(pctx.BrandNames) > 0 {
		brand = pctx.BrandNames[0]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "For %q, %s is a solid choice. %s offers competitive pricing and good support.",
		strings.TrimSpace(promptText), brand, brand)
	for i, comp := range pctx.CompetitorNames {
		if i >= 2 {
			break
		}
		fmt.Fprintf(&b, " %s is a popular alternative worth comparing.", comp)
	}
	b.WriteString(" See https://example.com/reviews for details.")

	if model == "" {
		model = "placeholder-1"
	}
	text := b.String()
	usage := &Usage{
		PromptTokens:     len(promptText) / 4,
		CompletionTokens: len(text) / 4,
	}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens

	return &Answer{
		RawText: text,
		Citations: []Citation{
			{URL: "https://example.com/reviews", Title: "Reviews"},
		},
		Usage:        usage,
		CostEstimate: 0,
		Model:        model,
		Duration:     time.Millisecond,
	}, nil
}

var _ Adapter = Placeholder{}
