package provider

import (
	"context"
	"time"
)

// Context carries the project's tracked names into the provider call so
// adapters can bias their system instructions toward the brand's market.
type Context struct {
	BrandNames      []string
	CompetitorNames []string
	Locale          string
}

// Usage reports token consumption for one answer.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// Citation is a source the provider attached to its answer.
type Citation struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// Answer is the raw outcome of one prompt execution.
type Answer struct {
	RawText      string
	Citations    []Citation
	Usage        *Usage
	CostEstimate float64
	Model        string
	Duration     time.Duration
}

// Adapter executes a prompt against one provider. Implementations must
// honor ctx cancellation and bound the request with their configured
// timeout; an answer and an error are mutually exclusive.
type Adapter interface {
	Name() string
	RunPrompt(ctx context.Context, promptText string, pctx Context, model string) (*Answer, error)
}
