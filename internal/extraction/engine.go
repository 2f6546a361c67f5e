package extraction

import (
	"context"

	"github.com/marcalaing/gpt-rank-sub000/internal/shared/metrics"
	"github.com/marcalaing/gpt-rank-sub000/internal/shared/telemetry"
)

// Engine runs the primary strategy and silently degrades to the fallback
// on any primary failure. Extract is the only entry point and never
// returns an error: extraction failing must not fail the run that
// produced the text.
type Engine struct {
	Primary  Strategy
	Fallback Strategy
}

// NewEngine builds an engine. Primary may be nil, in which case the
// fallback runs directly.
func NewEngine(primary, fallback Strategy) *Engine {
	return &Engine{Primary: primary, Fallback: fallback}
}

// Extract produces Signals for the input, falling back on primary failure.
func (e *Engine) Extract(ctx context.Context, in Input) Signals {
	if e.Primary != nil {
		sig, err := e.Primary.Extract(ctx, in)
		if err == nil {
			return sig
		}
		metrics.IncExtractionFallback()
		telemetry.Warn("extraction.fallback", map[string]any{
			"strategy": e.Primary.Name(),
			"error":    err.Error(),
		})
	}

	sig, err := e.Fallback.Extract(ctx, in)
	if err != nil {
		// The deterministic strategy does not fail; this guards a
		// misconfigured engine.
		telemetry.Error("extraction.fallback_failed", map[string]any{
			"strategy": e.Fallback.Name(),
			"error":    err.Error(),
		})
		return Signals{Sentiment: SentimentNeutral}
	}
	return sig
}
