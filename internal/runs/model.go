package runs

import (
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/marcalaing/gpt-rank-sub000/internal/extraction"
)

// Run statuses. A run is created as started before the provider call and
// moves to exactly one terminal state.
const (
	StatusStarted   = "started"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Metadata is the response_metadata jsonb blob on a run: token usage and
// latency on success, the sanitized error and its class on failure, and the
// object-store key when the raw payload was archived.
type Metadata struct {
	PromptTokens     int    `json:"promptTokens,omitempty"`
	CompletionTokens int    `json:"completionTokens,omitempty"`
	TotalTokens      int    `json:"totalTokens,omitempty"`
	DurationMs       int64  `json:"durationMs,omitempty"`
	Error            string `json:"error,omitempty"`
	FailureClass     string `json:"failureClass,omitempty"`
	ArchiveKey       string `json:"archiveKey,omitempty"`
}

// PromptRun records one execution attempt of a prompt against a provider.
// OrganizationID is denormalized from the project so monthly quota queries
// never need a join.
type PromptRun struct {
	ID             string
	PromptID       string
	ProjectID      string
	OrganizationID string
	Provider       string
	Model          string
	Status         string
	RawResponse    *string
	Signals        *extraction.Signals
	Metadata       Metadata
	Cost           float64
	CompletedAt    *time.Time
	CreatedAt      time.Time
}

// Completed reports whether the run finished with a parsed answer.
func (r PromptRun) Completed() bool {
	return r.Status == StatusCompleted
}

// Citation is one source URL a provider attached to an answer. Position
// preserves the provider's ordering; IsPrimary marks citations of the
// tracked brand's own site.
type Citation struct {
	ID        string
	RunID     string
	URL       string
	Title     string
	Snippet   string
	Domain    string
	Position  int
	IsPrimary bool
	CreatedAt time.Time
}

// IsPrimarySource reports whether a cited domain belongs to the brand's own
// site: both sides reduce to the same registrable domain, so a citation of
// docs.acme.com counts for a brand at acme.com.
func IsPrimarySource(domain, brandDomain string) bool {
	if domain == "" || brandDomain == "" {
		return false
	}
	return registrableDomain(domain) == registrableDomain(brandDomain)
}

func registrableDomain(host string) string {
	host = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(host)), "www.")
	if etld, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return etld
	}
	return host
}
