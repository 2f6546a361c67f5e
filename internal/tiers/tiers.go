package tiers

import (
	"strings"
	"sync"
)

// Unlimited disables a limit when used as its value.
const Unlimited = -1

// Limits describes what a subscription tier allows.
type Limits struct {
	ProjectLimit      int `yaml:"projectLimit"`
	PromptsPerProject int `yaml:"promptsPerProject"`
	RunsPerMonth      int `yaml:"runsPerMonth"`
}

// IsUnlimitedRuns reports whether the monthly run gate is disabled.
func (l Limits) IsUnlimitedRuns() bool {
	return l.RunsPerMonth < 0
}

// defaultLimits is the built-in tier table. A YAML file can override it at
// runtime; unknown tiers always resolve to the free tier.
var defaultLimits = map[string]Limits{
	"free":    {ProjectLimit: 1, PromptsPerProject: 3, RunsPerMonth: 30},
	"starter": {ProjectLimit: 3, PromptsPerProject: 10, RunsPerMonth: 300},
	"growth":  {ProjectLimit: 10, PromptsPerProject: 50, RunsPerMonth: 2000},
	"scale":   {ProjectLimit: Unlimited, PromptsPerProject: Unlimited, RunsPerMonth: Unlimited},
}

// Registry resolves tier names to limits. It starts from the built-in table
// and can be overridden from a YAML file (see Loader).
type Registry struct {
	mu     sync.RWMutex
	limits map[string]Limits
}

// NewRegistry constructs a Registry seeded with the built-in table.
func NewRegistry() *Registry {
	limits := make(map[string]Limits, len(defaultLimits))
	for k, v := range defaultLimits {
		limits[k] = v
	}
	return &Registry{limits: limits}
}

// LimitsFor returns the limits for a tier name. Unknown or empty tiers
// resolve to the free tier.
func (r *Registry) LimitsFor(tier string) Limits {
	key := strings.ToLower(strings.TrimSpace(tier))
	r.mu.RLock()
	defer r.mu.RUnlock()
	if l, ok := r.limits[key]; ok {
		return l
	}
	return r.limits["free"]
}

// Replace swaps the table wholesale. Tiers absent from the new table fall
// back to the built-in defaults so "free" always exists.
func (r *Registry) Replace(limits map[string]Limits) {
	merged := make(map[string]Limits, len(defaultLimits)+len(limits))
	for k, v := range defaultLimits {
		merged[k] = v
	}
	for k, v := range limits {
		merged[strings.ToLower(strings.TrimSpace(k))] = v
	}
	r.mu.Lock()
	r.limits = merged
	r.mu.Unlock()
}

// Known returns the tier names currently in the table.
func (r *Registry) Known() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.limits))
	for k := range r.limits {
		out = append(out, k)
	}
	return out
}
