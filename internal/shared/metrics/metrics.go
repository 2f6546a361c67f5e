package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	runStartedTotal   atomic.Uint64
	runCompletedTotal atomic.Uint64
	runFailedTotal    atomic.Uint64

	jobEnqueuedTotal  atomic.Uint64
	jobCompletedTotal atomic.Uint64
	jobRetriedTotal   atomic.Uint64
	jobFailedTotal    atomic.Uint64

	skipBudgetTotal      atomic.Uint64
	skipConcurrencyTotal atomic.Uint64

	extractionFallbackTotal atomic.Uint64
	alertFiredTotal         atomic.Uint64

	providerDurationMu sync.Mutex
	providerDurations  = map[string]*histogram{}
)

var providerDurationBuckets = []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000}

// IncRunStarted increments the prompt run started counter.
func IncRunStarted() {
	runStartedTotal.Add(1)
}

// IncRunCompleted increments the prompt run completed counter.
func IncRunCompleted() {
	runCompletedTotal.Add(1)
}

// IncRunFailed increments the prompt run failed counter.
func IncRunFailed() {
	runFailedTotal.Add(1)
}

// IncJobEnqueued increments the job enqueued counter.
func IncJobEnqueued() {
	jobEnqueuedTotal.Add(1)
}

// IncJobCompleted increments the job completed counter.
func IncJobCompleted() {
	jobCompletedTotal.Add(1)
}

// IncJobRetried increments the job retried counter.
func IncJobRetried() {
	jobRetriedTotal.Add(1)
}

// IncJobFailed increments the terminal job failure counter.
func IncJobFailed() {
	jobFailedTotal.Add(1)
}

// IncSkipBudget increments the budget skip counter.
func IncSkipBudget() {
	skipBudgetTotal.Add(1)
}

// IncSkipConcurrency increments the concurrency skip counter.
func IncSkipConcurrency() {
	skipConcurrencyTotal.Add(1)
}

// IncExtractionFallback increments the extraction fallback counter.
func IncExtractionFallback() {
	extractionFallbackTotal.Add(1)
}

// IncAlertFired increments the alert fired counter.
func IncAlertFired() {
	alertFiredTotal.Add(1)
}

// ObserveProviderDurationMs records a provider round trip in milliseconds,
// labeled by provider name.
func ObserveProviderDurationMs(providerName string, value float64) {
	if value < 0 {
		value = 0
	}
	if providerName == "" {
		providerName = "unknown"
	}
	providerDurationMu.Lock()
	h, ok := providerDurations[providerName]
	if !ok {
		h = newHistogram(providerDurationBuckets)
		providerDurations[providerName] = h
	}
	providerDurationMu.Unlock()
	h.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "prompt_run_started_total", "Total prompt runs started", runStartedTotal.Load())
	writeCounter(&buf, "prompt_run_completed_total", "Total prompt runs completed", runCompletedTotal.Load())
	writeCounter(&buf, "prompt_run_failed_total", "Total prompt runs failed", runFailedTotal.Load())
	writeCounter(&buf, "job_enqueued_total", "Total jobs enqueued", jobEnqueuedTotal.Load())
	writeCounter(&buf, "job_completed_total", "Total jobs completed", jobCompletedTotal.Load())
	writeCounter(&buf, "job_retried_total", "Total job retries scheduled", jobRetriedTotal.Load())
	writeCounter(&buf, "job_failed_total", "Total terminal job failures", jobFailedTotal.Load())
	writeCounter(&buf, "skip_budget_total", "Total enqueues skipped on hard budget", skipBudgetTotal.Load())
	writeCounter(&buf, "skip_concurrency_total", "Total enqueues skipped on concurrency ceilings", skipConcurrencyTotal.Load())
	writeCounter(&buf, "extraction_fallback_total", "Total LLM extraction fallbacks to the lexical path", extractionFallbackTotal.Load())
	writeCounter(&buf, "alert_fired_total", "Total alert events written", alertFiredTotal.Load())
	writeProviderHistograms(&buf, "provider_duration_ms", "Provider round trip in milliseconds")
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeProviderHistograms(buf *bytes.Buffer, name, help string) {
	providerDurationMu.Lock()
	names := make([]string, 0, len(providerDurations))
	snaps := make(map[string]histogramSnapshot, len(providerDurations))
	for n, h := range providerDurations {
		names = append(names, n)
		snaps[n] = h.Snapshot()
	}
	providerDurationMu.Unlock()
	sort.Strings(names)

	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	for _, n := range names {
		snap := snaps[n]
		var cumulative uint64
		for i, bound := range snap.buckets {
			cumulative += snap.counts[i]
			fmt.Fprintf(buf, "%s_bucket{provider=%q,le=%q} %d\n", name, n, formatFloat(bound), cumulative)
		}
		fmt.Fprintf(buf, "%s_bucket{provider=%q,le=\"+Inf\"} %d\n", name, n, snap.count)
		fmt.Fprintf(buf, "%s_sum{provider=%q} %s\n", name, n, formatFloat(snap.sum))
		fmt.Fprintf(buf, "%s_count{provider=%q} %d\n", name, n, snap.count)
	}
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
