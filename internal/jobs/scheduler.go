package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/marcalaing/gpt-rank-sub000/internal/audit"
	"github.com/marcalaing/gpt-rank-sub000/internal/projects"
	"github.com/marcalaing/gpt-rank-sub000/internal/prompts"
	"github.com/marcalaing/gpt-rank-sub000/internal/runs"
	"github.com/marcalaing/gpt-rank-sub000/internal/shared/metrics"
	"github.com/marcalaing/gpt-rank-sub000/internal/shared/telemetry"
)

// Config bounds one scheduler's enqueue and drain behavior. Zero fields fall
// back to the defaults below.
type Config struct {
	// BatchSize caps how many jobs one drain cycle claims.
	BatchSize int
	// EnqueueLimit caps how many due prompts one enqueue cycle considers.
	EnqueueLimit int
	// ProjectMaxRunning and OrgMaxRunning are the running-job ceilings
	// checked at enqueue and re-checked after a lock claim.
	ProjectMaxRunning int
	OrgMaxRunning     int
	// MaxAttempts is stamped onto new jobs; a job failing this many times
	// is terminally failed.
	MaxAttempts int
	// BackoffBase is the unit of the exponential retry delay.
	BackoffBase time.Duration
}

// DefaultConfig returns the stock scheduler limits.
func DefaultConfig() Config {
	return Config{
		BatchSize:         10,
		EnqueueLimit:      100,
		ProjectMaxRunning: 2,
		OrgMaxRunning:     3,
		MaxAttempts:       5,
		BackoffBase:       time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.BatchSize <= 0 {
		c.BatchSize = def.BatchSize
	}
	if c.EnqueueLimit <= 0 {
		c.EnqueueLimit = def.EnqueueLimit
	}
	if c.ProjectMaxRunning <= 0 {
		c.ProjectMaxRunning = def.ProjectMaxRunning
	}
	if c.OrgMaxRunning <= 0 {
		c.OrgMaxRunning = def.OrgMaxRunning
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = def.BackoffBase
	}
	return c
}

// backoff returns the retry delay after the given consumed attempt count:
// base doubled per attempt, unbounded, no jitter.
func backoff(base time.Duration, attempts int) time.Duration {
	return base * (1 << uint(attempts))
}

// TickStats reports what one scheduler cycle did.
type TickStats struct {
	Enqueued           int `json:"enqueued"`
	SkippedBudget      int `json:"skippedBudget"`
	SkippedConcurrency int `json:"skippedConcurrency"`
	Processed          int `json:"processed"`
	Failed             int `json:"failed"`
	Retried            int `json:"retried"`
}

func (s *TickStats) merge(o TickStats) {
	s.Enqueued += o.Enqueued
	s.SkippedBudget += o.SkippedBudget
	s.SkippedConcurrency += o.SkippedConcurrency
	s.Processed += o.Processed
	s.Failed += o.Failed
	s.Retried += o.Retried
}

// PromptRunner executes a single prompt run. Satisfied by runs.Runner.
type PromptRunner interface {
	RunPromptOnce(ctx context.Context, promptID, providerName, model string) (*runs.Result, error)
}

// Scheduler turns due prompt schedules into jobs and drains the queue. It is
// driven externally (cron tick endpoint or the scheduler daemon); each Tick
// runs one synchronous enqueue-then-drain cycle. Concurrent ticks are safe:
// job claims go through the repo's conditional lock write, and losing a race
// only means the row belongs to another cycle.
//
// The scheduler owns the caller-side effects of scheduled runs: spend
// accounting, budget audit entries and alert evaluation.
type Scheduler struct {
	Config          Config
	Jobs            Repo
	Prompts         prompts.Repo
	Projects        *projects.Service
	Runner          PromptRunner
	Audit           *audit.Service
	Alerts          runs.AlertSink
	DefaultProvider string
	// LockedBy names this drain owner in lock claims, e.g. host+pid.
	LockedBy string
	Now      func() time.Time
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Scheduler) lockerID() string {
	if s.LockedBy != "" {
		return s.LockedBy
	}
	return "scheduler"
}

func (s *Scheduler) providerName() string {
	if s.DefaultProvider != "" {
		return s.DefaultProvider
	}
	return "openai"
}

// Tick runs one enqueue-then-drain cycle and returns the merged counters.
func (s *Scheduler) Tick(ctx context.Context) (TickStats, error) {
	stats, enqErr := s.EnqueueDuePrompts(ctx)
	if enqErr != nil {
		telemetry.Error("jobs.enqueue_cycle_failed", map[string]any{"error": enqErr.Error()})
	}
	drained, drainErr := s.ProcessJobs(ctx)
	stats.merge(drained)
	if enqErr != nil {
		return stats, enqErr
	}
	return stats, drainErr
}

// EnqueueDuePrompts creates pending jobs for schedulable prompts whose next
// run is unset or has passed. A prompt whose project met the hard budget is
// skipped with a single audit entry; a prompt whose project or organization
// is at its running-job ceiling is counted as a concurrency skip. Neither
// skip advances the prompt's schedule, so it stays due for the next cycle.
func (s *Scheduler) EnqueueDuePrompts(ctx context.Context) (TickStats, error) {
	var stats TickStats
	cfg := s.Config.withDefaults()
	now := s.now().UTC()

	due, err := s.Prompts.ListDue(ctx, now, cfg.EnqueueLimit)
	if err != nil {
		return stats, fmt.Errorf("list due prompts: %w", err)
	}
	for _, p := range due {
		s.enqueueOne(ctx, cfg, now, p, &stats)
	}
	return stats, nil
}

func (s *Scheduler) enqueueOne(ctx context.Context, cfg Config, now time.Time, p prompts.Prompt, stats *TickStats) {
	project, err := s.Projects.Get(ctx, p.ProjectID)
	if err != nil {
		telemetry.Error("jobs.enqueue_project_load_failed", map[string]any{
			"promptId":  p.ID,
			"projectId": p.ProjectID,
			"error":     err.Error(),
		})
		return
	}

	if project.OverHardBudget() {
		stats.SkippedBudget++
		metrics.IncSkipBudget()
		s.Audit.Log(ctx, project.OrganizationID, project.ID, "scheduler", audit.ActionBudgetSkip, audit.MsgHardBudgetReached, map[string]any{
			"promptId":          p.ID,
			"currentMonthUsage": project.CurrentMonthUsage,
			"monthlyBudgetHard": project.MonthlyBudgetHard,
		})
		return
	}

	saturated, err := s.atCeiling(ctx, cfg, project.ID, project.OrganizationID)
	if err != nil {
		telemetry.Error("jobs.enqueue_ceiling_check_failed", map[string]any{
			"promptId": p.ID,
			"error":    err.Error(),
		})
		return
	}
	if saturated {
		stats.SkippedConcurrency++
		metrics.IncSkipConcurrency()
		return
	}

	job := Job{
		ID:             uuid.NewString(),
		Type:           TypePromptRun,
		Payload:        Payload{PromptID: p.ID, Provider: s.providerName()},
		Status:         StatusPending,
		MaxAttempts:    cfg.MaxAttempts,
		ScheduledFor:   now,
		ProjectID:      project.ID,
		OrganizationID: project.OrganizationID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Jobs.Create(ctx, job); err != nil {
		telemetry.Error("jobs.enqueue_failed", map[string]any{
			"promptId": p.ID,
			"error":    err.Error(),
		})
		return
	}
	stats.Enqueued++
	metrics.IncJobEnqueued()

	// An overdue prompt resumes its cadence from now; missed slots are not
	// replayed.
	from := now
	if p.NextRunAt != nil {
		from = *p.NextRunAt
	}
	next := prompts.NextRun(p.ScheduleCadence, from, now)
	if err := s.Prompts.AdvanceSchedule(ctx, p.ID, now, next); err != nil {
		// The job exists; the prompt will look due again next cycle and
		// may be enqueued twice.
		telemetry.Error("jobs.advance_schedule_failed", map[string]any{
			"promptId": p.ID,
			"jobId":    job.ID,
			"error":    err.Error(),
		})
	}
}

// ProcessJobs claims one batch of due jobs and runs them sequentially. A job
// whose project or organization became saturated between enqueue and claim
// is released without consuming an attempt.
func (s *Scheduler) ProcessJobs(ctx context.Context) (TickStats, error) {
	var stats TickStats
	cfg := s.Config.withDefaults()

	batch, err := s.Jobs.LockDue(ctx, s.now().UTC(), cfg.BatchSize, s.lockerID())
	if err != nil {
		return stats, fmt.Errorf("lock due jobs: %w", err)
	}
	for _, j := range batch {
		s.processOne(ctx, cfg, j, &stats)
	}
	return stats, nil
}

func (s *Scheduler) processOne(ctx context.Context, cfg Config, job Job, stats *TickStats) {
	saturated, err := s.atCeiling(ctx, cfg, job.ProjectID, job.OrganizationID)
	if err != nil {
		telemetry.Error("jobs.ceiling_check_failed", map[string]any{
			"jobId": job.ID,
			"error": err.Error(),
		})
		s.unlock(ctx, job.ID)
		return
	}
	if saturated {
		stats.SkippedConcurrency++
		metrics.IncSkipConcurrency()
		s.unlock(ctx, job.ID)
		return
	}

	running, err := s.Jobs.MarkRunning(ctx, job.ID)
	if err != nil {
		telemetry.Error("jobs.mark_running_failed", map[string]any{
			"jobId": job.ID,
			"error": err.Error(),
		})
		s.unlock(ctx, job.ID)
		return
	}
	job = running
	telemetry.Info("jobs.started", map[string]any{
		"jobId":             job.ID,
		"promptId":          job.Payload.PromptID,
		"attempts":          job.Attempts,
		"status_transition": "pending->running",
	})

	result, err := s.Runner.RunPromptOnce(ctx, job.Payload.PromptID, job.Payload.Provider, job.Payload.Model)
	switch {
	case err != nil:
		s.retryOrFail(ctx, cfg, job, err.Error(), stats)
	case result.LimitExceeded:
		// A quota skip is a policy outcome, not a failure; the note says
		// why the job produced no run.
		s.complete(ctx, job, "monthly run limit reached", stats)
	case result.Success:
		s.complete(ctx, job, "", stats)
		s.recordSuccess(ctx, job, result.Run)
	default:
		s.retryOrFail(ctx, cfg, job, result.Error, stats)
	}
}

func (s *Scheduler) atCeiling(ctx context.Context, cfg Config, projectID, orgID string) (bool, error) {
	projectRunning, err := s.Jobs.CountRunningByProject(ctx, projectID)
	if err != nil {
		return false, fmt.Errorf("count project running: %w", err)
	}
	if projectRunning >= cfg.ProjectMaxRunning {
		return true, nil
	}
	orgRunning, err := s.Jobs.CountRunningByOrg(ctx, orgID)
	if err != nil {
		return false, fmt.Errorf("count org running: %w", err)
	}
	return orgRunning >= cfg.OrgMaxRunning, nil
}

func (s *Scheduler) unlock(ctx context.Context, id string) {
	if err := s.Jobs.Unlock(ctx, id); err != nil {
		telemetry.Error("jobs.unlock_failed", map[string]any{"jobId": id, "error": err.Error()})
	}
}

func (s *Scheduler) complete(ctx context.Context, job Job, note string, stats *TickStats) {
	if err := s.Jobs.Complete(ctx, job.ID, note); err != nil {
		telemetry.Error("jobs.complete_mark_failed", map[string]any{
			"jobId": job.ID,
			"error": err.Error(),
		})
		return
	}
	stats.Processed++
	metrics.IncJobCompleted()
	telemetry.Info("jobs.completed", map[string]any{
		"jobId":             job.ID,
		"promptId":          job.Payload.PromptID,
		"note":              note,
		"status_transition": "running->completed",
	})
}

// recordSuccess applies the caller-side effects of a successful run: spend
// accounting with the soft-budget crossing warning, the audit trail and
// alert evaluation. None of these can fail the already-completed job.
func (s *Scheduler) recordSuccess(ctx context.Context, job Job, run *runs.PromptRun) {
	if run == nil {
		return
	}
	if run.Cost > 0 {
		before, loadErr := s.Projects.Get(ctx, job.ProjectID)
		if err := s.Projects.AddUsage(ctx, job.ProjectID, run.Cost); err != nil {
			telemetry.Warn("jobs.usage_add_failed", map[string]any{
				"jobId":     job.ID,
				"projectId": job.ProjectID,
				"error":     err.Error(),
			})
		} else if loadErr == nil {
			s.warnOnSoftBudgetCrossing(ctx, before, run.Cost)
		}
	}
	s.Audit.Log(ctx, job.OrganizationID, job.ProjectID, "scheduler", audit.ActionRunCompleted, "Prompt run completed", map[string]any{
		"jobId":    job.ID,
		"runId":    run.ID,
		"promptId": run.PromptID,
		"provider": run.Provider,
		"model":    run.Model,
		"cost":     run.Cost,
	})
	if s.Alerts != nil {
		s.Alerts.EvaluateRun(ctx, *run)
	}
}

// warnOnSoftBudgetCrossing writes one audit entry when this run's cost pushes
// the project from under to at-or-over the soft budget. Later runs in the
// same month stay silent.
func (s *Scheduler) warnOnSoftBudgetCrossing(ctx context.Context, before projects.Project, cost float64) {
	soft := before.MonthlyBudgetSoft
	if soft <= 0 || before.CurrentMonthUsage >= soft {
		return
	}
	after := before.CurrentMonthUsage + cost
	if after < soft {
		return
	}
	s.Audit.Log(ctx, before.OrganizationID, before.ID, "scheduler", audit.ActionBudgetWarning, audit.MsgSoftBudgetCrossed, map[string]any{
		"currentMonthUsage": after,
		"monthlyBudgetSoft": soft,
	})
}

func (s *Scheduler) retryOrFail(ctx context.Context, cfg Config, job Job, errMsg string, stats *TickStats) {
	maxAttempts := job.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = cfg.MaxAttempts
	}

	if job.Attempts < maxAttempts {
		delay := backoff(cfg.BackoffBase, job.Attempts)
		if err := s.Jobs.Reschedule(ctx, job.ID, s.now().UTC().Add(delay), errMsg); err != nil {
			telemetry.Error("jobs.reschedule_failed", map[string]any{
				"jobId": job.ID,
				"error": err.Error(),
			})
			return
		}
		stats.Retried++
		metrics.IncJobRetried()
		telemetry.Warn("jobs.retry_scheduled", map[string]any{
			"jobId":             job.ID,
			"promptId":          job.Payload.PromptID,
			"attempts":          job.Attempts,
			"delayMs":           delay.Milliseconds(),
			"error":             errMsg,
			"status_transition": "running->pending",
		})
		return
	}

	if err := s.Jobs.Fail(ctx, job.ID, errMsg); err != nil {
		telemetry.Error("jobs.fail_mark_failed", map[string]any{
			"jobId": job.ID,
			"error": err.Error(),
		})
		return
	}
	stats.Failed++
	metrics.IncJobFailed()
	telemetry.Warn("jobs.failed_terminal", map[string]any{
		"jobId":             job.ID,
		"promptId":          job.Payload.PromptID,
		"attempts":          job.Attempts,
		"error":             errMsg,
		"status_transition": "running->failed",
	})
	s.Audit.Log(ctx, job.OrganizationID, job.ProjectID, "scheduler", audit.ActionRunFailed, "Scheduled prompt run failed", map[string]any{
		"jobId":    job.ID,
		"promptId": job.Payload.PromptID,
		"attempts": job.Attempts,
		"error":    errMsg,
	})
}
