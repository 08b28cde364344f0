package execution

import (
	"time"

	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
)

// RunSummary counts step outcomes.
type RunSummary struct {
	Total      int
	Applied    int
	Satisfied  int
	NeedsApply int
	Skipped    int
	Failed     int
	Pending    int
}

// RunResult is the outcome of one provisioning run.
type RunResult struct {
	runID         string
	dryRun        bool
	results       []StepResult
	notifications []NotificationResult
	discarded     []QueuedNotification
	warnings      []string
	startedAt     time.Time
	finishedAt    time.Time
	aborted       bool
	err           error
}

// RunID returns the unique identifier of the run.
func (r *RunResult) RunID() string {
	return r.runID
}

// DryRun reports whether nothing was applied.
func (r *RunResult) DryRun() bool {
	return r.dryRun
}

// Results returns per-step results in declaration order.
func (r *RunResult) Results() []StepResult {
	out := make([]StepResult, len(r.results))
	copy(out, r.results)
	return out
}

// Result returns the result of one step.
func (r *RunResult) Result(id compiler.StepID) (StepResult, bool) {
	for _, res := range r.results {
		if res.StepID().Equals(id) {
			return res, true
		}
	}
	return StepResult{}, false
}

// Notifications returns the delayed notifications flushed (or previewed) after the steps.
func (r *RunResult) Notifications() []NotificationResult {
	out := make([]NotificationResult, len(r.notifications))
	copy(out, r.notifications)
	return out
}

// Discarded returns notifications dropped because the run aborted.
func (r *RunResult) Discarded() []QueuedNotification {
	out := make([]QueuedNotification, len(r.discarded))
	copy(out, r.discarded)
	return out
}

// Warnings returns non-fatal problems reported during the run.
func (r *RunResult) Warnings() []string {
	out := make([]string, len(r.warnings))
	copy(out, r.warnings)
	return out
}

// Duration returns the wall time of the run.
func (r *RunResult) Duration() time.Duration {
	return r.finishedAt.Sub(r.startedAt)
}

// StartedAt returns when the run began.
func (r *RunResult) StartedAt() time.Time {
	return r.startedAt
}

// Aborted reports whether a failure stopped the run before the last step.
func (r *RunResult) Aborted() bool {
	return r.aborted
}

// Err returns the error that aborted the run or failed a notification.
func (r *RunResult) Err() error {
	return r.err
}

// Success reports whether every step and notification succeeded.
func (r *RunResult) Success() bool {
	return r.err == nil && !r.aborted
}

// Changed reports whether any step modified the host.
func (r *RunResult) Changed() bool {
	for _, res := range r.results {
		if res.Changed() {
			return true
		}
	}
	return false
}

// Summary counts step outcomes.
func (r *RunResult) Summary() RunSummary {
	s := RunSummary{Total: len(r.results)}
	for _, res := range r.results {
		switch res.Status() {
		case compiler.StatusApplied:
			s.Applied++
		case compiler.StatusSatisfied:
			s.Satisfied++
		case compiler.StatusNeedsApply, compiler.StatusUnknown:
			s.NeedsApply++
		case compiler.StatusSkipped:
			s.Skipped++
		case compiler.StatusFailed:
			s.Failed++
		case compiler.StatusPending:
			s.Pending++
		}
	}
	return s
}
