// Package execution runs compiled steps in order and reports their outcome.
package execution

import (
	"time"

	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
)

// StepResult captures the outcome of executing a single step.
type StepResult struct {
	stepID   compiler.StepID
	status   compiler.StepStatus
	err      error
	duration time.Duration
	diff     compiler.Diff
	reason   string
	notified []compiler.Notification
}

// NewStepResult creates a new StepResult.
func NewStepResult(stepID compiler.StepID, status compiler.StepStatus, err error) StepResult {
	return StepResult{
		stepID: stepID,
		status: status,
		err:    err,
	}
}

// StepID returns the ID of the step that was executed.
func (r StepResult) StepID() compiler.StepID {
	return r.stepID
}

// Status returns the final status of the step.
func (r StepResult) Status() compiler.StepStatus {
	return r.status
}

// Error returns any error that occurred during execution.
func (r StepResult) Error() error {
	return r.err
}

// Duration returns how long the step took to execute.
func (r StepResult) Duration() time.Duration {
	return r.duration
}

// Diff returns the diff that was (or would be) applied.
func (r StepResult) Diff() compiler.Diff {
	return r.diff
}

// Reason explains a skip, e.g. the guard that did not hold.
func (r StepResult) Reason() string {
	return r.reason
}

// Notified returns the notifications raised by this step.
func (r StepResult) Notified() []compiler.Notification {
	out := make([]compiler.Notification, len(r.notified))
	copy(out, r.notified)
	return out
}

// Success returns true if the step reached its desired state.
func (r StepResult) Success() bool {
	return r.status == compiler.StatusSatisfied || r.status == compiler.StatusApplied
}

// Skipped returns true if the step was skipped.
func (r StepResult) Skipped() bool {
	return r.status == compiler.StatusSkipped
}

// Changed returns true if the step modified the host.
func (r StepResult) Changed() bool {
	return r.status.Changed()
}

// WithDuration returns a new StepResult with duration set.
func (r StepResult) WithDuration(d time.Duration) StepResult {
	r.duration = d
	return r
}

// WithDiff returns a new StepResult with diff set.
func (r StepResult) WithDiff(d compiler.Diff) StepResult {
	r.diff = d
	return r
}

// WithReason returns a new StepResult with reason set.
func (r StepResult) WithReason(reason string) StepResult {
	r.reason = reason
	return r
}

// WithNotified returns a new StepResult recording raised notifications.
func (r StepResult) WithNotified(n []compiler.Notification) StepResult {
	r.notified = make([]compiler.Notification, len(n))
	copy(r.notified, n)
	return r
}
