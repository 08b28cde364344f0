package execution

import (
	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
)

// PlanEntry represents a single step's planned execution.
type PlanEntry struct {
	step   compiler.Step
	status compiler.StepStatus
	diff   compiler.Diff
	reason string
	err    error
}

// NewPlanEntry creates a new PlanEntry.
func NewPlanEntry(step compiler.Step, status compiler.StepStatus, diff compiler.Diff) PlanEntry {
	return PlanEntry{
		step:   step,
		status: status,
		diff:   diff,
	}
}

// Step returns the step to be executed.
func (e PlanEntry) Step() compiler.Step {
	return e.step
}

// Status returns the current status of the step.
func (e PlanEntry) Status() compiler.StepStatus {
	return e.status
}

// Diff returns the planned changes.
func (e PlanEntry) Diff() compiler.Diff {
	return e.diff
}

// Reason explains a skipped entry.
func (e PlanEntry) Reason() string {
	return e.reason
}

// Error returns why the status could not be determined.
func (e PlanEntry) Error() error {
	return e.err
}

// Notifications returns what the step would notify if applied.
func (e PlanEntry) Notifications() []compiler.Notification {
	if e.status != compiler.StatusNeedsApply {
		return nil
	}
	return compiler.NotificationsOf(e.step)
}

// WithReason returns a new PlanEntry with reason set.
func (e PlanEntry) WithReason(reason string) PlanEntry {
	e.reason = reason
	return e
}

// WithError returns a new PlanEntry with err set.
func (e PlanEntry) WithError(err error) PlanEntry {
	e.err = err
	return e
}

// PlanSummary provides aggregate statistics about the execution plan.
type PlanSummary struct {
	Total      int
	NeedsApply int
	Satisfied  int
	Unknown    int
	Skipped    int
}

// Plan represents the full plan for executing all steps.
type Plan struct {
	entries []PlanEntry
}

// NewExecutionPlan creates an empty Plan.
func NewExecutionPlan() *Plan {
	return &Plan{
		entries: make([]PlanEntry, 0),
	}
}

// Add appends a plan entry.
func (p *Plan) Add(entry PlanEntry) {
	p.entries = append(p.entries, entry)
}

// Len returns the number of entries.
func (p *Plan) Len() int {
	return len(p.entries)
}

// IsEmpty returns true if there are no entries.
func (p *Plan) IsEmpty() bool {
	return len(p.entries) == 0
}

// Entries returns all plan entries in declaration order.
func (p *Plan) Entries() []PlanEntry {
	out := make([]PlanEntry, len(p.entries))
	copy(out, p.entries)
	return out
}

// NeedsApply returns entries that require execution.
func (p *Plan) NeedsApply() []PlanEntry {
	result := make([]PlanEntry, 0)
	for _, e := range p.entries {
		if e.status == compiler.StatusNeedsApply {
			result = append(result, e)
		}
	}
	return result
}

// HasChanges returns true if any steps need to be applied.
func (p *Plan) HasChanges() bool {
	return len(p.NeedsApply()) > 0
}

// Notifications returns the distinct delayed notifications the plan would raise,
// in first-raised order.
func (p *Plan) Notifications() []compiler.Notification {
	queue := newNotificationQueue()
	for _, e := range p.entries {
		for _, n := range e.Notifications() {
			if !n.IsImmediate() {
				queue.Add(n, e.step.ID())
			}
		}
	}
	drained := queue.Drain()
	out := make([]compiler.Notification, len(drained))
	for i, q := range drained {
		out[i] = q.Notification
	}
	return out
}

// Summary returns aggregate statistics.
func (p *Plan) Summary() PlanSummary {
	summary := PlanSummary{Total: len(p.entries)}
	for _, e := range p.entries {
		switch e.status {
		case compiler.StatusNeedsApply:
			summary.NeedsApply++
		case compiler.StatusSatisfied:
			summary.Satisfied++
		case compiler.StatusUnknown:
			summary.Unknown++
		case compiler.StatusSkipped:
			summary.Skipped++
		}
	}
	return summary
}
