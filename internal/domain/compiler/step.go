package compiler

// Step represents an idempotent unit of provisioning work.
// Each step can check the host, describe its change, and apply it.
type Step interface {
	// ID returns the unique identifier for this step.
	ID() StepID

	// DependsOn returns the IDs of earlier steps this one needs.
	DependsOn() []StepID

	// Check determines the current status of this step.
	// Returns StatusSatisfied if no action needed, StatusNeedsApply if changes required.
	Check(ctx RunContext) (StepStatus, error)

	// Plan returns the diff describing what changes this step will make.
	Plan(ctx RunContext) (Diff, error)

	// Apply executes the step's changes.
	// Running it against a converged host must be a no-op.
	Apply(ctx RunContext) error

	// Explain returns human-readable context for this step.
	Explain(ctx ExplainContext) Explanation
}

// GuardedStep runs only when its guard allows the current settings.
type GuardedStep interface {
	Step
	Guard() Guard
}

// BestEffortStep may fail without aborting the run.
type BestEffortStep interface {
	Step
	BestEffort() bool
}

// NotifyingStep emits notifications when it applies a change.
type NotifyingStep interface {
	Step
	Notifies() []Notification
}

// NotificationHandler receives notifications addressed to its resource.
type NotificationHandler interface {
	Step
	// Resource is the notification target this step answers to, e.g. "service:stash".
	Resource() string
	Handle(ctx RunContext, action string) error
}

// GuardOf returns the step's guard, or Always for unguarded steps.
func GuardOf(step Step) Guard {
	if g, ok := step.(GuardedStep); ok {
		return g.Guard()
	}
	return Always()
}

// IsBestEffort reports whether a failure of step is tolerated.
func IsBestEffort(step Step) bool {
	b, ok := step.(BestEffortStep)
	return ok && b.BestEffort()
}

// NotificationsOf returns the notifications a step emits on change.
func NotificationsOf(step Step) []Notification {
	n, ok := step.(NotifyingStep)
	if !ok {
		return nil
	}
	out := make([]Notification, len(n.Notifies()))
	copy(out, n.Notifies())
	return out
}
