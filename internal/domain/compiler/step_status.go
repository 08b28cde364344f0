package compiler

// StepStatus represents the state of a step during planning or a run.
type StepStatus string

const (
	// StatusPending indicates the step has not been evaluated.
	StatusPending StepStatus = "pending"
	// StatusSatisfied indicates the step's desired state is already met.
	StatusSatisfied StepStatus = "satisfied"
	// StatusNeedsApply indicates the step needs to be applied.
	StatusNeedsApply StepStatus = "needs-apply"
	// StatusApplied indicates the step changed the host during this run.
	StatusApplied StepStatus = "applied"
	// StatusUnknown indicates the step's state could not be determined.
	StatusUnknown StepStatus = "unknown"
	// StatusFailed indicates the step failed during check or apply.
	StatusFailed StepStatus = "failed"
	// StatusSkipped indicates the step was skipped by its guard or a failed dependency.
	StatusSkipped StepStatus = "skipped"
)

// String returns the string representation of the status.
func (s StepStatus) String() string {
	return string(s)
}

// NeedsAction returns true if this status requires user attention or execution.
func (s StepStatus) NeedsAction() bool {
	switch s {
	case StatusNeedsApply, StatusUnknown, StatusFailed:
		return true
	case StatusPending, StatusSatisfied, StatusApplied, StatusSkipped:
		return false
	}
	return false
}

// IsTerminal returns true if this status represents a final state.
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StatusSatisfied, StatusApplied, StatusFailed, StatusSkipped:
		return true
	case StatusPending, StatusNeedsApply, StatusUnknown:
		return false
	}
	return false
}

// Changed reports whether the step modified the host.
func (s StepStatus) Changed() bool {
	return s == StatusApplied
}
