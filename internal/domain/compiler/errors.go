package compiler

import (
	"fmt"
	"strings"
)

// Error codes for compiler operations.
const (
	ErrCodeProviderFailed    = "PROVIDER_FAILED"
	ErrCodeStepDuplicate     = "STEP_DUPLICATE"
	ErrCodeStepNotFound      = "STEP_NOT_FOUND"
	ErrCodeDependencyMissing = "DEPENDENCY_MISSING"
	ErrCodePlanFailed        = "PLAN_FAILED"
	ErrCodeApplyFailed       = "APPLY_FAILED"
	ErrCodeCheckFailed       = "CHECK_FAILED"
	ErrCodeNotifyFailed      = "NOTIFY_FAILED"
	ErrCodeNoHandler         = "NO_HANDLER"
)

// StepError represents a user-friendly compiler error with actionable suggestions.
type StepError struct {
	Code       string // Error code for categorization
	Message    string // User-friendly error message
	Provider   string // Provider that caused the error
	StepID     string // Step ID if applicable
	Suggestion string // Actionable suggestion to fix the error
	Underlying error  // Wrapped error for error chain
}

// Error returns the formatted error message.
func (e *StepError) Error() string {
	var parts []string

	if e.Provider != "" {
		parts = append(parts, fmt.Sprintf("provider %q", e.Provider))
	}
	if e.StepID != "" {
		parts = append(parts, fmt.Sprintf("step %q", e.StepID))
	}

	if len(parts) > 0 {
		return fmt.Sprintf("%s: %s", strings.Join(parts, ", "), e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error for error chain support.
func (e *StepError) Unwrap() error {
	return e.Underlying
}

// Format returns a fully formatted error with all details.
func (e *StepError) Format() string {
	var b strings.Builder

	// Error code and message
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)

	// Provider context
	if e.Provider != "" {
		fmt.Fprintf(&b, "\n  Provider: %s", e.Provider)
	}

	// Step context
	if e.StepID != "" {
		fmt.Fprintf(&b, "\n  Step: %s", e.StepID)
	}

	// Suggestion
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n  Suggestion: %s", e.Suggestion)
	}

	// Underlying error
	if e.Underlying != nil {
		fmt.Fprintf(&b, "\n  Cause: %s", e.Underlying.Error())
	}

	return b.String()
}

// NewStepError creates a new StepError with the given code and message.
func NewStepError(code, message string) *StepError {
	return &StepError{
		Code:    code,
		Message: message,
	}
}

// WithProvider returns a new StepError with provider set.
func (e *StepError) WithProvider(provider string) *StepError {
	clone := *e
	clone.Provider = provider
	return &clone
}

// WithStepID returns a new StepError with step ID set.
func (e *StepError) WithStepID(stepID string) *StepError {
	clone := *e
	clone.StepID = stepID
	return &clone
}

// WithSuggestion returns a new StepError with suggestion set.
func (e *StepError) WithSuggestion(suggestion string) *StepError {
	clone := *e
	clone.Suggestion = suggestion
	return &clone
}

// WithUnderlying returns a new StepError wrapping another error.
func (e *StepError) WithUnderlying(err error) *StepError {
	clone := *e
	clone.Underlying = err
	return &clone
}

// Common compiler error constructors.

// NewProviderFailedError creates an error for provider compilation failure.
func NewProviderFailedError(provider string, err error) *StepError {
	return &StepError{
		Code:       ErrCodeProviderFailed,
		Message:    "provider failed to compile steps",
		Provider:   provider,
		Suggestion: "Run 'stashprov validate' to check the bundle and node attributes.",
		Underlying: err,
	}
}

// NewStepDuplicateError creates an error for duplicate step ID.
func NewStepDuplicateError(stepID string) *StepError {
	return &StepError{
		Code:       ErrCodeStepDuplicate,
		Message:    "step with this ID already exists in the graph",
		StepID:     stepID,
		Suggestion: "Each step must have a unique ID.",
	}
}

// NewDependencyMissingError creates an error for a dependency that is absent or declared too late.
func NewDependencyMissingError(stepID, dependsOn string) *StepError {
	return &StepError{
		Code:       ErrCodeDependencyMissing,
		Message:    fmt.Sprintf("step depends on '%s' which is not declared before it", dependsOn),
		StepID:     stepID,
		Suggestion: "Steps run in declaration order; register the provider of the dependency first.",
	}
}

// NewApplyFailedError creates an error for step apply failure.
func NewApplyFailedError(stepID string, err error) *StepError {
	return &StepError{
		Code:       ErrCodeApplyFailed,
		Message:    "step failed to apply",
		StepID:     stepID,
		Suggestion: "Fix the cause and run 'stashprov apply' again; completed steps are skipped.",
		Underlying: err,
	}
}

// NewCheckFailedError creates an error for step check failure.
func NewCheckFailedError(stepID string, err error) *StepError {
	return &StepError{
		Code:       ErrCodeCheckFailed,
		Message:    "step status check failed",
		StepID:     stepID,
		Suggestion: "The step could not determine its current status. This may be a transient error.",
		Underlying: err,
	}
}

// NewNotifyFailedError creates an error for a failed notification action.
func NewNotifyFailedError(stepID string, n Notification, err error) *StepError {
	return &StepError{
		Code:       ErrCodeNotifyFailed,
		Message:    fmt.Sprintf("notification %q failed", n.Action+" "+n.Resource),
		StepID:     stepID,
		Suggestion: "Check the service logs; the configuration changes were already written.",
		Underlying: err,
	}
}

// NewNoHandlerError creates an error for a notification nobody handles.
func NewNoHandlerError(n Notification) *StepError {
	return &StepError{
		Code:       ErrCodeNoHandler,
		Message:    fmt.Sprintf("no step handles notifications for %q", n.Resource),
		Suggestion: "Notifications must target a resource declared in the recipe.",
	}
}
