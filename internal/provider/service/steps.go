package service

import (
	"fmt"

	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
	"github.com/felixgeelhaar/stashprov/internal/ports"
	"github.com/felixgeelhaar/stashprov/internal/provider/template"
)

// EnableStep enables the service at boot and handles notifications sent to it.
type EnableStep struct {
	manager Manager
	id      compiler.StepID
	after   compiler.StepID
}

// NewEnableStep creates a new EnableStep.
func NewEnableStep(manager Manager, after compiler.StepID) *EnableStep {
	return &EnableStep{
		manager: manager,
		id:      compiler.MustNewStepID("service:enable:" + manager.Name()),
		after:   after,
	}
}

// ID returns the step identifier.
func (s *EnableStep) ID() compiler.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *EnableStep) DependsOn() []compiler.StepID {
	return []compiler.StepID{s.after}
}

// Check determines if the service starts at boot.
func (s *EnableStep) Check(ctx compiler.RunContext) (compiler.StepStatus, error) {
	enabled, err := s.manager.Enabled(ctx.Context())
	if err != nil {
		return compiler.StatusUnknown, err
	}
	if enabled {
		return compiler.StatusSatisfied, nil
	}
	return compiler.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *EnableStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeModify, "service", s.manager.Name(), "disabled", "enabled"), nil
}

// Apply enables the service.
func (s *EnableStep) Apply(ctx compiler.RunContext) error {
	if err := s.manager.Enable(ctx.Context()); err != nil {
		return fmt.Errorf("enable %s: %w", s.manager.Name(), err)
	}
	return nil
}

// Resource is the notification target this step answers to.
func (s *EnableStep) Resource() string {
	return template.ServiceResource(s.manager.Name())
}

// Handle performs a notified action such as restart.
func (s *EnableStep) Handle(ctx compiler.RunContext, action string) error {
	if log := ports.LoggerFromContext(ctx.Context()); log != nil {
		log.Info(ctx.Context(), "service action", ports.F("service", s.manager.Name()), ports.F("action", action))
	}
	return s.manager.Do(ctx.Context(), action)
}

// Explain provides a human-readable explanation.
func (s *EnableStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	return compiler.NewExplanation(
		"Enable service",
		fmt.Sprintf("Enables the %s service at boot through %s. Configuration changes restart it once, after all steps ran.",
			s.manager.Name(), s.manager.Kind()),
		nil,
	)
}

var _ compiler.NotificationHandler = (*EnableStep)(nil)
