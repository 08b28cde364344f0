package execution

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
	"github.com/felixgeelhaar/stashprov/internal/domain/config"
)

// Planner previews a run without changing the host.
type Planner struct{}

// NewPlanner creates a new Planner.
func NewPlanner() *Planner {
	return &Planner{}
}

// Plan checks each step in declaration order. Steps whose guard does not hold
// are reported as skipped. A failing Check does not abort planning; the entry
// is reported as unknown with the error attached.
func (p *Planner) Plan(ctx context.Context, graph *compiler.StepGraph, settings config.Settings) (*Plan, error) {
	plan := NewExecutionPlan()
	runCtx := compiler.NewRunContext(ctx).WithDryRun(true).WithSettings(settings)
	statuses := make(map[string]compiler.StepStatus, graph.Len())

	for _, step := range graph.Steps() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry := p.planStep(step, runCtx, statuses)
		statuses[step.ID().String()] = entry.Status()
		plan.Add(entry)
	}

	return plan, nil
}

// planStep checks a single step and generates a PlanEntry. A Check error on a
// step whose dependency is still pending is reported as needing apply.
func (p *Planner) planStep(step compiler.Step, ctx compiler.RunContext, statuses map[string]compiler.StepStatus) PlanEntry {
	guard := compiler.GuardOf(step)
	if !guard.Allows(ctx.Settings()) {
		return NewPlanEntry(step, compiler.StatusSkipped, compiler.Diff{}).
			WithReason("guard not met: " + guard.Description())
	}

	status, err := step.Check(ctx)
	if err != nil {
		if dep, pending := pendingDependency(step, statuses); pending {
			return NewPlanEntry(step, compiler.StatusNeedsApply, compiler.Diff{}).
				WithReason(fmt.Sprintf("depends on pending change %s", dep))
		}
		return NewPlanEntry(step, compiler.StatusUnknown, compiler.Diff{}).
			WithError(compiler.NewCheckFailedError(step.ID().String(), err))
	}
	if status == compiler.StatusSatisfied {
		return NewPlanEntry(step, status, compiler.Diff{})
	}

	diff, err := step.Plan(ctx)
	if err != nil {
		return NewPlanEntry(step, compiler.StatusUnknown, compiler.Diff{}).
			WithError(compiler.NewStepError(compiler.ErrCodePlanFailed, "step could not describe its change").
				WithStepID(step.ID().String()).
				WithUnderlying(err))
	}
	return NewPlanEntry(step, compiler.StatusNeedsApply, diff)
}
