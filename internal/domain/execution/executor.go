package execution

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
	"github.com/felixgeelhaar/stashprov/internal/domain/config"
	"github.com/felixgeelhaar/stashprov/internal/ports"
)

// Executor runs a compiled StepGraph in declaration order.
//
// For each step the guard is evaluated first, then Check, then Apply when the
// step is not yet satisfied. Delayed notifications from applied steps are
// coalesced and delivered once after the last step. A failing step aborts the
// run unless it is best-effort; the remaining steps stay pending and queued
// notifications are discarded.
type Executor struct {
	dryRun bool
	now    func() time.Time
	newID  func() string
}

// NewExecutor creates a new Executor.
func NewExecutor() *Executor {
	return &Executor{
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// WithDryRun returns an Executor that checks steps without applying them.
func (e *Executor) WithDryRun(dryRun bool) *Executor {
	clone := *e
	clone.dryRun = dryRun
	return &clone
}

// Run executes every step in graph against settings.
// The returned RunResult is never nil; the error is the cause of an abort or
// of a failed notification.
func (e *Executor) Run(ctx context.Context, graph *compiler.StepGraph, settings config.Settings) (*RunResult, error) {
	result := &RunResult{
		runID:     e.newID(),
		dryRun:    e.dryRun,
		warnings:  settings.Warnings(),
		startedAt: e.now(),
	}
	defer func() { result.finishedAt = e.now() }()

	log := loggerFor(ctx).With(ports.F("run_id", result.runID))
	for _, w := range result.warnings {
		log.Warn(ctx, w)
	}

	runCtx := compiler.NewRunContext(ctx).WithDryRun(e.dryRun).WithSettings(settings)
	queue := newNotificationQueue()
	statuses := make(map[string]compiler.StepStatus, graph.Len())

	steps := graph.Steps()
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			result.abort(steps[i:], err)
			break
		}

		res, err := e.runStep(runCtx, graph, step, statuses, queue)
		if err != nil {
			// Lifecycle errors mean the executor itself is broken.
			result.abort(steps[i:], err)
			break
		}
		result.results = append(result.results, res)
		statuses[step.ID().String()] = res.Status()

		fields := []ports.Field{ports.F("step", step.ID().String()), ports.F("status", res.Status().String())}
		if res.Status() == compiler.StatusFailed {
			log.Error(ctx, "step failed", append(fields, ports.Err(res.Error()))...)
			if compiler.IsBestEffort(step) {
				continue
			}
			result.abort(steps[i+1:], res.Error())
			break
		}
		log.Debug(ctx, "step finished", fields...)
	}

	if result.aborted {
		result.discarded = queue.Drain()
		for _, q := range result.discarded {
			log.Warn(ctx, "notification discarded", ports.F("notification", q.Notification.String()))
		}
		return result, result.err
	}

	result.notifications = e.flush(runCtx, graph, queue, log)
	for _, n := range result.notifications {
		if n.Err != nil && result.err == nil {
			result.err = n.Err
		}
	}
	return result, result.err
}

// abort marks the remaining steps pending and records the cause.
func (r *RunResult) abort(remaining []compiler.Step, cause error) {
	r.aborted = true
	r.err = cause
	for _, step := range remaining {
		r.results = append(r.results, NewStepResult(step.ID(), compiler.StatusPending, nil).
			WithReason("not run: an earlier step failed"))
	}
}

// runStep evaluates one step and drives its lifecycle.
func (e *Executor) runStep(
	ctx compiler.RunContext,
	graph *compiler.StepGraph,
	step compiler.Step,
	statuses map[string]compiler.StepStatus,
	queue *notificationQueue,
) (StepResult, error) {
	id := step.ID()
	lc, err := newLifecycle(id)
	if err != nil {
		return StepResult{}, err
	}
	defer lc.stop()

	for _, dep := range step.DependsOn() {
		if statuses[dep.String()] == compiler.StatusFailed {
			return NewStepResult(id, compiler.StatusSkipped, nil).
				WithReason(fmt.Sprintf("dependency %s failed", dep)), lc.advance(eventSkip, compiler.StatusSkipped)
		}
	}

	guard := compiler.GuardOf(step)
	if !guard.Allows(ctx.Settings()) {
		return NewStepResult(id, compiler.StatusSkipped, nil).
			WithReason("guard not met: " + guard.Description()), lc.advance(eventSkip, compiler.StatusSkipped)
	}

	start := e.now()
	var reason string
	status, err := step.Check(ctx)
	if err != nil {
		// In a dry run the host a dependency would create does not exist yet,
		// so a Check that cannot reach it is reported as pending, not failed.
		dep, pending := pendingDependency(step, statuses)
		if !ctx.DryRun() || !pending {
			return NewStepResult(id, compiler.StatusFailed, compiler.NewCheckFailedError(id.String(), err)).
				WithDuration(e.now().Sub(start)), lc.advance(eventFail, compiler.StatusFailed)
		}
		status = compiler.StatusNeedsApply
		reason = fmt.Sprintf("depends on pending change %s", dep)
	}
	if status == compiler.StatusSatisfied {
		return NewStepResult(id, compiler.StatusSatisfied, nil).
			WithDuration(e.now().Sub(start)), lc.advance(eventSatisfy, compiler.StatusSatisfied)
	}

	if err := lc.advance(eventNeedsApply, compiler.StatusNeedsApply); err != nil {
		return StepResult{}, err
	}
	var diff compiler.Diff
	if reason == "" {
		if diff, err = step.Plan(ctx); err != nil {
			diff = compiler.Diff{}
		}
	}

	notifications := compiler.NotificationsOf(step)
	if ctx.DryRun() {
		for _, n := range notifications {
			if !n.IsImmediate() {
				queue.Add(n, id)
			}
		}
		return NewStepResult(id, compiler.StatusNeedsApply, nil).
			WithDiff(diff).
			WithReason(reason).
			WithNotified(notifications).
			WithDuration(e.now().Sub(start)), nil
	}

	if err := step.Apply(ctx); err != nil {
		return NewStepResult(id, compiler.StatusFailed, compiler.NewApplyFailedError(id.String(), err)).
			WithDiff(diff).
			WithDuration(e.now().Sub(start)), lc.advance(eventFail, compiler.StatusFailed)
	}

	for _, n := range notifications {
		if !n.IsImmediate() {
			queue.Add(n, id)
			continue
		}
		if nerr := e.dispatch(ctx, graph, n); nerr != nil {
			return NewStepResult(id, compiler.StatusFailed, nerr).
				WithDiff(diff).
				WithNotified(notifications).
				WithDuration(e.now().Sub(start)), lc.advance(eventFail, compiler.StatusFailed)
		}
	}

	return NewStepResult(id, compiler.StatusApplied, nil).
		WithDiff(diff).
		WithNotified(notifications).
		WithDuration(e.now().Sub(start)), lc.advance(eventApply, compiler.StatusApplied)
}

// pendingDependency returns the first dependency that still needs applying.
func pendingDependency(step compiler.Step, statuses map[string]compiler.StepStatus) (compiler.StepID, bool) {
	for _, dep := range step.DependsOn() {
		if statuses[dep.String()] == compiler.StatusNeedsApply {
			return dep, true
		}
	}
	return compiler.StepID{}, false
}

// flush delivers queued notifications once each, in first-queued order.
// In dry-run they are reported without being dispatched.
func (e *Executor) flush(ctx compiler.RunContext, graph *compiler.StepGraph, queue *notificationQueue, log ports.Logger) []NotificationResult {
	queued := queue.Drain()
	results := make([]NotificationResult, 0, len(queued))
	for _, q := range queued {
		res := NotificationResult{QueuedNotification: q}
		if h, ok := graph.Handler(q.Notification.Resource); ok {
			res.Handler = h.ID()
		}

		if ctx.DryRun() {
			results = append(results, res)
			continue
		}

		res.Err = e.dispatch(ctx, graph, q.Notification)
		res.Dispatched = res.Err == nil
		if res.Err != nil {
			log.Error(ctx.Context(), "notification failed",
				ports.F("notification", q.Notification.String()), ports.Err(res.Err))
		} else {
			log.Info(ctx.Context(), "notification delivered",
				ports.F("notification", q.Notification.String()), ports.F("raised", q.Count))
		}
		results = append(results, res)
	}
	return results
}

func (e *Executor) dispatch(ctx compiler.RunContext, graph *compiler.StepGraph, n compiler.Notification) error {
	h, ok := graph.Handler(n.Resource)
	if !ok {
		return compiler.NewNoHandlerError(n)
	}
	if err := h.Handle(ctx, n.Action); err != nil {
		return compiler.NewNotifyFailedError(h.ID().String(), n, err)
	}
	return nil
}
