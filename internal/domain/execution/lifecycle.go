package execution

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
)

// Lifecycle events. State names match compiler.StepStatus values.
const (
	eventSkip       = "SKIP"
	eventSatisfy    = "SATISFY"
	eventNeedsApply = "NEEDS_APPLY"
	eventApply      = "APPLY"
	eventFail       = "FAIL"
	eventReset      = "RESET"
)

// lifecycleContext is the machine context for one step.
type lifecycleContext struct {
	StepID string
}

// lifecycle tracks the state of a single step through a run:
// pending → skipped | satisfied | failed | needs-apply, and needs-apply → applied | failed.
// Finished states only accept a reset back to pending. Every other transition is illegal.
type lifecycle struct {
	interp      *statekit.Interpreter[lifecycleContext]
	transitions int
}

func newLifecycle(stepID compiler.StepID) (*lifecycle, error) {
	l := &lifecycle{}
	machine, err := statekit.NewMachine[lifecycleContext]("step:"+stepID.String()).
		WithInitial("pending").
		WithContext(lifecycleContext{StepID: stepID.String()}).
		WithAction("count", func(_ *lifecycleContext, _ statekit.Event) {
			l.transitions++
		}).
		State("pending").
		On(eventSkip).Target("skipped").
		On(eventSatisfy).Target("satisfied").
		On(eventNeedsApply).Target("needs-apply").
		On(eventFail).Target("failed").Done().
		State("needs-apply").
		OnEntry("count").
		On(eventApply).Target("applied").
		On(eventFail).Target("failed").Done().
		State("skipped").
		OnEntry("count").
		On(eventReset).Target("pending").Done().
		State("satisfied").
		OnEntry("count").
		On(eventReset).Target("pending").Done().
		State("applied").
		OnEntry("count").
		On(eventReset).Target("pending").Done().
		State("failed").
		OnEntry("count").
		On(eventReset).Target("pending").Done().
		Build()
	if err != nil {
		return nil, fmt.Errorf("build lifecycle for %s: %w", stepID, err)
	}

	l.interp = statekit.NewInterpreter(machine)
	l.interp.Start()
	return l, nil
}

// Status returns the current state as a StepStatus.
func (l *lifecycle) Status() compiler.StepStatus {
	return compiler.StepStatus(l.interp.State().Value)
}

// advance sends event and verifies the machine reached want.
func (l *lifecycle) advance(event string, want compiler.StepStatus) error {
	from := l.Status()
	l.interp.Send(statekit.Event{Type: statekit.EventType(event)})
	if got := l.Status(); got != want {
		return fmt.Errorf("illegal step transition %s --%s--> %s", from, event, want)
	}
	return nil
}

// Transitions returns how many states the step entered after pending.
func (l *lifecycle) Transitions() int {
	return l.transitions
}

func (l *lifecycle) stop() {
	l.interp.Stop()
}
