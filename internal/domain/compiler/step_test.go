package compiler

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/stashprov/internal/domain/config"
)

// mockStep is a test double for Step interface.
type mockStep struct {
	id        StepID
	deps      []StepID
	checkFn   func(RunContext) (StepStatus, error)
	planFn    func(RunContext) (Diff, error)
	applyFn   func(RunContext) error
	explainFn func(ExplainContext) Explanation
}

func newMockStep(id string, deps ...string) *mockStep {
	stepID, _ := NewStepID(id)
	depIDs := make([]StepID, len(deps))
	for i, d := range deps {
		depIDs[i], _ = NewStepID(d)
	}
	return &mockStep{
		id:   stepID,
		deps: depIDs,
		checkFn: func(RunContext) (StepStatus, error) {
			return StatusNeedsApply, nil
		},
		planFn: func(RunContext) (Diff, error) {
			return NewDiff(DiffTypeAdd, "test", "resource", "", "new"), nil
		},
		applyFn: func(RunContext) error {
			return nil
		},
		explainFn: func(ExplainContext) Explanation {
			return NewExplanation("Test step", "For testing", nil)
		},
	}
}

func (m *mockStep) ID() StepID                               { return m.id }
func (m *mockStep) DependsOn() []StepID                      { return m.deps }
func (m *mockStep) Check(ctx RunContext) (StepStatus, error) { return m.checkFn(ctx) }
func (m *mockStep) Plan(ctx RunContext) (Diff, error)        { return m.planFn(ctx) }
func (m *mockStep) Apply(ctx RunContext) error               { return m.applyFn(ctx) }
func (m *mockStep) Explain(ctx ExplainContext) Explanation   { return m.explainFn(ctx) }

// capableStep adds the optional capabilities to mockStep.
type capableStep struct {
	*mockStep
	guard      Guard
	bestEffort bool
	notifies   []Notification
	resource   string
	handled    []string
}

func (c *capableStep) Guard() Guard             { return c.guard }
func (c *capableStep) BestEffort() bool         { return c.bestEffort }
func (c *capableStep) Notifies() []Notification { return c.notifies }
func (c *capableStep) Resource() string         { return c.resource }
func (c *capableStep) Handle(_ RunContext, action string) error {
	c.handled = append(c.handled, action)
	return nil
}

func TestStep_Check_Error(t *testing.T) {
	step := newMockStep("apt:package:mysql-server")
	step.checkFn = func(RunContext) (StepStatus, error) {
		return StatusUnknown, errors.New("dpkg-query missing")
	}

	status, err := step.Check(NewRunContext(context.Background()))
	if err == nil {
		t.Fatal("expected error from Check()")
	}
	if status != StatusUnknown {
		t.Errorf("Check() status = %v, want %v", status, StatusUnknown)
	}
}

func TestGuardOf_DefaultsToAlways(t *testing.T) {
	step := newMockStep("user:create:stash")

	guard := GuardOf(step)
	if !guard.Allows(config.Settings{}) {
		t.Error("unguarded step should always be allowed")
	}
	if guard.Description() != "" {
		t.Errorf("Description() = %q, want empty", guard.Description())
	}
}

func TestGuardOf_GuardedStep(t *testing.T) {
	step := &capableStep{mockStep: newMockStep("database:create:stash"), guard: GuardDatabaseLocal}

	remote := config.NewSettings("production", config.Environment{
		Database: config.DatabaseSettings{Type: "mysql", Host: "db01"},
	}, config.DefaultAttributes())

	if GuardOf(step).Allows(remote) {
		t.Error("guard should reject a remote database host")
	}
}

func TestIsBestEffort(t *testing.T) {
	if IsBestEffort(newMockStep("appprops:seed:license")) {
		t.Error("plain step should not be best-effort")
	}
	step := &capableStep{mockStep: newMockStep("appprops:seed:license"), bestEffort: true}
	if !IsBestEffort(step) {
		t.Error("IsBestEffort should honor BestEffort()")
	}
}

func TestNotificationsOf_ReturnsCopy(t *testing.T) {
	step := &capableStep{
		mockStep: newMockStep("template:render:server-xml"),
		notifies: []Notification{Delayed("restart", "service:stash")},
	}

	got := NotificationsOf(step)
	got[0].Action = "stop"

	if step.notifies[0].Action != "restart" {
		t.Error("NotificationsOf should not expose the step's slice")
	}
	if NotificationsOf(newMockStep("user:create:stash")) != nil {
		t.Error("plain step should have no notifications")
	}
}

func TestRunContext_WithDryRun(t *testing.T) {
	ctx := NewRunContext(context.Background())
	if ctx.DryRun() {
		t.Error("DryRun() should default to false")
	}

	dryCtx := ctx.WithDryRun(true)
	if !dryCtx.DryRun() {
		t.Error("WithDryRun(true) should set DryRun to true")
	}
	if ctx.DryRun() {
		t.Error("original context should be unchanged")
	}
}

func TestRunContext_WithSettings(t *testing.T) {
	settings := config.NewSettings("production", config.Environment{}, config.DefaultAttributes())
	ctx := NewRunContext(context.Background()).WithSettings(settings)

	if ctx.Settings().Environment() != "production" {
		t.Errorf("Settings().Environment() = %q, want %q", ctx.Settings().Environment(), "production")
	}
	if ctx.Context() == nil {
		t.Error("Context() should not be nil")
	}
}

func TestExplainContext_WithVerbose(t *testing.T) {
	ctx := NewExplainContext()
	verboseCtx := ctx.WithVerbose(true)
	if !verboseCtx.Verbose() {
		t.Error("WithVerbose(true) should set Verbose to true")
	}
	if ctx.Verbose() {
		t.Error("original context should be unchanged")
	}
}

func TestExplainContext_WithProvenance(t *testing.T) {
	ctx := NewExplainContext()
	ctxWithProv := ctx.WithProvenance("data_bags/stash/stash.json")

	if ctxWithProv.Provenance() != "data_bags/stash/stash.json" {
		t.Errorf("Provenance() = %q", ctxWithProv.Provenance())
	}
	if ctx.Provenance() != "" {
		t.Error("original context should be unchanged")
	}
}
