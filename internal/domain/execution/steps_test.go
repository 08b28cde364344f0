package execution

import (
	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
	"github.com/felixgeelhaar/stashprov/internal/domain/config"
)

// configurableMockStep allows configuring Check behavior
type configurableMockStep struct {
	id         compiler.StepID
	deps       []compiler.StepID
	checkFn    func(compiler.RunContext) (compiler.StepStatus, error)
	planFn     func(compiler.RunContext) (compiler.Diff, error)
	applyFn    func(compiler.RunContext) error
	explainFn  func(compiler.ExplainContext) compiler.Explanation
	guard      compiler.Guard
	bestEffort bool
	notifies   []compiler.Notification
	applies    int
}

func newConfigurableStep(id string, deps ...string) *configurableMockStep {
	stepID, _ := compiler.NewStepID(id)
	depIDs := make([]compiler.StepID, len(deps))
	for i, d := range deps {
		depIDs[i], _ = compiler.NewStepID(d)
	}
	return &configurableMockStep{
		id:   stepID,
		deps: depIDs,
		checkFn: func(_ compiler.RunContext) (compiler.StepStatus, error) {
			return compiler.StatusNeedsApply, nil
		},
		planFn: func(_ compiler.RunContext) (compiler.Diff, error) {
			return compiler.NewDiff(compiler.DiffTypeAdd, "test", id, "", "new"), nil
		},
		applyFn: func(_ compiler.RunContext) error {
			return nil
		},
		explainFn: func(_ compiler.ExplainContext) compiler.Explanation {
			return compiler.NewExplanation("Test", "Test step", nil)
		},
	}
}

// convergent makes the step report satisfied once it has been applied.
func (m *configurableMockStep) convergent() *configurableMockStep {
	m.checkFn = func(compiler.RunContext) (compiler.StepStatus, error) {
		if m.applies > 0 {
			return compiler.StatusSatisfied, nil
		}
		return compiler.StatusNeedsApply, nil
	}
	return m
}

func (m *configurableMockStep) ID() compiler.StepID          { return m.id }
func (m *configurableMockStep) DependsOn() []compiler.StepID { return m.deps }
func (m *configurableMockStep) Check(ctx compiler.RunContext) (compiler.StepStatus, error) {
	return m.checkFn(ctx)
}
func (m *configurableMockStep) Plan(ctx compiler.RunContext) (compiler.Diff, error) {
	return m.planFn(ctx)
}
func (m *configurableMockStep) Apply(ctx compiler.RunContext) error {
	if err := m.applyFn(ctx); err != nil {
		return err
	}
	m.applies++
	return nil
}
func (m *configurableMockStep) Explain(ctx compiler.ExplainContext) compiler.Explanation {
	return m.explainFn(ctx)
}
func (m *configurableMockStep) Guard() compiler.Guard             { return m.guard }
func (m *configurableMockStep) BestEffort() bool                  { return m.bestEffort }
func (m *configurableMockStep) Notifies() []compiler.Notification { return m.notifies }

// serviceStep handles notifications for service:stash.
type serviceStep struct {
	*configurableMockStep
	actions   []string
	handleErr error
}

func newServiceStep() *serviceStep {
	return &serviceStep{configurableMockStep: newConfigurableStep("service:enable:stash").convergent()}
}

func (s *serviceStep) Resource() string { return "service:stash" }
func (s *serviceStep) Handle(_ compiler.RunContext, action string) error {
	if s.handleErr != nil {
		return s.handleErr
	}
	s.actions = append(s.actions, action)
	return nil
}

func restartStash() compiler.Notification {
	return compiler.Delayed("restart", "service:stash")
}

func buildGraph(steps ...compiler.Step) *compiler.StepGraph {
	graph := compiler.NewStepGraph()
	for _, s := range steps {
		if err := graph.Add(s); err != nil {
			panic(err)
		}
	}
	if err := graph.Validate(); err != nil {
		panic(err)
	}
	return graph
}

func settingsFor(dbType, host string) config.Settings {
	return config.NewSettings("production", config.Environment{
		Database: config.DatabaseSettings{Type: dbType, Host: host},
	}, config.DefaultAttributes())
}
