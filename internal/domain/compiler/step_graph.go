package compiler

import (
	"errors"
	"fmt"
)

// Errors for StepGraph operations.
var (
	ErrDuplicateStep    = errors.New("step with this ID already exists")
	ErrMissingDep       = errors.New("step depends on nonexistent step")
	ErrForwardReference = errors.New("step depends on a step declared after it")
)

// StepGraph holds steps in declaration order together with their dependencies.
// Declaration order is execution order; dependencies may only point backwards,
// which also rules out cycles.
type StepGraph struct {
	order      []string
	index      map[string]int
	steps      map[string]Step
	dependsOn  map[string][]string // step ID -> list of dependency IDs
	dependedBy map[string][]string // step ID -> list of steps that depend on it
}

// NewStepGraph creates an empty StepGraph.
func NewStepGraph() *StepGraph {
	return &StepGraph{
		index:      make(map[string]int),
		steps:      make(map[string]Step),
		dependsOn:  make(map[string][]string),
		dependedBy: make(map[string][]string),
	}
}

// Len returns the number of steps in the graph.
func (g *StepGraph) Len() int {
	return len(g.order)
}

// Add appends a step to the graph.
// Returns ErrDuplicateStep if a step with the same ID already exists.
func (g *StepGraph) Add(step Step) error {
	id := step.ID().String()

	if _, exists := g.steps[id]; exists {
		return ErrDuplicateStep
	}

	g.index[id] = len(g.order)
	g.order = append(g.order, id)
	g.steps[id] = step

	deps := step.DependsOn()
	depIDs := make([]string, len(deps))
	for i, dep := range deps {
		depID := dep.String()
		depIDs[i] = depID
		g.dependedBy[depID] = append(g.dependedBy[depID], id)
	}
	g.dependsOn[id] = depIDs

	return nil
}

// Get retrieves a step by ID.
func (g *StepGraph) Get(id StepID) (Step, bool) {
	step, ok := g.steps[id.String()]
	return step, ok
}

// Steps returns all steps in declaration order.
func (g *StepGraph) Steps() []Step {
	steps := make([]Step, 0, len(g.order))
	for _, id := range g.order {
		steps = append(steps, g.steps[id])
	}
	return steps
}

// Validate checks that every dependency exists and was declared earlier.
func (g *StepGraph) Validate() error {
	for _, id := range g.order {
		for _, depID := range g.dependsOn[id] {
			depIndex, exists := g.index[depID]
			if !exists {
				return NewDependencyMissingError(id, depID).
					WithUnderlying(fmt.Errorf("%w: step %q depends on %q", ErrMissingDep, id, depID))
			}
			if depIndex >= g.index[id] {
				return NewDependencyMissingError(id, depID).
					WithUnderlying(fmt.Errorf("%w: step %q depends on %q", ErrForwardReference, id, depID))
			}
		}
	}
	return nil
}

// Roots returns steps that have no dependencies, in declaration order.
func (g *StepGraph) Roots() []Step {
	roots := make([]Step, 0)
	for _, id := range g.order {
		if len(g.dependsOn[id]) == 0 {
			roots = append(roots, g.steps[id])
		}
	}
	return roots
}

// Leaves returns steps that nothing depends on, in declaration order.
func (g *StepGraph) Leaves() []Step {
	leaves := make([]Step, 0)
	for _, id := range g.order {
		if len(g.dependedBy[id]) == 0 {
			leaves = append(leaves, g.steps[id])
		}
	}
	return leaves
}

// Dependents returns the IDs of steps that depend directly on id.
func (g *StepGraph) Dependents(id StepID) []StepID {
	out := make([]StepID, 0, len(g.dependedBy[id.String()]))
	for _, dep := range g.dependedBy[id.String()] {
		out = append(out, g.steps[dep].ID())
	}
	return out
}

// Handler returns the step that handles notifications for resource.
func (g *StepGraph) Handler(resource string) (NotificationHandler, bool) {
	for _, id := range g.order {
		if h, ok := g.steps[id].(NotificationHandler); ok && h.Resource() == resource {
			return h, true
		}
	}
	return nil, false
}
