// Package compiler turns resolved settings into an ordered graph of provisioning steps.
// The pipeline is Settings → Provider → StepGraph.
package compiler

import (
	"github.com/felixgeelhaar/stashprov/internal/domain/config"
)

// Compiler orchestrates providers to build a StepGraph from settings.
type Compiler struct {
	providers []Provider
}

// NewCompiler creates a new Compiler.
func NewCompiler() *Compiler {
	return &Compiler{
		providers: make([]Provider, 0),
	}
}

// RegisterProvider adds a provider to the compiler.
// Providers are called in registration order, which is also execution order.
func (c *Compiler) RegisterProvider(provider Provider) {
	c.providers = append(c.providers, provider)
}

// Providers returns all registered providers.
func (c *Compiler) Providers() []Provider {
	out := make([]Provider, len(c.providers))
	copy(out, c.providers)
	return out
}

// Compile transforms settings into a validated StepGraph.
func (c *Compiler) Compile(settings config.Settings) (*StepGraph, error) {
	return c.CompileWithContext(NewCompileContext(settings))
}

// CompileWithContext transforms settings into a validated StepGraph.
// Returns an error if:
// - Any provider fails to compile
// - Duplicate step IDs are detected
// - A dependency is missing or declared later than its dependent
func (c *Compiler) CompileWithContext(ctx CompileContext) (*StepGraph, error) {
	graph := NewStepGraph()

	for _, provider := range c.providers {
		steps, err := provider.Compile(ctx)
		if err != nil {
			return nil, NewProviderFailedError(provider.Name(), err)
		}

		for _, step := range steps {
			if err := graph.Add(step); err != nil {
				return nil, NewStepDuplicateError(step.ID().String()).
					WithProvider(provider.Name()).
					WithUnderlying(err)
			}
		}
	}

	if err := graph.Validate(); err != nil {
		return nil, err
	}

	return graph, nil
}
