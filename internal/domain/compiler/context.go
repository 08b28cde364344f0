package compiler

import (
	"context"

	"github.com/felixgeelhaar/stashprov/internal/domain/config"
)

// RunContext provides context for step execution (Check, Plan, Apply).
type RunContext struct {
	ctx      context.Context
	dryRun   bool
	settings config.Settings
}

// NewRunContext creates a new RunContext with the given context.
func NewRunContext(ctx context.Context) RunContext {
	return RunContext{
		ctx: ctx,
	}
}

// Context returns the underlying context.Context.
func (r RunContext) Context() context.Context {
	return r.ctx
}

// DryRun returns whether this is a dry-run execution.
func (r RunContext) DryRun() bool {
	return r.dryRun
}

// WithDryRun returns a new RunContext with the dry-run flag set.
func (r RunContext) WithDryRun(dryRun bool) RunContext {
	r.dryRun = dryRun
	return r
}

// Settings returns the settings the run was started with.
func (r RunContext) Settings() config.Settings {
	return r.settings
}

// WithSettings returns a new RunContext carrying settings.
func (r RunContext) WithSettings(settings config.Settings) RunContext {
	r.settings = settings
	return r
}

// ExplainContext provides context for generating step explanations.
type ExplainContext struct {
	verbose    bool
	provenance string
}

// NewExplainContext creates a new ExplainContext.
func NewExplainContext() ExplainContext {
	return ExplainContext{}
}

// Verbose returns whether verbose explanations are requested.
func (e ExplainContext) Verbose() bool {
	return e.verbose
}

// WithVerbose returns a new ExplainContext with verbose mode set.
func (e ExplainContext) WithVerbose(verbose bool) ExplainContext {
	e.verbose = verbose
	return e
}

// Provenance returns the bundle the configuration came from.
func (e ExplainContext) Provenance() string {
	return e.provenance
}

// WithProvenance returns a new ExplainContext with provenance set.
func (e ExplainContext) WithProvenance(provenance string) ExplainContext {
	e.provenance = provenance
	return e
}
