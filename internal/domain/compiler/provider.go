package compiler

import "github.com/felixgeelhaar/stashprov/internal/domain/config"

// Provider compiles a part of the recipe into executable steps.
// Each provider handles one kind of resource (packages, users, templates, ...).
type Provider interface {
	// Name returns the provider's identifier (e.g., "apt", "archive", "template").
	Name() string

	// Compile turns settings into an ordered list of steps.
	// Dependencies may only refer to steps compiled earlier.
	Compile(ctx CompileContext) ([]Step, error)
}

// CompileContext provides settings and metadata to providers during compilation.
type CompileContext struct {
	settings   config.Settings
	provenance string
}

// NewCompileContext creates a new CompileContext for the given settings.
func NewCompileContext(settings config.Settings) CompileContext {
	return CompileContext{settings: settings}
}

// Settings returns the resolved settings.
func (c CompileContext) Settings() config.Settings {
	return c.settings
}

// Attributes is shorthand for Settings().Attributes().
func (c CompileContext) Attributes() config.Attributes {
	return c.settings.Attributes()
}

// Provenance returns where the configuration bundle was loaded from.
func (c CompileContext) Provenance() string {
	return c.provenance
}

// WithProvenance returns a new CompileContext with provenance set.
func (c CompileContext) WithProvenance(provenance string) CompileContext {
	c.provenance = provenance
	return c
}
