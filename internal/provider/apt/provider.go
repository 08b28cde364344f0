// Package apt installs the local database server package.
package apt

import (
	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
	"github.com/felixgeelhaar/stashprov/internal/ports"
)

// Provider compiles the database server package into an apt step.
type Provider struct {
	runner ports.CommandRunner
}

// NewProvider creates a new apt Provider.
func NewProvider(runner ports.CommandRunner) *Provider {
	return &Provider{runner: runner}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "apt"
}

// Compile emits the server package step for a supported vendor.
// The step is guarded: it only runs when the database lives on this host.
func (p *Provider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	vendor := ctx.Settings().Vendor()
	if !vendor.Supported() {
		return nil, nil
	}
	return []compiler.Step{NewPackageStep(vendor.ServerPackage(), p.runner)}, nil
}

// Ensure Provider implements compiler.Provider.
var _ compiler.Provider = (*Provider)(nil)
