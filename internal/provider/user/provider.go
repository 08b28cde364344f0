// Package user manages the service account Stash runs as.
package user

import (
	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
	"github.com/felixgeelhaar/stashprov/internal/ports"
)

// Provider compiles the run_user attribute into an account step.
type Provider struct {
	runner ports.CommandRunner
	fs     ports.FileSystem
}

// NewProvider creates a new user Provider.
func NewProvider(runner ports.CommandRunner, fs ports.FileSystem) *Provider {
	return &Provider{runner: runner, fs: fs}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "user"
}

// Compile emits the service account step.
func (p *Provider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	stash := ctx.Attributes().Stash
	account := Account{
		Name:    stash.RunUser,
		Home:    stash.HomePath,
		Shell:   "/bin/bash",
		Comment: "Stash Service Account",
	}
	return []compiler.Step{NewAccountStep(account, p.runner, p.fs)}, nil
}

// Ensure Provider implements compiler.Provider.
var _ compiler.Provider = (*Provider)(nil)
