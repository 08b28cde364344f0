// Package service installs the Stash service definition, enables it at boot
// and restarts it on request.
package service

import (
	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
	"github.com/felixgeelhaar/stashprov/internal/domain/config"
	"github.com/felixgeelhaar/stashprov/internal/ports"
	"github.com/felixgeelhaar/stashprov/internal/provider/template"
	"github.com/felixgeelhaar/stashprov/internal/templates"
)

// Provider compiles the service definition and enable steps.
type Provider struct {
	fs     ports.FileSystem
	runner ports.CommandRunner
}

// NewProvider creates a new service Provider.
func NewProvider(fs ports.FileSystem, runner ports.CommandRunner) *Provider {
	return &Provider{fs: fs, runner: runner}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "service"
}

// Compile emits the init script (or systemd unit) followed by the enable step.
func (p *Provider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	attrs := ctx.Attributes()
	name := attrs.Stash.ServiceName
	manager := NewManager(attrs.Stash.ServiceManager, name, p.runner, p.fs)
	data := templates.NewData(ctx.Settings())

	var script *template.FileStep
	if attrs.Stash.ServiceManager == config.ServiceManagerSystemd {
		content, err := templates.RenderSystemdUnit(data)
		if err != nil {
			return nil, err
		}
		script = template.NewFileStep(
			compiler.MustNewStepID("service:unit:"+name),
			template.ManagedFile{Path: "/etc/systemd/system/" + name + ".service", Content: content, Mode: 0o644},
			p.fs, p.runner,
		).Notify(compiler.Immediately("reload", template.ServiceResource(name)))
	} else {
		content, err := templates.Render(templates.InitScript, data)
		if err != nil {
			return nil, err
		}
		script = template.NewFileStep(
			compiler.MustNewStepID("service:script:"+name),
			template.ManagedFile{Path: "/etc/init.d/" + name, Content: content, Mode: 0o755},
			p.fs, p.runner,
		)
	}

	return []compiler.Step{script, NewEnableStep(manager, script.ID())}, nil
}

// Ensure Provider implements compiler.Provider.
var _ compiler.Provider = (*Provider)(nil)
