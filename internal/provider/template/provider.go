// Package template renders the Stash configuration files.
package template

import (
	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
	"github.com/felixgeelhaar/stashprov/internal/ports"
	"github.com/felixgeelhaar/stashprov/internal/provider/archive"
	"github.com/felixgeelhaar/stashprov/internal/templates"
)

// ServiceResource is the notification target for the named service.
func ServiceResource(name string) string {
	return "service:" + name
}

// Provider compiles the configuration templates into file steps.
type Provider struct {
	fs     ports.FileSystem
	runner ports.CommandRunner
}

// NewProvider creates a new template Provider.
func NewProvider(fs ports.FileSystem, runner ports.CommandRunner) *Provider {
	return &Provider{fs: fs, runner: runner}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "template"
}

type rendered struct {
	name   string
	render func(templates.Data) ([]byte, error)
	elem   []string
	mode   uint32
}

func fromTemplate(name string) func(templates.Data) ([]byte, error) {
	return func(d templates.Data) ([]byte, error) { return templates.Render(name, d) }
}

// Compile renders setenv.sh, server.xml, web.xml and stash-config.properties.
// Each file is owned by run_user and restarts Stash when it changes.
func (p *Provider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	attrs := ctx.Attributes()
	data := templates.NewData(ctx.Settings())

	files := []rendered{
		{"bin/setenv.sh", fromTemplate(templates.SetEnv), []string{"bin", "setenv.sh"}, 0o755},
		{"conf/server.xml", fromTemplate(templates.ServerXML), []string{"conf", "server.xml"}, 0o640},
		{"conf/web.xml", fromTemplate(templates.WebXML), []string{"conf", "web.xml"}, 0o644},
		{"stash-config.properties", templates.RenderProperties, []string{"stash-config.properties"}, 0o644},
	}

	steps := make([]compiler.Step, 0, len(files))
	for _, f := range files {
		content, err := f.render(data)
		if err != nil {
			return nil, err
		}
		step := NewFileStep(
			compiler.MustNewStepID("template:render:"+f.name),
			ManagedFile{
				Path:    attrs.InstallFile(f.elem...),
				Content: content,
				Mode:    fileMode(f.mode),
				Owner:   attrs.Stash.RunUser,
			},
			p.fs, p.runner,
			archive.StashExtractID,
		).Notify(compiler.Delayed("restart", ServiceResource(attrs.Stash.ServiceName)))
		steps = append(steps, step)
	}
	return steps, nil
}

// Ensure Provider implements compiler.Provider.
var _ compiler.Provider = (*Provider)(nil)
