// Package keystore generates the self-signed Java keystore used by the HTTPS connector.
package keystore

import (
	"fmt"
	"path"

	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
	"github.com/felixgeelhaar/stashprov/internal/ports"
	"github.com/felixgeelhaar/stashprov/internal/provider/user"
)

// Provider compiles the keystore step.
type Provider struct {
	runner ports.CommandRunner
	fs     ports.FileSystem
}

// NewProvider creates a new keystore Provider.
func NewProvider(runner ports.CommandRunner, fs ports.FileSystem) *Provider {
	return &Provider{runner: runner, fs: fs}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "keystore"
}

// Compile emits the keystore generation step.
func (p *Provider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	attrs := ctx.Attributes()
	ks := Keystore{
		Path:     attrs.KeystorePath(),
		Keytool:  path.Join(attrs.Java.JavaHome, "bin", "keytool"),
		Alias:    "tomcat",
		DName:    DistinguishedName(attrs.FQDN),
		Password: ctx.Settings().Tomcat().KeystorePass,
		Owner:    attrs.Stash.RunUser,
	}
	return []compiler.Step{NewGenerateStep(ks, p.runner, p.fs, user.AccountStepID(attrs.Stash.RunUser))}, nil
}

// DistinguishedName builds the certificate subject for host.
func DistinguishedName(host string) string {
	return fmt.Sprintf("CN=%s, OU=Example, O=Example, L=Example, ST=Example, C=US", host)
}

// Ensure Provider implements compiler.Provider.
var _ compiler.Provider = (*Provider)(nil)
