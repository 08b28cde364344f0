// Package appprops seeds Stash application properties directly into the
// application database.
//
// Stash creates the app_property table on first start, so on a fresh host
// these steps fail until the service has run once. They are best-effort and
// only compiled in when the environment asks for them.
package appprops

import (
	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
	"github.com/felixgeelhaar/stashprov/internal/domain/config"
	"github.com/felixgeelhaar/stashprov/internal/ports"
	"github.com/felixgeelhaar/stashprov/internal/provider/database"
)

// GuardSeedEnabled holds when the environment opts in to property seeding.
var GuardSeedEnabled = compiler.NewGuard("configuration.seed_properties is enabled", func(s config.Settings) bool {
	return s.Configuration().SeedProperties
})

// Provider compiles the app_property seed steps.
type Provider struct {
	opener ports.DatabaseOpener
}

// NewProvider creates a new appprops Provider.
func NewProvider(opener ports.DatabaseOpener) *Provider {
	return &Provider{opener: opener}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "appprops"
}

// Compile emits one step per property. The license is only seeded when set.
func (p *Provider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	settings := ctx.Settings()
	if !settings.VendorSupported() {
		return nil, nil
	}

	db := settings.Database()
	conn := ports.DatabaseConnection{
		Vendor:   db.Vendor.String(),
		Host:     db.Host,
		Port:     db.EffectivePort(),
		Username: db.User,
		Password: db.Password,
		Database: db.Name,
	}
	after := database.GrantStepID(db.User, db.Name)

	steps := []compiler.Step{
		NewPropertyStep(Property{Key: "instance.url", Value: settings.InstanceURL()}, conn, p.opener, after),
	}
	if license := settings.Configuration().License; license != "" {
		steps = append(steps, NewPropertyStep(Property{Key: "license", Value: license, Secret: true}, conn, p.opener, after))
	}
	return steps, nil
}

// Ensure Provider implements compiler.Provider.
var _ compiler.Provider = (*Provider)(nil)
