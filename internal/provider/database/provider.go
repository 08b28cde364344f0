// Package database creates the application database and its login on a
// database server running on the provisioned host.
package database

import (
	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
	"github.com/felixgeelhaar/stashprov/internal/domain/config"
	"github.com/felixgeelhaar/stashprov/internal/ports"
	"github.com/felixgeelhaar/stashprov/internal/provider/apt"
)

// Provider compiles the database section into admin, database, user and grant steps.
type Provider struct {
	opener ports.DatabaseOpener
	runner ports.CommandRunner
}

// NewProvider creates a new database Provider.
func NewProvider(opener ports.DatabaseOpener, runner ports.CommandRunner) *Provider {
	return &Provider{opener: opener, runner: runner}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "database"
}

// Compile emits nothing for an unsupported vendor; otherwise every step is
// guarded on the database being local.
func (p *Provider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	settings := ctx.Settings()
	if !settings.VendorSupported() {
		return nil, nil
	}

	db := settings.Database()
	admin := adminConnection(settings)
	user := userSpec(db)

	adminStep := NewAdminPasswordStep(db.Vendor, admin, p.opener, p.runner)
	createStep := NewCreateDatabaseStep(databaseSpec(db), admin, p.opener, adminStep.ID())
	userStep := NewCreateUserStep(user, admin, p.opener, createStep.ID())
	grantStep := NewGrantStep(user, admin, p.opener, userStep.ID())

	return []compiler.Step{adminStep, createStep, userStep, grantStep}, nil
}

// adminConnection connects as the vendor superuser.
func adminConnection(s config.Settings) ports.DatabaseConnection {
	db := s.Database()
	return ports.DatabaseConnection{
		Vendor:   db.Vendor.String(),
		Host:     db.Host,
		Port:     db.EffectivePort(),
		Username: db.Vendor.AdminUser(),
		Password: s.AdminPassword(),
	}
}

func databaseSpec(db config.ResolvedDatabase) ports.DatabaseSpec {
	spec := ports.DatabaseSpec{Name: db.Name, Encoding: "utf8"}
	switch db.Vendor {
	case config.VendorMySQL:
		spec.Collation = "utf8_bin"
	case config.VendorPostgreSQL:
		spec.ConnectionLimit = -1
	}
	return spec
}

func userSpec(db config.ResolvedDatabase) ports.DatabaseUserSpec {
	spec := ports.DatabaseUserSpec{Name: db.User, Password: db.Password, Database: db.Name}
	if db.Vendor == config.VendorMySQL {
		spec.Host = "%"
	}
	return spec
}

// serverPackageStep is the apt step that installs the server for vendor.
func serverPackageStep(vendor config.Vendor) compiler.StepID {
	return apt.PackageStepID(vendor.ServerPackage())
}

// Ensure Provider implements compiler.Provider.
var _ compiler.Provider = (*Provider)(nil)
