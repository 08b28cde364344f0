package testutil

import (
	"github.com/felixgeelhaar/stashprov/internal/domain/config"
)

// SettingsBuilder builds resolved settings for provider and recipe tests.
type SettingsBuilder struct {
	environment string
	env         config.Environment
	attrs       config.Attributes
}

// NewSettingsBuilder starts from a local MySQL database and default attributes.
func NewSettingsBuilder() *SettingsBuilder {
	attrs := config.DefaultAttributes()
	attrs.FQDN = "stash.example.com"
	attrs.Stash.Checksum = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	attrs.MySQL.ServerRootPassword = "rootpw"
	attrs.PostgreSQL.Password.Postgres = "pgpw"
	return &SettingsBuilder{
		environment: "production",
		env: config.Environment{
			Database: config.DatabaseSettings{
				Type:     "mysql",
				Host:     config.LocalHost,
				User:     "stash",
				Password: "s3cret",
				Name:     "stash",
			},
		},
		attrs: attrs,
	}
}

// WithEnvironment sets the environment name.
func (b *SettingsBuilder) WithEnvironment(name string) *SettingsBuilder {
	b.environment = name
	return b
}

// WithDatabaseType sets the configured database type.
func (b *SettingsBuilder) WithDatabaseType(dbType string) *SettingsBuilder {
	b.env.Database.Type = dbType
	return b
}

// WithDatabaseHost sets the database host.
func (b *SettingsBuilder) WithDatabaseHost(host string) *SettingsBuilder {
	b.env.Database.Host = host
	return b
}

// WithDatabasePort sets an explicit database port.
func (b *SettingsBuilder) WithDatabasePort(port int) *SettingsBuilder {
	b.env.Database.Port = &port
	return b
}

// WithTomcat replaces the Tomcat settings.
func (b *SettingsBuilder) WithTomcat(tomcat config.TomcatSettings) *SettingsBuilder {
	b.env.Tomcat = tomcat
	return b
}

// WithLicense sets the license key.
func (b *SettingsBuilder) WithLicense(license string) *SettingsBuilder {
	b.env.Configuration.License = license
	return b
}

// WithSeedProperties enables app_property seeding.
func (b *SettingsBuilder) WithSeedProperties() *SettingsBuilder {
	b.env.Configuration.SeedProperties = true
	return b
}

// WithServiceManager selects sysv or systemd.
func (b *SettingsBuilder) WithServiceManager(manager string) *SettingsBuilder {
	b.attrs.Stash.ServiceManager = manager
	return b
}

// WithAttributes lets a test edit the node attributes in place.
func (b *SettingsBuilder) WithAttributes(edit func(*config.Attributes)) *SettingsBuilder {
	edit(&b.attrs)
	return b
}

// Environment returns the bundle entry built so far.
func (b *SettingsBuilder) Environment() config.Environment {
	return b.env
}

// Bundle returns a single-environment bundle.
func (b *SettingsBuilder) Bundle() *config.Bundle {
	return config.NewBundle(map[string]config.Environment{b.environment: b.env}, "test")
}

// Build resolves the settings.
func (b *SettingsBuilder) Build() config.Settings {
	return config.NewSettings(b.environment, b.env, b.attrs)
}
