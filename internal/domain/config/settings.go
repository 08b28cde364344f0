package config

import (
	"fmt"
	"strings"
)

// LocalHost is the database host value that makes the recipe manage the database server.
const LocalHost = "localhost"

// Default Tomcat values used when the bundle leaves them unset.
const (
	DefaultHTTPPort     = 7990
	DefaultSSLPort      = 8443
	DefaultKeystorePass = "changeit"
)

// ResolvedDatabase is DatabaseSettings after vendor resolution.
type ResolvedDatabase struct {
	DatabaseSettings
	Vendor Vendor
	// Provider and UserProvider stay empty for unsupported vendors.
	Provider     string
	UserProvider string
}

// EffectivePort returns the configured port, or 0 if none could be resolved.
func (d ResolvedDatabase) EffectivePort() int {
	if d.Port == nil {
		return 0
	}
	return *d.Port
}

// JDBCURL returns the connection URL for stash-config.properties.
func (d ResolvedDatabase) JDBCURL() string {
	return d.Vendor.JDBCURL(d.Host, d.EffectivePort(), d.Name)
}

// Settings is the immutable configuration threaded through a provisioning run.
type Settings struct {
	environment   string
	database      ResolvedDatabase
	tomcat        TomcatSettings
	configuration ConfigurationSettings
	attrs         Attributes
	warnings      []string
}

// Resolve selects an environment from the bundle and resolves vendor-specific values.
// An unsupported database type is not an error: it is recorded as a warning and no
// provider-specific fields are set.
func Resolve(bundle *Bundle, environment string, attrs Attributes) (Settings, error) {
	env, err := bundle.Environment(environment)
	if err != nil {
		return Settings{}, err
	}
	return NewSettings(environment, env, attrs), nil
}

// NewSettings resolves a single environment.
func NewSettings(environment string, env Environment, attrs Attributes) Settings {
	env = env.clone()
	s := Settings{
		environment:   environment,
		tomcat:        env.Tomcat,
		configuration: env.Configuration,
		attrs:         attrs,
	}

	db := ResolvedDatabase{DatabaseSettings: env.Database}
	db.Vendor = ParseVendor(env.Database.Type)
	if db.Vendor.Supported() {
		if db.Port == nil {
			port := db.Vendor.DefaultPort()
			db.Port = &port
		}
		db.Provider = db.Vendor.DatabaseProvider()
		db.UserProvider = db.Vendor.UserProvider()
	} else {
		s.warnings = append(s.warnings, fmt.Sprintf("Unsupported database type %q.", env.Database.Type))
	}
	s.database = db

	if s.tomcat.Port == 0 {
		s.tomcat.Port = DefaultHTTPPort
	}
	if s.tomcat.SSLPort == 0 {
		s.tomcat.SSLPort = DefaultSSLPort
	}
	if s.tomcat.KeystorePass == "" {
		s.tomcat.KeystorePass = DefaultKeystorePass
	}
	if s.tomcat.Scheme == "" {
		s.tomcat.Scheme = "http"
	}

	return s
}

// Environment returns the environment name.
func (s Settings) Environment() string {
	return s.environment
}

// Database returns the resolved database settings.
func (s Settings) Database() ResolvedDatabase {
	db := s.database
	if db.Port != nil {
		port := *db.Port
		db.Port = &port
	}
	return db
}

// Tomcat returns the Tomcat settings with defaults applied.
func (s Settings) Tomcat() TomcatSettings {
	return s.tomcat
}

// Configuration returns application-level settings.
func (s Settings) Configuration() ConfigurationSettings {
	return s.configuration
}

// Attributes returns the node attributes.
func (s Settings) Attributes() Attributes {
	return s.attrs
}

// WithAttributes returns a copy of the settings using attrs.
func (s Settings) WithAttributes(attrs Attributes) Settings {
	s.attrs = attrs
	return s
}

// Vendor returns the resolved database vendor.
func (s Settings) Vendor() Vendor {
	return s.database.Vendor
}

// Warnings returns non-fatal problems found while resolving.
func (s Settings) Warnings() []string {
	out := make([]string, len(s.warnings))
	copy(out, s.warnings)
	return out
}

// DatabaseIsLocal reports whether the database server runs on the provisioned host.
func (s Settings) DatabaseIsLocal() bool {
	return strings.TrimSpace(s.database.Host) == LocalHost
}

// VendorSupported reports whether a database provider exists for the configured type.
func (s Settings) VendorSupported() bool {
	return s.database.Vendor.Supported()
}

// UsesMySQL reports whether the configured vendor is MySQL.
func (s Settings) UsesMySQL() bool {
	return s.database.Vendor == VendorMySQL
}

// AdminPassword returns the local server superuser password for the vendor.
func (s Settings) AdminPassword() string {
	switch s.database.Vendor {
	case VendorMySQL:
		return s.attrs.MySQL.ServerRootPassword
	case VendorPostgreSQL:
		return s.attrs.PostgreSQL.Password.Postgres
	default:
		return ""
	}
}

// InstanceURL is the public base URL of the Stash instance.
func (s Settings) InstanceURL() string {
	return "https://" + s.attrs.FQDN
}
