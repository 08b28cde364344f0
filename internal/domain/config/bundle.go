package config

import (
	"sort"
)

// DatabaseSettings describes the application database for one environment.
type DatabaseSettings struct {
	Type     string `json:"type" yaml:"type" toml:"type"`
	Host     string `json:"host" yaml:"host" toml:"host"`
	Port     *int   `json:"port,omitempty" yaml:"port,omitempty" toml:"port,omitempty"`
	User     string `json:"user" yaml:"user" toml:"user"`
	Password string `json:"password" yaml:"password" toml:"password"`
	Name     string `json:"name" yaml:"name" toml:"name"`
}

// TomcatSettings configures the connectors in server.xml.
type TomcatSettings struct {
	Port         int    `json:"port,omitempty" yaml:"port,omitempty" toml:"port,omitempty"`
	SSLPort      int    `json:"ssl_port,omitempty" yaml:"ssl_port,omitempty" toml:"ssl_port,omitempty"`
	KeystorePass string `json:"keystore_pass,omitempty" yaml:"keystore_pass,omitempty" toml:"keystore_pass,omitempty"`
	ProxyName    string `json:"proxy_name,omitempty" yaml:"proxy_name,omitempty" toml:"proxy_name,omitempty"`
	ProxyPort    int    `json:"proxy_port,omitempty" yaml:"proxy_port,omitempty" toml:"proxy_port,omitempty"`
	Scheme       string `json:"scheme,omitempty" yaml:"scheme,omitempty" toml:"scheme,omitempty"`
}

// ConfigurationSettings holds application-level settings.
type ConfigurationSettings struct {
	License string `json:"license,omitempty" yaml:"license,omitempty" toml:"license,omitempty"`
	// SeedProperties inserts instance.url and license into app_property. Best-effort.
	SeedProperties bool `json:"seed_properties,omitempty" yaml:"seed_properties,omitempty" toml:"seed_properties,omitempty"`
}

// Environment is the bundle entry for a single deployment environment.
type Environment struct {
	Database      DatabaseSettings      `json:"database" yaml:"database" toml:"database"`
	Tomcat        TomcatSettings        `json:"tomcat" yaml:"tomcat" toml:"tomcat"`
	Configuration ConfigurationSettings `json:"configuration" yaml:"configuration" toml:"configuration"`
}

// clone returns a deep copy so callers cannot mutate bundle state.
func (e Environment) clone() Environment {
	out := e
	if e.Database.Port != nil {
		port := *e.Database.Port
		out.Database.Port = &port
	}
	return out
}

// Bundle maps environment names to their settings. It is immutable once built.
type Bundle struct {
	environments map[string]Environment
	source       string
}

// NewBundle creates a Bundle from a map of environments.
func NewBundle(environments map[string]Environment, source string) *Bundle {
	envs := make(map[string]Environment, len(environments))
	for name, env := range environments {
		envs[name] = env.clone()
	}
	return &Bundle{environments: envs, source: source}
}

// Source returns where the bundle was loaded from.
func (b *Bundle) Source() string {
	return b.source
}

// Names returns the environment names in sorted order.
func (b *Bundle) Names() []string {
	names := make([]string, 0, len(b.environments))
	for name := range b.environments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Environment returns a copy of the named environment.
func (b *Bundle) Environment(name string) (Environment, error) {
	env, ok := b.environments[name]
	if !ok {
		return Environment{}, NewEnvironmentNotFoundError(name, b.Names()).WithContext(b.source)
	}
	return env.clone(), nil
}
