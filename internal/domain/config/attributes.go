package config

import (
	"fmt"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// Service managers understood by the service provider. Auto is replaced by
// the detected manager of the target host before settings are resolved.
const (
	ServiceManagerSysV    = "sysv"
	ServiceManagerSystemd = "systemd"
	ServiceManagerAuto    = "auto"
)

// ArtifactSettings describes one downloadable archive.
type ArtifactSettings struct {
	Version  string `yaml:"version"`
	URL      string `yaml:"url"`
	Checksum string `yaml:"checksum"`
}

// ConnectorSettings holds the MySQL Connector/J artifact.
type ConnectorSettings struct {
	Connector ArtifactSettings `yaml:"connector"`
}

// StashAttributes are the node attributes for the Stash installation.
type StashAttributes struct {
	RunUser        string            `yaml:"run_user"`
	HomePath       string            `yaml:"home_path"`
	InstallPath    string            `yaml:"install_path"`
	Version        string            `yaml:"version"`
	URL            string            `yaml:"url"`
	Checksum       string            `yaml:"checksum"`
	ServiceName    string            `yaml:"service_name"`
	ServiceManager string            `yaml:"service_manager"`
	MySQL          ConnectorSettings `yaml:"mysql"`
}

// Artifact returns the Stash archive as an ArtifactSettings.
func (s StashAttributes) Artifact() ArtifactSettings {
	return ArtifactSettings{Version: s.Version, URL: s.URL, Checksum: s.Checksum}
}

// JavaAttributes locates the JDK.
type JavaAttributes struct {
	JavaHome string `yaml:"java_home"`
}

// MySQLServerAttributes holds local MySQL server credentials.
type MySQLServerAttributes struct {
	ServerRootPassword string `yaml:"server_root_password"`
}

// PostgreSQLPasswords holds local PostgreSQL role passwords.
type PostgreSQLPasswords struct {
	Postgres string `yaml:"postgres"`
}

// PostgreSQLServerAttributes holds local PostgreSQL server credentials.
type PostgreSQLServerAttributes struct {
	Password PostgreSQLPasswords `yaml:"password"`
}

// S3Attributes configures access to an S3-compatible artifact store for s3:// URLs.
type S3Attributes struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	Secure    bool   `yaml:"secure"`
}

// ArtifactStoreAttributes configures artifact retrieval.
type ArtifactStoreAttributes struct {
	S3 S3Attributes `yaml:"s3"`
}

// Attributes are the node-level settings that are not secret and not per-environment.
type Attributes struct {
	Environment   string                     `yaml:"environment"`
	FQDN          string                     `yaml:"fqdn"`
	FileCachePath string                     `yaml:"file_cache_path"`
	Stash         StashAttributes            `yaml:"stash"`
	Java          JavaAttributes             `yaml:"java"`
	MySQL         MySQLServerAttributes      `yaml:"mysql"`
	PostgreSQL    PostgreSQLServerAttributes `yaml:"postgresql"`
	Artifacts     ArtifactStoreAttributes    `yaml:"artifacts"`
}

// Default attribute values.
const (
	DefaultEnvironment      = "_default"
	DefaultFileCachePath    = "/var/cache/stashprov"
	DefaultRunUser          = "stash"
	DefaultHomePath         = "/var/atlassian/application-data/stash"
	DefaultInstallPath      = "/opt/atlassian/stash"
	DefaultVersion          = "2.0.3"
	DefaultServiceName      = "stash"
	DefaultJavaHome         = "/usr/lib/jvm/default-java"
	DefaultConnectorVersion = "5.1.22"
	stashURLTemplate        = "http://www.atlassian.com/software/stash/downloads/binary/atlassian-stash-%s.tar.gz"
	connectorURLTemplate    = "http://cdn.mysql.com/Downloads/Connector-J/mysql-connector-java-%s.tar.gz"
)

// DefaultAttributes returns attributes with every default filled in.
func DefaultAttributes() Attributes {
	attrs := Attributes{}
	attrs.applyDefaults()
	return attrs
}

// applyDefaults fills empty fields. Derived URLs follow the configured version.
func (a *Attributes) applyDefaults() {
	setDefault(&a.Environment, DefaultEnvironment)
	setDefault(&a.FileCachePath, DefaultFileCachePath)
	if a.FQDN == "" {
		if host, err := os.Hostname(); err == nil {
			a.FQDN = host
		} else {
			a.FQDN = "localhost"
		}
	}

	s := &a.Stash
	setDefault(&s.RunUser, DefaultRunUser)
	setDefault(&s.HomePath, DefaultHomePath)
	setDefault(&s.InstallPath, DefaultInstallPath)
	setDefault(&s.Version, DefaultVersion)
	setDefault(&s.URL, fmt.Sprintf(stashURLTemplate, s.Version))
	setDefault(&s.ServiceName, DefaultServiceName)
	setDefault(&s.ServiceManager, ServiceManagerSysV)
	s.ServiceManager = strings.ToLower(s.ServiceManager)

	c := &s.MySQL.Connector
	setDefault(&c.Version, DefaultConnectorVersion)
	setDefault(&c.URL, fmt.Sprintf(connectorURLTemplate, c.Version))

	setDefault(&a.Java.JavaHome, DefaultJavaHome)
}

func setDefault(field *string, value string) {
	if strings.TrimSpace(*field) == "" {
		*field = value
	}
}

// ParseAttributes decodes YAML attributes and applies defaults.
func ParseAttributes(data []byte) (Attributes, error) {
	var attrs Attributes
	if err := yaml.Unmarshal(data, &attrs); err != nil {
		return Attributes{}, err
	}
	attrs.applyDefaults()
	return attrs, nil
}

// ArchiveName is the file name of the Stash archive in the cache.
func (a Attributes) ArchiveName() string {
	return fmt.Sprintf("atlassian-stash-%s.tar.gz", a.Stash.Version)
}

// ArchiveDir is the top-level directory inside the Stash archive.
func (a Attributes) ArchiveDir() string {
	return fmt.Sprintf("atlassian-stash-%s", a.Stash.Version)
}

// ConnectorName is the file name of the Connector/J archive in the cache.
func (a Attributes) ConnectorName() string {
	return fmt.Sprintf("mysql-connector-java-%s.tar.gz", a.Stash.MySQL.Connector.Version)
}

// ConnectorDir is the top-level directory inside the Connector/J archive.
func (a Attributes) ConnectorDir() string {
	return fmt.Sprintf("mysql-connector-java-%s", a.Stash.MySQL.Connector.Version)
}

// ConnectorJar is the driver jar shipped inside the Connector/J archive.
func (a Attributes) ConnectorJar() string {
	return fmt.Sprintf("mysql-connector-java-%s-bin.jar", a.Stash.MySQL.Connector.Version)
}

// KeystorePath is where the self-signed keystore is generated.
func (a Attributes) KeystorePath() string {
	return path.Join(a.Stash.HomePath, ".keystore")
}

// InstallFile joins a path below the install directory.
func (a Attributes) InstallFile(elem ...string) string {
	return path.Join(append([]string{a.Stash.InstallPath}, elem...)...)
}
