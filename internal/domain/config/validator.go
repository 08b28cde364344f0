package config

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"path"

	"golang.org/x/mod/semver"
)

const checksumHexLen = 64

// Validator checks resolved settings before anything touches the host.
type Validator struct{}

// NewValidator creates a new Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate returns every problem found in the settings, or nil.
// An unsupported database vendor is a warning on Settings, not a validation error.
func (v *Validator) Validate(s Settings) error {
	errs := NewErrorList()
	v.validateAttributes(errs, s.Attributes())
	v.validateDatabase(errs, s)
	v.validateTomcat(errs, s.Tomcat())
	return errs.AsError()
}

func (v *Validator) validateAttributes(errs *ErrorList, attrs Attributes) {
	stash := attrs.Stash

	if stash.RunUser == "" {
		errs.AddValidation("stash.run_user", "run user is required", "Set stash.run_user, e.g. \"stash\".")
	}
	for _, f := range []struct{ field, value string }{
		{"stash.home_path", stash.HomePath},
		{"stash.install_path", stash.InstallPath},
		{"file_cache_path", attrs.FileCachePath},
		{"java.java_home", attrs.Java.JavaHome},
	} {
		if !path.IsAbs(f.value) {
			errs.AddValidation(f.field, fmt.Sprintf("must be an absolute path, got %q", f.value), "")
		}
	}

	v.validateArtifact(errs, "stash", stash.Artifact())
	v.validateArtifact(errs, "stash.mysql.connector", stash.MySQL.Connector)

	switch stash.ServiceManager {
	case ServiceManagerSysV, ServiceManagerSystemd, ServiceManagerAuto:
	default:
		errs.AddValidation("stash.service_manager",
			fmt.Sprintf("unknown service manager %q", stash.ServiceManager),
			"Use \"sysv\", \"systemd\" or \"auto\".")
	}
}

func (v *Validator) validateArtifact(errs *ErrorList, prefix string, a ArtifactSettings) {
	if !semver.IsValid("v" + a.Version) {
		errs.AddValidation(prefix+".version", fmt.Sprintf("invalid version %q", a.Version),
			"Use a dotted release number such as 2.0.3.")
	}

	u, err := url.Parse(a.URL)
	if err != nil || u.Scheme == "" {
		errs.AddValidation(prefix+".url", fmt.Sprintf("invalid url %q", a.URL), "")
	} else {
		switch u.Scheme {
		case "http", "https", "s3", "file":
		default:
			errs.AddValidation(prefix+".url", fmt.Sprintf("unsupported url scheme %q", u.Scheme),
				"Use http, https, s3 or file.")
		}
	}

	if a.Checksum != "" {
		if _, err := hex.DecodeString(a.Checksum); err != nil || len(a.Checksum) != checksumHexLen {
			errs.AddValidation(prefix+".checksum", "checksum must be a 64 character SHA-256 hex digest", "")
		}
	}
}

func (v *Validator) validateDatabase(errs *ErrorList, s Settings) {
	if !s.VendorSupported() {
		return
	}
	db := s.Database()
	if db.Host == "" {
		errs.AddValidation("database.host", "host is required", "Use \"localhost\" to manage a local server.")
	}
	if db.Name == "" {
		errs.AddValidation("database.name", "database name is required", "")
	}
	if db.User == "" {
		errs.AddValidation("database.user", "database user is required", "")
	}
	if port := db.EffectivePort(); !validPort(port) {
		errs.AddValidation("database.port", fmt.Sprintf("port %d out of range", port), "")
	}
}

func (v *Validator) validateTomcat(errs *ErrorList, t TomcatSettings) {
	if !validPort(t.Port) {
		errs.AddValidation("tomcat.port", fmt.Sprintf("port %d out of range", t.Port), "")
	}
	if !validPort(t.SSLPort) {
		errs.AddValidation("tomcat.ssl_port", fmt.Sprintf("port %d out of range", t.SSLPort), "")
	}
	if t.ProxyPort != 0 && !validPort(t.ProxyPort) {
		errs.AddValidation("tomcat.proxy_port", fmt.Sprintf("port %d out of range", t.ProxyPort), "")
	}
	if t.Scheme != "http" && t.Scheme != "https" {
		errs.AddValidation("tomcat.scheme", fmt.Sprintf("unknown scheme %q", t.Scheme), "Use \"http\" or \"https\".")
	}
}

func validPort(p int) bool {
	return p > 0 && p <= 65535
}
