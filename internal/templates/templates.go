// Package templates renders the files Stash is configured through.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"text/template"

	"github.com/coreos/go-systemd/v22/unit"
	"gopkg.in/ini.v1"

	"github.com/felixgeelhaar/stashprov/internal/domain/config"
)

//go:embed files/*.tmpl
var files embed.FS

var parsed = template.Must(template.New("stash").ParseFS(files, "files/*.tmpl"))

// Template names.
const (
	InitScript = "stash.init.tmpl"
	SetEnv     = "setenv.sh.tmpl"
	ServerXML  = "server.xml.tmpl"
	WebXML     = "web.xml.tmpl"
)

// DatabaseData is the JDBC view of the application database.
type DatabaseData struct {
	Driver   string
	URL      string
	User     string
	Password string
}

// Data is everything the templates may refer to.
type Data struct {
	ServiceName      string
	RunUser          string
	HomePath         string
	InstallPath      string
	JavaHome         string
	KeystoreFile     string
	JVMMinimumMemory string
	JVMMaximumMemory string
	SessionTimeout   int
	Tomcat           config.TomcatSettings
	Database         DatabaseData
}

// NewData derives template data from resolved settings.
func NewData(s config.Settings) Data {
	attrs := s.Attributes()
	db := s.Database()
	return Data{
		ServiceName:      attrs.Stash.ServiceName,
		RunUser:          attrs.Stash.RunUser,
		HomePath:         attrs.Stash.HomePath,
		InstallPath:      attrs.Stash.InstallPath,
		JavaHome:         attrs.Java.JavaHome,
		KeystoreFile:     attrs.KeystorePath(),
		JVMMinimumMemory: "512m",
		JVMMaximumMemory: "768m",
		SessionTimeout:   30,
		Tomcat:           s.Tomcat(),
		Database: DatabaseData{
			Driver:   db.Vendor.JDBCDriver(),
			URL:      db.JDBCURL(),
			User:     db.User,
			Password: db.Password,
		},
	}
}

// Render executes the named embedded template.
func Render(name string, data Data) ([]byte, error) {
	var buf bytes.Buffer
	if err := parsed.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// RenderProperties renders stash-config.properties.
func RenderProperties(data Data) ([]byte, error) {
	// Inline comment handling would wrap values containing '#' in backticks,
	// which Java properties would keep literally.
	f := ini.Empty(ini.LoadOptions{IgnoreInlineComment: true})
	section := f.Section(ini.DefaultSection)
	for _, kv := range [][2]string{
		{"jdbc.driver", data.Database.Driver},
		{"jdbc.url", data.Database.URL},
		{"jdbc.user", data.Database.User},
		{"jdbc.password", data.Database.Password},
	} {
		if _, err := section.NewKey(kv[0], kv[1]); err != nil {
			return nil, fmt.Errorf("stash-config.properties: %w", err)
		}
	}

	var buf bytes.Buffer
	buf.WriteString("# Generated by stashprov. Local changes will be overwritten.\n")
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("stash-config.properties: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderSystemdUnit renders the unit file used instead of the init script
// when the host runs systemd.
func RenderSystemdUnit(data Data) ([]byte, error) {
	opts := []*unit.UnitOption{
		unit.NewUnitOption("Unit", "Description", "Atlassian Stash"),
		unit.NewUnitOption("Unit", "After", "network.target"),
		unit.NewUnitOption("Service", "Type", "forking"),
		unit.NewUnitOption("Service", "User", data.RunUser),
		unit.NewUnitOption("Service", "Environment", "STASH_HOME="+data.HomePath),
		unit.NewUnitOption("Service", "Environment", "JAVA_HOME="+data.JavaHome),
		unit.NewUnitOption("Service", "ExecStart", data.InstallPath+"/bin/start-stash.sh"),
		unit.NewUnitOption("Service", "ExecStop", data.InstallPath+"/bin/stop-stash.sh"),
		unit.NewUnitOption("Service", "Restart", "on-failure"),
		unit.NewUnitOption("Install", "WantedBy", "multi-user.target"),
	}
	out, err := io.ReadAll(unit.Serialize(opts))
	if err != nil {
		return nil, fmt.Errorf("render %s.service: %w", data.ServiceName, err)
	}
	return out, nil
}
