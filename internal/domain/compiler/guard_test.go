package compiler

import (
	"testing"

	"github.com/felixgeelhaar/stashprov/internal/domain/config"
)

func settingsFor(dbType, host string) config.Settings {
	return config.NewSettings("production", config.Environment{
		Database: config.DatabaseSettings{Type: dbType, Host: host},
	}, config.DefaultAttributes())
}

func TestGuard_CommonGuards(t *testing.T) {
	tests := []struct {
		name     string
		guard    Guard
		settings config.Settings
		want     bool
	}{
		{"local mysql", GuardDatabaseLocal, settingsFor("mysql", "localhost"), true},
		{"remote mysql", GuardDatabaseLocal, settingsFor("mysql", "db01.example.com"), false},
		{"supported postgres", GuardVendorSupported, settingsFor("postgresql", "localhost"), true},
		{"unsupported oracle", GuardVendorSupported, settingsFor("oracle", "localhost"), false},
		{"mysql connector", GuardUsesMySQL, settingsFor("mysql", "db01"), true},
		{"postgres connector", GuardUsesMySQL, settingsFor("postgresql", "db01"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.guard.Allows(tt.settings); got != tt.want {
				t.Errorf("Allows() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAllOf(t *testing.T) {
	guard := AllOf(GuardDatabaseLocal, Always(), GuardVendorSupported)

	if guard.Description() != "database host is localhost and database type is supported" {
		t.Errorf("Description() = %q", guard.Description())
	}
	if !guard.Allows(settingsFor("mysql", "localhost")) {
		t.Error("local mysql should pass")
	}
	if guard.Allows(settingsFor("oracle", "localhost")) {
		t.Error("unsupported vendor should fail")
	}
	if guard.Allows(settingsFor("mysql", "db01")) {
		t.Error("remote host should fail")
	}
}

func TestAllOf_Empty(t *testing.T) {
	guard := AllOf()
	if !guard.Allows(config.Settings{}) {
		t.Error("empty AllOf should allow")
	}
}
