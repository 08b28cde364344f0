// Package recipe assembles the Stash provisioning recipe from its providers.
package recipe

import (
	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
	"github.com/felixgeelhaar/stashprov/internal/ports"
	"github.com/felixgeelhaar/stashprov/internal/provider/appprops"
	"github.com/felixgeelhaar/stashprov/internal/provider/apt"
	"github.com/felixgeelhaar/stashprov/internal/provider/archive"
	"github.com/felixgeelhaar/stashprov/internal/provider/database"
	"github.com/felixgeelhaar/stashprov/internal/provider/keystore"
	"github.com/felixgeelhaar/stashprov/internal/provider/service"
	"github.com/felixgeelhaar/stashprov/internal/provider/template"
	"github.com/felixgeelhaar/stashprov/internal/provider/user"
)

// Host bundles the ports a run acts through.
type Host struct {
	Runner   ports.CommandRunner
	FS       ports.FileSystem
	Fetcher  ports.Fetcher
	Database ports.DatabaseOpener
}

// Providers returns the recipe's providers in declaration order.
// Step order within a run follows this order.
func Providers(h Host) []compiler.Provider {
	return []compiler.Provider{
		apt.NewProvider(h.Runner),
		database.NewProvider(h.Database, h.Runner),
		user.NewProvider(h.Runner, h.FS),
		keystore.NewProvider(h.Runner, h.FS),
		archive.NewProvider(h.Runner, h.FS, h.Fetcher),
		service.NewProvider(h.FS, h.Runner),
		template.NewProvider(h.FS, h.Runner),
		appprops.NewProvider(h.Database),
	}
}

// NewCompiler returns a compiler with every recipe provider registered.
func NewCompiler(h Host) *compiler.Compiler {
	c := compiler.NewCompiler()
	for _, p := range Providers(h) {
		c.RegisterProvider(p)
	}
	return c
}
