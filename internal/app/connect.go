package app

import (
	"context"

	"github.com/coreos/go-systemd/v22/util"

	"github.com/felixgeelhaar/stashprov/internal/adapters/command"
	"github.com/felixgeelhaar/stashprov/internal/adapters/database"
	"github.com/felixgeelhaar/stashprov/internal/adapters/fetch"
	"github.com/felixgeelhaar/stashprov/internal/adapters/filesystem"
	"github.com/felixgeelhaar/stashprov/internal/adapters/remote"
	"github.com/felixgeelhaar/stashprov/internal/domain/config"
	"github.com/felixgeelhaar/stashprov/internal/recipe"
)

// systemdRuntimeDir exists only on hosts booted with systemd.
const systemdRuntimeDir = "/run/systemd/system"

// Connector reaches the target host described by opts.
type Connector func(ctx context.Context, opts Options, attrs config.Attributes) (*Target, error)

// Target is a connected host and its ports.
type Target struct {
	recipe.Host
	systemd func() bool
	close   func() error
}

// NewTarget wraps host ports. systemd reports whether the host runs systemd.
func NewTarget(host recipe.Host, systemd func() bool, closeFn func() error) *Target {
	if closeFn == nil {
		closeFn = func() error { return nil }
	}
	return &Target{Host: host, systemd: systemd, close: closeFn}
}

// ServiceManager detects the host's init system.
func (t *Target) ServiceManager() string {
	if t.systemd != nil && t.systemd() {
		return config.ServiceManagerSystemd
	}
	return config.ServiceManagerSysV
}

// Close releases the connection.
func (t *Target) Close() error {
	return t.close()
}

// Connect provisions the local machine, or the remote host over SSH when
// opts.Remote is set. Artifacts are always fetched by this process.
func Connect(ctx context.Context, opts Options, attrs config.Attributes) (*Target, error) {
	fetcher, err := fetch.NewDefault(attrs.Artifacts)
	if err != nil {
		return nil, err
	}

	if opts.Remote == nil {
		return NewTarget(recipe.Host{
			Runner:   command.NewRealRunner(),
			FS:       filesystem.NewRealFileSystem(),
			Fetcher:  fetcher,
			Database: database.NewOpener(),
		}, util.IsRunningSystemd, nil), nil
	}

	client, err := remote.Dial(ctx, *opts.Remote)
	if err != nil {
		return nil, err
	}
	fs := client.FileSystem()
	return NewTarget(recipe.Host{
		Runner:   client.Runner(),
		FS:       fs,
		Fetcher:  fetcher,
		Database: database.NewOpener().WithDialer(client.DialContext),
	}, func() bool { return fs.IsDir(systemdRuntimeDir) }, client.Close), nil
}
