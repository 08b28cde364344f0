// Package archive downloads and unpacks the Stash distribution and the
// MySQL Connector/J driver.
package archive

import (
	"path"

	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
	"github.com/felixgeelhaar/stashprov/internal/ports"
	"github.com/felixgeelhaar/stashprov/internal/provider/user"
)

// Step IDs other providers depend on.
var (
	StashDownloadID     = compiler.MustNewStepID("archive:download:stash")
	StashExtractID      = compiler.MustNewStepID("archive:extract:stash")
	ConnectorDownloadID = compiler.MustNewStepID("archive:download:mysql-connector")
	ConnectorExtractID  = compiler.MustNewStepID("archive:extract:mysql-connector")
)

// Provider compiles the artifact attributes into download and extract steps.
type Provider struct {
	runner  ports.CommandRunner
	fs      ports.FileSystem
	fetcher ports.Fetcher
}

// NewProvider creates a new archive Provider.
func NewProvider(runner ports.CommandRunner, fs ports.FileSystem, fetcher ports.Fetcher) *Provider {
	return &Provider{runner: runner, fs: fs, fetcher: fetcher}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "archive"
}

// Compile emits the Stash download and extraction, followed by the
// connector steps, which are guarded on a MySQL database.
func (p *Provider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	attrs := ctx.Attributes()
	cache := attrs.FileCachePath
	stash := attrs.Stash
	connector := stash.MySQL.Connector

	stashArchive := path.Join(cache, attrs.ArchiveName())
	connectorArchive := path.Join(cache, attrs.ConnectorName())

	return []compiler.Step{
		NewDownloadStep(StashDownloadID, Artifact{
			Source:   stash.URL,
			Checksum: stash.Checksum,
			Path:     stashArchive,
		}, p.fs, p.fetcher),
		NewExtractStep(StashExtractID, Extraction{
			Archive:     stashArchive,
			Dir:         attrs.ArchiveDir(),
			Destination: stash.InstallPath,
			Creates:     attrs.InstallFile("atlassian-stash.war"),
			Owner:       stash.RunUser,
		}, p.runner, p.fs, StashDownloadID, user.AccountStepID(stash.RunUser)),
		NewDownloadStep(ConnectorDownloadID, Artifact{
			Source:   connector.URL,
			Checksum: connector.Checksum,
			Path:     connectorArchive,
		}, p.fs, p.fetcher).WithGuard(compiler.GuardUsesMySQL),
		NewExtractStep(ConnectorExtractID, Extraction{
			Archive:     connectorArchive,
			Dir:         attrs.ConnectorDir(),
			Member:      attrs.ConnectorJar(),
			Destination: attrs.InstallFile("lib"),
			Creates:     attrs.InstallFile("lib", attrs.ConnectorJar()),
			Owner:       stash.RunUser,
		}, p.runner, p.fs, ConnectorDownloadID, StashExtractID).WithGuard(compiler.GuardUsesMySQL),
	}, nil
}

// Ensure Provider implements compiler.Provider.
var _ compiler.Provider = (*Provider)(nil)
