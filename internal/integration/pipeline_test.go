//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/stashprov/internal/adapters/logging"
	"github.com/felixgeelhaar/stashprov/internal/app"
	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
	"github.com/felixgeelhaar/stashprov/internal/domain/config"
	"github.com/felixgeelhaar/stashprov/internal/ports"
	"github.com/felixgeelhaar/stashprov/internal/provider/archive"
	"github.com/felixgeelhaar/stashprov/internal/recipe"
	"github.com/felixgeelhaar/stashprov/internal/testutil"
	"github.com/felixgeelhaar/stashprov/internal/testutil/mocks"
)

const stashURL = "http://www.atlassian.com/software/stash/downloads/binary/atlassian-stash-2.0.3.tar.gz"

// newHost models a machine where nothing is installed yet.
func newHost() (recipe.Host, *mocks.CommandRunner, *mocks.FileSystem) {
	runner := mocks.NewCommandRunner()
	succeed := func([]string) (ports.CommandResult, error) { return ports.CommandResult{}, nil }
	runner.AddHandler("dpkg-query", func([]string) (ports.CommandResult, error) {
		return ports.CommandResult{ExitCode: 1}, nil
	})
	runner.AddHandler("getent", func([]string) (ports.CommandResult, error) {
		return ports.CommandResult{ExitCode: 2}, nil
	})
	runner.AddHandler("find", succeed)
	runner.AddHandler("env", succeed)
	runner.AddHandler("mysqladmin", succeed)
	runner.AddHandler("useradd", succeed)
	runner.AddHandler("/usr/lib/jvm/java-7-openjdk-amd64/bin/keytool", succeed)

	fs := mocks.NewFileSystem()
	return recipe.Host{
		Runner:   runner,
		FS:       fs,
		Fetcher:  mocks.NewFetcher(),
		Database: mocks.NewDatabaseServer(),
	}, runner, fs
}

func newApp(out *bytes.Buffer, host recipe.Host) *app.Stashprov {
	return app.New(out, logging.NewNopLogger()).WithConnector(
		func(context.Context, app.Options, config.Attributes) (*app.Target, error) {
			return app.NewTarget(host, func() bool { return false }, nil), nil
		})
}

func writeDataBag(t *testing.T, dir string, version int) (string, string) {
	t.Helper()

	secret := []byte("integration secret")
	item, err := config.EncryptItem(map[string]any{
		"id": "stash",
		"production": map[string]any{
			"database": map[string]any{
				"type": "mysql", "host": "localhost", "user": "stash", "password": "s3cret", "name": "stash",
			},
			"tomcat": map[string]any{"keystore_pass": "changeit"},
		},
	}, secret, version)
	require.NoError(t, err)

	data, err := json.Marshal(item)
	require.NoError(t, err)
	return testutil.WriteTempFile(t, dir, "stash.json", string(data)),
		testutil.WriteTempFile(t, dir, "encrypted_data_bag_secret", string(secret))
}

func TestPipeline_EncryptedDataBag(t *testing.T) {
	t.Parallel()

	for _, version := range []int{1, 2, 3} {
		t.Run(fmt.Sprintf("v%d", version), func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			bundlePath, secretPath := writeDataBag(t, dir, version)
			opts := app.Options{
				BundlePath:     bundlePath,
				SecretPath:     secretPath,
				AttributesPath: testutil.WriteFixture(t, dir, "attributes.yaml"),
			}

			host, _, _ := newHost()
			var out bytes.Buffer
			stash := newApp(&out, host)

			settings, err := stash.Load(opts)
			require.NoError(t, err)
			assert.Equal(t, "s3cret", settings.Database().Password)
			assert.Equal(t, 3306, settings.Database().EffectivePort())

			plan, err := stash.Plan(context.Background(), opts)
			require.NoError(t, err)
			assert.True(t, plan.HasChanges())
			assert.Equal(t, 18, plan.Summary().Total)
			assert.Contains(t, out.String(), "Stash Provisioning Plan")
			assert.NotContains(t, out.String(), "s3cret")
		})
	}
}

func TestPipeline_TOMLBundleDryRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	opts := app.Options{
		BundlePath:     testutil.WriteFixture(t, dir, "bundle.toml"),
		AttributesPath: testutil.WriteFixture(t, dir, "attributes.yaml"),
	}

	host, runner, fs := newHost()
	result, err := newApp(&bytes.Buffer{}, host).Apply(context.Background(), opts, true)
	require.NoError(t, err)

	assert.True(t, result.DryRun())
	assert.True(t, result.Success())
	assert.Empty(t, fs.Writes())
	assert.False(t, runner.Ran("env"))

	create, found := result.Result(compiler.MustNewStepID("database:create:stash"))
	require.True(t, found)
	assert.Equal(t, compiler.StatusNeedsApply, create.Status())

	for _, n := range result.Notifications() {
		assert.False(t, n.Dispatched, n.Notification.Key())
	}
}

func TestPipeline_ChecksumMismatchAbortsAndRecordsMetrics(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	metricsPath := filepath.Join(dir, "stashprov.prom")
	opts := app.Options{
		BundlePath:     testutil.WriteFixture(t, dir, "bundle.yaml"),
		AttributesPath: testutil.WriteFixture(t, dir, "attributes.yaml"),
		MetricsFile:    metricsPath,
	}

	host, runner, _ := newHost()
	host.Fetcher.(*mocks.Fetcher).Serve(stashURL, []byte("not the tarball"))

	result, err := newApp(&bytes.Buffer{}, host).Apply(context.Background(), opts, false)
	require.ErrorIs(t, err, archive.ErrChecksumMismatch)
	require.NotNil(t, result)

	assert.True(t, result.Aborted())
	assert.False(t, result.Success())
	assert.False(t, runner.Ran("tar"))

	extract, found := result.Result(compiler.MustNewStepID("archive:extract:stash"))
	require.True(t, found)
	assert.Equal(t, compiler.StatusPending, extract.Status())
	assert.Empty(t, result.Notifications())

	testutil.AssertFileExists(t, metricsPath)
	testutil.AssertFileContains(t, metricsPath, `stashprov_steps{status="failed"} 1`)
	testutil.AssertFileContains(t, metricsPath, `stashprov_steps{status="applied"}`)
}
