package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/stashprov/internal/adapters/logging"
	"github.com/felixgeelhaar/stashprov/internal/app"
	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
	"github.com/felixgeelhaar/stashprov/internal/domain/config"
	"github.com/felixgeelhaar/stashprov/internal/ports"
	"github.com/felixgeelhaar/stashprov/internal/recipe"
	"github.com/felixgeelhaar/stashprov/internal/testutil"
	"github.com/felixgeelhaar/stashprov/internal/testutil/mocks"
)

// freshHost answers every check as on an unprovisioned machine.
func freshHost() recipe.Host {
	runner := mocks.NewCommandRunner()
	runner.AddHandler("dpkg-query", func([]string) (ports.CommandResult, error) {
		return ports.CommandResult{ExitCode: 1}, nil
	})
	runner.AddHandler("getent", func([]string) (ports.CommandResult, error) {
		return ports.CommandResult{ExitCode: 2}, nil
	})
	runner.AddHandler("find", func([]string) (ports.CommandResult, error) {
		return ports.CommandResult{}, nil
	})
	runner.AddHandler("systemctl", func([]string) (ports.CommandResult, error) {
		return ports.CommandResult{ExitCode: 1, Stdout: "disabled"}, nil
	})
	return recipe.Host{
		Runner:   runner,
		FS:       mocks.NewFileSystem(),
		Fetcher:  mocks.NewFetcher(),
		Database: mocks.NewDatabaseServer(),
	}
}

func newApp(out *bytes.Buffer, systemd bool) *app.Stashprov {
	return app.New(out, logging.NewNopLogger()).WithConnector(
		func(context.Context, app.Options, config.Attributes) (*app.Target, error) {
			return app.NewTarget(freshHost(), func() bool { return systemd }, nil), nil
		})
}

func fixtureOptions(t *testing.T) app.Options {
	t.Helper()
	dir := t.TempDir()
	return app.Options{
		BundlePath:     testutil.WriteFixture(t, dir, "bundle.yaml"),
		AttributesPath: testutil.WriteFixture(t, dir, "attributes.yaml"),
	}
}

func TestStashprov_Load(t *testing.T) {
	t.Parallel()

	opts := fixtureOptions(t)
	settings, err := newApp(&bytes.Buffer{}, false).Load(opts)
	require.NoError(t, err)
	assert.Equal(t, "production", settings.Environment())
	assert.Equal(t, 3306, settings.Database().EffectivePort())

	opts.Environment = "staging"
	settings, err = newApp(&bytes.Buffer{}, false).Load(opts)
	require.NoError(t, err)
	assert.Equal(t, config.VendorPostgreSQL, settings.Vendor())
	assert.False(t, settings.DatabaseIsLocal())
}

func TestStashprov_Load_UnknownEnvironment(t *testing.T) {
	t.Parallel()

	opts := fixtureOptions(t)
	opts.Environment = "qa"
	_, err := newApp(&bytes.Buffer{}, false).Load(opts)

	var ue *config.UserError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, config.ErrCodeEnvironmentNotFound, ue.Code)
}

func TestStashprov_Plan(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	a := newApp(&out, false)
	plan, err := a.Plan(context.Background(), fixtureOptions(t))
	require.NoError(t, err)
	require.True(t, plan.HasChanges())

	a.PrintPlan(plan, false)
	text := out.String()
	assert.Contains(t, text, "Stash Provisioning Plan")
	assert.Contains(t, text, "apt:package:mysql-server")
	assert.Contains(t, text, "service:script:stash")
	assert.Contains(t, text, "restart service:stash (delayed)")
	assert.Contains(t, text, "Run 'stashprov apply'")
	assert.NotContains(t, text, "Runs when:")
	assert.NotContains(t, text, "rootpw")
}

func TestStashprov_PlanExplained(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	a := newApp(&out, false)
	plan, err := a.Plan(context.Background(), fixtureOptions(t))
	require.NoError(t, err)

	a.PrintPlan(plan, true)
	text := out.String()
	assert.Contains(t, text, "Runs when: database host is localhost")
	assert.Contains(t, text, "Enable service")
}

func TestStashprov_Plan_AutoServiceManager(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	attrs := strings.Replace(string(testutil.LoadFixture(t, "attributes.yaml")), "service_manager: sysv", "service_manager: auto", 1)
	opts := app.Options{
		BundlePath:     testutil.WriteFixture(t, dir, "bundle.yaml"),
		AttributesPath: testutil.WriteTempFile(t, dir, "attributes.yaml", attrs),
	}

	plan, err := newApp(&bytes.Buffer{}, true).Plan(context.Background(), opts)
	require.NoError(t, err)

	ids := []string{}
	for _, e := range plan.Entries() {
		ids = append(ids, e.Step().ID().String())
	}
	assert.Contains(t, ids, "service:unit:stash")
	assert.NotContains(t, ids, "service:script:stash")
}

func TestStashprov_Apply_DryRunWritesMetrics(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	a := newApp(&out, false)
	opts := fixtureOptions(t)
	opts.MetricsFile = filepath.Join(t.TempDir(), "stashprov.prom")

	result, err := a.Apply(context.Background(), opts, true)
	require.NoError(t, err)
	assert.True(t, result.DryRun())
	assert.Zero(t, result.Summary().Applied)

	res, found := result.Result(compiler.MustNewStepID("user:create:stash"))
	require.True(t, found)
	assert.Equal(t, compiler.StatusNeedsApply, res.Status())

	a.PrintResult(result)
	assert.Contains(t, out.String(), "Dry Run Results")
	assert.Contains(t, out.String(), "would run")

	metrics, err := os.ReadFile(opts.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `stashprov_steps{status="needs-apply"}`)
	assert.Contains(t, string(metrics), `environment="production"`)
}

func TestStashprov_Validate(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	a := newApp(&out, false)
	result, err := a.Validate(context.Background(), fixtureOptions(t))
	require.NoError(t, err)
	assert.True(t, result.Valid())
	assert.Contains(t, result.Info, "Environment: production")
	assert.Contains(t, result.Info, "Database: mysql on localhost:3306")

	a.PrintValidation(result)
	assert.Contains(t, out.String(), "Configuration is valid.")
}

func TestStashprov_Validate_ReportsProblems(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	attrs := strings.Replace(string(testutil.LoadFixture(t, "attributes.yaml")), "version: 2.0.3", "version: latest", 1)
	opts := app.Options{
		BundlePath:     testutil.WriteFixture(t, dir, "bundle.yaml"),
		AttributesPath: testutil.WriteTempFile(t, dir, "attributes.yaml", attrs),
	}

	result, err := newApp(&bytes.Buffer{}, false).Validate(context.Background(), opts)
	require.NoError(t, err)
	assert.False(t, result.Valid())
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "stash.version")
}

func TestStashprov_Validate_UnsupportedVendorWarns(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bundle := "production:\n  database:\n    type: oracle\n    host: localhost\n    user: stash\n    password: s3cret\n    name: stash\n"
	opts := app.Options{
		BundlePath:     testutil.WriteTempFile(t, dir, "bundle.yaml", bundle),
		AttributesPath: testutil.WriteFixture(t, dir, "attributes.yaml"),
	}

	result, err := newApp(&bytes.Buffer{}, false).Validate(context.Background(), opts)
	require.NoError(t, err)
	assert.True(t, result.Valid())
	assert.Equal(t, []string{`Unsupported database type "oracle".`}, result.Warnings)
}

func TestStashprov_Decrypt(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	secret := []byte("correct horse battery staple")
	item, err := config.EncryptItem(map[string]any{
		"id":         "stash",
		"production": map[string]any{"database": map[string]any{"type": "mysql", "password": "s3cret"}},
	}, secret, 3)
	require.NoError(t, err)
	data, err := json.Marshal(item)
	require.NoError(t, err)

	itemPath := testutil.WriteTempFile(t, dir, "stash.json", string(data))
	secretPath := testutil.WriteTempFile(t, dir, "secret", string(secret)+"\n")

	var out bytes.Buffer
	require.NoError(t, newApp(&out, false).Decrypt(itemPath, secretPath))
	assert.Contains(t, out.String(), `"password": "s3cret"`)
	assert.Contains(t, out.String(), `"id": "stash"`)
}
