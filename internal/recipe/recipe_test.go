package recipe_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
	"github.com/felixgeelhaar/stashprov/internal/domain/config"
	"github.com/felixgeelhaar/stashprov/internal/domain/execution"
	"github.com/felixgeelhaar/stashprov/internal/provider/archive"
	"github.com/felixgeelhaar/stashprov/internal/recipe"
	"github.com/felixgeelhaar/stashprov/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, h *fakeHost, settings config.Settings) *compiler.StepGraph {
	t.Helper()
	graph, err := recipe.NewCompiler(h.ports()).Compile(settings)
	require.NoError(t, err)
	return graph
}

func run(t *testing.T, h *fakeHost, settings config.Settings) *execution.RunResult {
	t.Helper()
	// Failures are asserted through the RunResult.
	result, _ := execution.NewExecutor().Run(context.Background(), compile(t, h, settings), settings)
	require.NotNil(t, result)
	return result
}

func stepIDs(graph *compiler.StepGraph) []string {
	ids := make([]string, 0, graph.Len())
	for _, s := range graph.Steps() {
		ids = append(ids, s.ID().String())
	}
	return ids
}

func TestProviders_Order(t *testing.T) {
	t.Parallel()

	names := []string{}
	for _, p := range recipe.Providers(newFakeHost().ports()) {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"apt", "database", "user", "keystore", "archive", "service", "template", "appprops"}, names)
}

func TestCompile_DeclarationOrder(t *testing.T) {
	t.Parallel()

	graph := compile(t, newFakeHost(), testutil.NewSettingsBuilder().Build())

	assert.Equal(t, []string{
		"apt:package:mysql-server",
		"database:admin-password:mysql",
		"database:create:stash",
		"database:user:stash",
		"database:grant:stash@stash",
		"user:create:stash",
		"keystore:generate:tomcat",
		"archive:download:stash",
		"archive:extract:stash",
		"archive:download:mysql-connector",
		"archive:extract:mysql-connector",
		"service:script:stash",
		"service:enable:stash",
		"template:render:bin/setenv.sh",
		"template:render:conf/server.xml",
		"template:render:conf/web.xml",
		"template:render:stash-config.properties",
		"appprops:seed:instance.url",
	}, stepIDs(graph))

	h, found := graph.Handler("service:stash")
	require.True(t, found)
	assert.Equal(t, "service:enable:stash", h.ID().String())
}

func TestRun_ConvergesThenIsIdempotent(t *testing.T) {
	t.Parallel()

	h := newFakeHost()
	settings := testutil.NewSettingsBuilder().Build()

	first := run(t, h, settings)
	require.True(t, first.Success(), "first run failed: %v", first.Err())
	assert.True(t, first.Changed())
	assert.Equal(t, 1, h.Restarts(), "four templates notify, the service restarts once")
	require.Len(t, first.Notifications(), 1)
	assert.Equal(t, 4, first.Notifications()[0].Count)
	assert.True(t, first.Notifications()[0].Dispatched)

	assert.True(t, h.db.Granted("stash", "stash"))
	testutil.AssertMockFile(t, h.fs, "/var/atlassian/application-data/stash/.keystore", 0o644)
	testutil.AssertMockFile(t, h.fs, "/opt/atlassian/stash/lib/mysql-connector-java-5.1.22-bin.jar", 0o644)
	testutil.AssertMockFile(t, h.fs, "/opt/atlassian/stash/conf/server.xml", 0o640)

	second := run(t, h, settings)
	require.True(t, second.Success(), "second run failed: %v", second.Err())
	for _, res := range second.Results() {
		assert.Contains(t, []compiler.StepStatus{compiler.StatusSatisfied, compiler.StatusSkipped}, res.Status(),
			"step %s", res.StepID())
	}
	assert.False(t, second.Changed())
	assert.Empty(t, second.Notifications())
	assert.Equal(t, 1, h.Restarts())
}

func TestRun_TemplateChangeRestartsOnce(t *testing.T) {
	t.Parallel()

	h := newFakeHost()
	require.True(t, run(t, h, testutil.NewSettingsBuilder().Build()).Success())

	changed := testutil.NewSettingsBuilder().WithTomcat(config.TomcatSettings{
		Port: 8080, SSLPort: 8443, KeystorePass: "changeit", Scheme: "https", ProxyName: "git.example.com", ProxyPort: 443,
	}).Build()
	result := run(t, h, changed)
	require.True(t, result.Success())

	applied := []string{}
	for _, res := range result.Results() {
		if res.Status() == compiler.StatusApplied {
			applied = append(applied, res.StepID().String())
		}
	}
	assert.Equal(t, []string{"template:render:conf/server.xml", "template:render:conf/web.xml"}, applied)
	assert.Equal(t, 2, h.Restarts())
}

func TestRun_RemoteDatabaseSkipsDatabaseSteps(t *testing.T) {
	t.Parallel()

	h := newFakeHost()
	result := run(t, h, testutil.NewSettingsBuilder().WithDatabaseHost("db01.example.com").Build())
	require.True(t, result.Success(), "run failed: %v", result.Err())

	for _, res := range result.Results() {
		id := res.StepID().String()
		if strings.HasPrefix(id, "apt:") || strings.HasPrefix(id, "database:") {
			assert.Equal(t, compiler.StatusSkipped, res.Status(), id)
			assert.Contains(t, res.Reason(), "database host is localhost")
		}
	}
	assert.Empty(t, h.runner.CallsTo("dpkg-query"))
	assert.Empty(t, h.db.Connections())
	assert.False(t, h.db.Granted("stash", "stash"))
}

func TestRun_UnsupportedVendor(t *testing.T) {
	t.Parallel()

	h := newFakeHost()
	settings := testutil.NewSettingsBuilder().WithDatabaseType("oracle").Build()
	require.NotEmpty(t, settings.Warnings())

	graph := compile(t, h, settings)
	for _, id := range stepIDs(graph) {
		assert.False(t, strings.HasPrefix(id, "database:") || strings.HasPrefix(id, "apt:") || strings.HasPrefix(id, "appprops:"), id)
	}

	result, _ := execution.NewExecutor().Run(context.Background(), graph, settings)
	require.True(t, result.Success(), "run failed: %v", result.Err())
	assert.Equal(t, settings.Warnings(), result.Warnings())

	res, found := result.Result(archive.ConnectorExtractID)
	require.True(t, found)
	assert.Equal(t, compiler.StatusSkipped, res.Status())
	assert.Equal(t, 1, h.Restarts())
}

func TestRun_ChecksumMismatchAbortsBeforeExtract(t *testing.T) {
	t.Parallel()

	h := newFakeHost()
	h.fetcher.Serve("http://www.atlassian.com/software/stash/downloads/binary/atlassian-stash-2.0.3.tar.gz", []byte("tampered"))

	result := run(t, h, testutil.NewSettingsBuilder().Build())
	require.False(t, result.Success())
	assert.True(t, result.Aborted())
	require.ErrorIs(t, result.Err(), archive.ErrChecksumMismatch)

	download, _ := result.Result(archive.StashDownloadID)
	assert.Equal(t, compiler.StatusFailed, download.Status())
	extract, _ := result.Result(archive.StashExtractID)
	assert.Equal(t, compiler.StatusPending, extract.Status())

	assert.Empty(t, h.runner.CallsTo("tar"))
	assert.False(t, h.fs.Exists("/var/cache/stashprov/atlassian-stash-2.0.3.tar.gz"))
	assert.False(t, h.fs.Exists("/var/cache/stashprov/atlassian-stash-2.0.3.tar.gz.part"))
	assert.Equal(t, 0, h.Restarts())
}

func TestRun_DryRunChangesNothing(t *testing.T) {
	t.Parallel()

	h := newFakeHost()
	settings := testutil.NewSettingsBuilder().Build()
	result, err := execution.NewExecutor().WithDryRun(true).Run(context.Background(), compile(t, h, settings), settings)
	require.NoError(t, err)

	assert.Positive(t, result.Summary().NeedsApply)
	assert.Zero(t, result.Summary().Applied)
	require.Len(t, result.Notifications(), 1)
	assert.False(t, result.Notifications()[0].Dispatched)

	for _, cmd := range []string{"env", "useradd", "tar", "mv", "update-rc.d", "/etc/init.d/stash"} {
		assert.Empty(t, h.runner.CallsTo(cmd), cmd)
	}
	assert.Empty(t, h.fs.Writes())
	assert.Empty(t, h.fetcher.Fetched())
}

func TestRun_DryRunWithUnreachableDatabaseServer(t *testing.T) {
	t.Parallel()

	h := newFakeHost()
	h.db.FailOpen(errors.New("dial tcp 127.0.0.1:3306: connection refused"))
	settings := testutil.NewSettingsBuilder().Build()

	result, err := execution.NewExecutor().WithDryRun(true).Run(context.Background(), compile(t, h, settings), settings)
	require.NoError(t, err)
	assert.False(t, result.Aborted())

	create, found := result.Result(compiler.MustNewStepID("database:create:stash"))
	require.True(t, found)
	assert.Equal(t, compiler.StatusNeedsApply, create.Status())
	assert.Equal(t, "depends on pending change database:admin-password:mysql", create.Reason())

	for _, res := range result.Results() {
		assert.NotEqual(t, compiler.StatusPending, res.Status(), res.StepID().String())
		assert.NotEqual(t, compiler.StatusFailed, res.Status(), res.StepID().String())
	}
	assert.Empty(t, h.runner.CallsTo("mysqladmin"))
}

func TestRun_SeedFailureDoesNotStopRun(t *testing.T) {
	t.Parallel()

	h := newFakeHost()
	h.db.FailExec(assert.AnError)

	result := run(t, h, testutil.NewSettingsBuilder().WithSeedProperties().WithLicense("AAAB").Build())
	require.True(t, result.Success(), "run failed: %v", result.Err())

	for _, id := range []string{"appprops:seed:instance.url", "appprops:seed:license"} {
		res, found := result.Result(compiler.MustNewStepID(id))
		require.True(t, found, id)
		assert.Equal(t, compiler.StatusFailed, res.Status(), id)
	}
	assert.Equal(t, 1, h.Restarts())
}
