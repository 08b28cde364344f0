package user_test

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
	"github.com/felixgeelhaar/stashprov/internal/ports"
	"github.com/felixgeelhaar/stashprov/internal/provider/user"
	"github.com/felixgeelhaar/stashprov/internal/testutil"
	"github.com/felixgeelhaar/stashprov/internal/testutil/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stashAccount = user.Account{
	Name:    "stash",
	Home:    "/var/atlassian/application-data/stash",
	Shell:   "/bin/bash",
	Comment: "Stash Service Account",
}

func TestProvider_Compile(t *testing.T) {
	t.Parallel()

	settings := testutil.NewSettingsBuilder().Build()
	p := user.NewProvider(mocks.NewCommandRunner(), mocks.NewFileSystem())

	steps, err := p.Compile(compiler.NewCompileContext(settings))
	require.NoError(t, err)
	require.Len(t, steps, 1)

	assert.Equal(t, "user", p.Name())
	assert.Equal(t, "user:create:stash", steps[0].ID().String())
	assert.Empty(t, steps[0].DependsOn())
}

func TestAccountStep_Check(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		result  ports.CommandResult
		want    compiler.StepStatus
		wantErr bool
	}{
		{"exists", ports.CommandResult{Stdout: "stash:x:998:998::/var/atlassian/application-data/stash:/bin/bash\n"}, compiler.StatusSatisfied, false},
		{"missing", ports.CommandResult{ExitCode: 2}, compiler.StatusNeedsApply, false},
		{"broken nss", ports.CommandResult{ExitCode: 1, Stderr: "getent: bad database"}, compiler.StatusUnknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runner := mocks.NewCommandRunner()
			runner.AddResult("getent", []string{"passwd", "stash"}, tt.result)

			status, err := user.NewAccountStep(stashAccount, runner, mocks.NewFileSystem()).
				Check(compiler.NewRunContext(context.Background()))
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestAccountStep_Apply(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	fs := mocks.NewFileSystem()
	args := []string{
		"--system",
		"--comment", "Stash Service Account",
		"--home-dir", "/var/atlassian/application-data/stash",
		"--create-home",
		"--shell", "/bin/bash",
		"stash",
	}
	runner.AddResult("useradd", args, ports.CommandResult{})

	step := user.NewAccountStep(stashAccount, runner, fs)
	require.NoError(t, step.Apply(compiler.NewRunContext(context.Background())))

	testutil.AssertRan(t, runner, "useradd", args...)
	assert.True(t, fs.IsDir("/var/atlassian/application-data"))
}

func TestAccountStep_Apply_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		account user.Account
	}{
		{"bad name", user.Account{Name: "Stash", Home: "/home/stash", Shell: "/bin/bash"}},
		{"relative home", user.Account{Name: "stash", Home: "home/stash", Shell: "/bin/bash"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runner := mocks.NewCommandRunner()
			err := user.NewAccountStep(tt.account, runner, mocks.NewFileSystem()).
				Apply(compiler.NewRunContext(context.Background()))
			require.Error(t, err)
			assert.Empty(t, runner.Calls())
		})
	}
}

func TestAccountStep_PlanAndExplain(t *testing.T) {
	t.Parallel()

	step := user.NewAccountStep(stashAccount, mocks.NewCommandRunner(), mocks.NewFileSystem())

	diff, err := step.Plan(compiler.NewRunContext(context.Background()))
	require.NoError(t, err)
	assert.Contains(t, diff.Summary(), "user stash")

	exp := step.Explain(compiler.NewExplainContext())
	assert.Contains(t, exp.Detail(), "/bin/bash")
}
