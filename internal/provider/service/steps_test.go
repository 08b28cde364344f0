package service_test

import (
	"errors"
	"testing"

	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
	"github.com/felixgeelhaar/stashprov/internal/domain/config"
	"github.com/felixgeelhaar/stashprov/internal/ports"
	"github.com/felixgeelhaar/stashprov/internal/provider/service"
	"github.com/felixgeelhaar/stashprov/internal/testutil"
	"github.com/felixgeelhaar/stashprov/internal/testutil/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scriptID = compiler.MustNewStepID("service:script:stash")

var rcFind = []string{"/etc/rc2.d", "-name", "S[0-9][0-9]stash"}

// runlevelHost has the default multi-user runlevel directory.
func runlevelHost() *mocks.FileSystem {
	fs := mocks.NewFileSystem()
	fs.AddDir("/etc/rc2.d")
	return fs
}

func TestEnableStep_Check_SysV(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		stdout string
		want   compiler.StepStatus
	}{
		{name: "link present", stdout: "/etc/rc2.d/S20stash\n", want: compiler.StatusSatisfied},
		{name: "no link", stdout: "", want: compiler.StatusNeedsApply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runner := mocks.NewCommandRunner()
			runner.AddResult("find", rcFind, ports.CommandResult{Stdout: tt.stdout})
			step := service.NewEnableStep(service.NewManager(config.ServiceManagerSysV, "stash", runner, runlevelHost()), scriptID)

			status, err := step.Check(runCtx())
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestEnableStep_Check_Error(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	runner.AddResult("find", rcFind, ports.CommandResult{ExitCode: 1, Stderr: "find: '/etc/rc2.d': Permission denied"})
	step := service.NewEnableStep(service.NewManager(config.ServiceManagerSysV, "stash", runner, runlevelHost()), scriptID)

	status, err := step.Check(runCtx())
	require.Error(t, err)
	assert.Equal(t, compiler.StatusUnknown, status)
}

func TestEnableStep_Check_SysVWithoutRunlevelDir(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	step := service.NewEnableStep(service.NewManager(config.ServiceManagerSysV, "stash", runner, mocks.NewFileSystem()), scriptID)

	status, err := step.Check(runCtx())
	require.NoError(t, err)
	assert.Equal(t, compiler.StatusNeedsApply, status)
	assert.Empty(t, runner.CallsTo("find"))
}

func TestEnableStep_Check_Systemd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result ports.CommandResult
		want   compiler.StepStatus
	}{
		{name: "enabled", result: ports.CommandResult{Stdout: "enabled\n"}, want: compiler.StatusSatisfied},
		{name: "disabled", result: ports.CommandResult{ExitCode: 1, Stdout: "disabled\n"}, want: compiler.StatusNeedsApply},
		{name: "not found", result: ports.CommandResult{ExitCode: 1, Stderr: "Failed to get unit file state"}, want: compiler.StatusNeedsApply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runner := mocks.NewCommandRunner()
			runner.AddResult("systemctl", []string{"is-enabled", "stash"}, tt.result)
			step := service.NewEnableStep(service.NewManager(config.ServiceManagerSystemd, "stash", runner, runlevelHost()), scriptID)

			status, err := step.Check(runCtx())
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestEnableStep_Apply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		manager string
		cmd     string
		args    []string
	}{
		{manager: config.ServiceManagerSysV, cmd: "update-rc.d", args: []string{"stash", "defaults"}},
		{manager: config.ServiceManagerSystemd, cmd: "systemctl", args: []string{"enable", "stash"}},
	}

	for _, tt := range tests {
		t.Run(tt.manager, func(t *testing.T) {
			t.Parallel()

			runner := mocks.NewCommandRunner()
			runner.AddResult(tt.cmd, tt.args, ports.CommandResult{})
			step := service.NewEnableStep(service.NewManager(tt.manager, "stash", runner, runlevelHost()), scriptID)

			require.NoError(t, step.Apply(runCtx()))
			testutil.AssertRan(t, runner, tt.cmd, tt.args...)
		})
	}
}

func TestEnableStep_Apply_Failure(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	runner.AddResult("update-rc.d", []string{"stash", "defaults"}, ports.CommandResult{ExitCode: 1, Stderr: "file does not exist"})
	step := service.NewEnableStep(service.NewManager(config.ServiceManagerSysV, "stash", runner, runlevelHost()), scriptID)

	err := step.Apply(runCtx())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enable stash")
	assert.Contains(t, err.Error(), "file does not exist")
}

func TestEnableStep_Handle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		manager string
		action  string
		cmd     string
		args    []string
	}{
		{name: "sysv restart", manager: config.ServiceManagerSysV, action: "restart", cmd: "/etc/init.d/stash", args: []string{"restart"}},
		{name: "sysv start", manager: config.ServiceManagerSysV, action: "start", cmd: "/etc/init.d/stash", args: []string{"start"}},
		{name: "systemd restart", manager: config.ServiceManagerSystemd, action: "restart", cmd: "systemctl", args: []string{"restart", "stash"}},
		{name: "systemd reload", manager: config.ServiceManagerSystemd, action: "reload", cmd: "systemctl", args: []string{"daemon-reload"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runner := mocks.NewCommandRunner()
			runner.AddHandler(tt.cmd, okHandler)
			step := service.NewEnableStep(service.NewManager(tt.manager, "stash", runner, runlevelHost()), scriptID)

			require.NoError(t, step.Handle(runCtx(), tt.action))
			testutil.AssertRan(t, runner, tt.cmd, tt.args...)
			assert.Len(t, runner.Calls(), 1)
		})
	}
}

func TestEnableStep_Handle_SysVReloadIsNoop(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	step := service.NewEnableStep(service.NewManager(config.ServiceManagerSysV, "stash", runner, runlevelHost()), scriptID)

	require.NoError(t, step.Handle(runCtx(), "reload"))
	assert.Empty(t, runner.Calls())
}

func TestEnableStep_Handle_Errors(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	runner.AddError("/etc/init.d/stash", []string{"restart"}, errors.New("connection lost"))
	step := service.NewEnableStep(service.NewManager(config.ServiceManagerSysV, "stash", runner, runlevelHost()), scriptID)

	require.ErrorContains(t, step.Handle(runCtx(), "restart"), "connection lost")
	require.ErrorContains(t, step.Handle(runCtx(), "bounce"), `unsupported service action "bounce"`)
}

func TestEnableStep_Describe(t *testing.T) {
	t.Parallel()

	step := service.NewEnableStep(service.NewManager(config.ServiceManagerSystemd, "stash", mocks.NewCommandRunner(), runlevelHost()), scriptID)

	assert.Equal(t, "service:stash", step.Resource())
	diff, err := step.Plan(runCtx())
	require.NoError(t, err)
	assert.Equal(t, compiler.DiffTypeModify, diff.Type())
	explanation := step.Explain(compiler.NewExplainContext())
	assert.Equal(t, "Enable service", explanation.Summary())
	assert.Contains(t, explanation.Detail(), "through systemd")
}
