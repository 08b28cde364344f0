package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/stashprov/internal/domain/config"
	"github.com/felixgeelhaar/stashprov/internal/ports"
	"github.com/felixgeelhaar/stashprov/internal/provider/commandutil"
	"github.com/felixgeelhaar/stashprov/internal/validation"
)

// Manager drives a service through the host's init system.
type Manager interface {
	Name() string
	Kind() string
	Enabled(ctx context.Context) (bool, error)
	Enable(ctx context.Context) error
	Do(ctx context.Context, action string) error
}

// NewManager returns the manager for kind; anything but systemd is SysV.
func NewManager(kind, name string, runner ports.CommandRunner, fs ports.FileSystem) Manager {
	if kind == config.ServiceManagerSystemd {
		return &systemd{name: name, runner: runner}
	}
	return &sysv{name: name, runner: runner, fs: fs}
}

const runlevelDir = "/etc/rc2.d"

type sysv struct {
	name   string
	runner ports.CommandRunner
	fs     ports.FileSystem
}

func (m *sysv) Name() string { return m.name }
func (m *sysv) Kind() string { return config.ServiceManagerSysV }

// Enabled looks for a start link in the default multi-user runlevel. A host
// without the runlevel directory has no links yet.
func (m *sysv) Enabled(ctx context.Context) (bool, error) {
	if !m.fs.IsDir(runlevelDir) {
		return false, nil
	}
	result, err := commandutil.Run(ctx, m.runner, "find", runlevelDir, "-name", "S[0-9][0-9]"+m.name)
	if err != nil {
		return false, err
	}
	return result.Output() != "", nil
}

func (m *sysv) Enable(ctx context.Context) error {
	if err := validation.ValidatePackageName(m.name); err != nil {
		return fmt.Errorf("invalid service name: %w", err)
	}
	_, err := commandutil.Run(ctx, m.runner, "update-rc.d", m.name, "defaults")
	return err
}

func (m *sysv) Do(ctx context.Context, action string) error {
	switch action {
	case "start", "stop", "restart":
		_, err := commandutil.Run(ctx, m.runner, "/etc/init.d/"+m.name, action)
		return err
	case "reload":
		// init scripts are read on every invocation.
		return nil
	default:
		return fmt.Errorf("unsupported service action %q", action)
	}
}

type systemd struct {
	name   string
	runner ports.CommandRunner
}

func (m *systemd) Name() string { return m.name }
func (m *systemd) Kind() string { return config.ServiceManagerSystemd }

func (m *systemd) Enabled(ctx context.Context) (bool, error) {
	result, err := m.runner.Run(ctx, "systemctl", "is-enabled", m.name)
	if err != nil {
		return false, err
	}
	// is-enabled exits non-zero for disabled and unknown units.
	return result.Success() && strings.TrimSpace(result.Stdout) == "enabled", nil
}

func (m *systemd) Enable(ctx context.Context) error {
	if err := validation.ValidatePackageName(m.name); err != nil {
		return fmt.Errorf("invalid service name: %w", err)
	}
	_, err := commandutil.Run(ctx, m.runner, "systemctl", "enable", m.name)
	return err
}

func (m *systemd) Do(ctx context.Context, action string) error {
	var err error
	switch action {
	case "start", "stop", "restart":
		_, err = commandutil.Run(ctx, m.runner, "systemctl", action, m.name)
	case "reload":
		_, err = commandutil.Run(ctx, m.runner, "systemctl", "daemon-reload")
	default:
		err = fmt.Errorf("unsupported service action %q", action)
	}
	return err
}
