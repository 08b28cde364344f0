// Package command runs host tools on the local machine.
package command

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/felixgeelhaar/stashprov/internal/ports"
)

// RealRunner executes commands with os/exec.
type RealRunner struct {
	env []string
}

// NewRealRunner creates a RealRunner. Commands run with LC_ALL=C so tool
// output parsed by the providers is not localized.
func NewRealRunner() *RealRunner {
	return &RealRunner{env: []string{"LC_ALL=C"}}
}

// WithEnv returns a runner that adds extra KEY=VALUE pairs to the environment.
func (r *RealRunner) WithEnv(kv ...string) *RealRunner {
	env := make([]string, 0, len(r.env)+len(kv))
	env = append(env, r.env...)
	env = append(env, kv...)
	return &RealRunner{env: env}
}

// Run executes a command. A non-zero exit is reported in the result, not as an error.
func (r *RealRunner) Run(ctx context.Context, command string, args ...string) (ports.CommandResult, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Env = append(os.Environ(), r.env...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()

	result := ports.CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || ctx.Err() != nil {
			return result, err
		}
		result.ExitCode = exitErr.ExitCode()
	}

	if log := ports.LoggerFromContext(ctx); log != nil {
		log.Debug(ctx, "command finished",
			ports.F("command", ports.CommandCall{Command: command, Args: args}.String()),
			ports.F("exit_code", result.ExitCode),
			ports.F("duration", time.Since(start).String()))
	}

	return result, nil
}

var _ ports.CommandRunner = (*RealRunner)(nil)
