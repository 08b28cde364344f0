// Package commandutil holds command helpers shared by the providers.
package commandutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/felixgeelhaar/stashprov/internal/ports"
)

// IsCommandNotFound reports whether an error indicates a missing executable.
func IsCommandNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
		return true
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, os.ErrNotExist) {
		return true
	}
	return false
}

// Run executes a command and turns a non-zero exit into an error that
// carries the command's stderr.
func Run(ctx context.Context, runner ports.CommandRunner, command string, args ...string) (ports.CommandResult, error) {
	result, err := runner.Run(ctx, command, args...)
	if err != nil {
		return result, err
	}
	if !result.Success() {
		msg := strings.TrimSpace(result.Stderr)
		if msg == "" {
			msg = fmt.Sprintf("exit status %d", result.ExitCode)
		}
		return result, fmt.Errorf("%s failed: %s", command, msg)
	}
	return result, nil
}

// Chown gives path to owner, optionally recursing into directories.
func Chown(ctx context.Context, runner ports.CommandRunner, owner, path string, recursive bool) error {
	args := []string{owner, path}
	if recursive {
		args = append([]string{"-R"}, args...)
	}
	_, err := Run(ctx, runner, "chown", args...)
	return err
}
