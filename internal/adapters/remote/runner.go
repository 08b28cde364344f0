package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"

	shellquote "github.com/kballard/go-shellquote"
	"golang.org/x/crypto/ssh"

	"github.com/felixgeelhaar/stashprov/internal/ports"
)

// sessionOpener is the part of *ssh.Client the runner needs.
type sessionOpener interface {
	NewSession() (*ssh.Session, error)
}

// Runner executes commands in SSH sessions.
type Runner struct {
	sessions sessionOpener
	host     string
}

// CommandLine quotes a command and its arguments for the remote shell.
func CommandLine(command string, args ...string) string {
	return shellquote.Join(append([]string{command}, args...)...)
}

// Run executes a command on the remote host. A non-zero exit is reported in
// the result, not as an error.
func (r *Runner) Run(ctx context.Context, command string, args ...string) (ports.CommandResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.CommandResult{}, err
	}

	session, err := r.sessions.NewSession()
	if err != nil {
		return ports.CommandResult{}, fmt.Errorf("open ssh session on %s: %w", r.host, err)
	}
	defer func() { _ = session.Close() }()

	var stdout, stderr strings.Builder
	session.Stdout = &stdout
	session.Stderr = &stderr
	// sshd may reject the variable; the command still runs.
	_ = session.Setenv("LC_ALL", "C")

	done := make(chan error, 1)
	go func() { done <- session.Run(CommandLine(command, args...)) }()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		return ports.CommandResult{}, ctx.Err()
	case err = <-done:
	}

	result := ports.CommandResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitStatus()
			return result, nil
		}
		return result, fmt.Errorf("run %s on %s: %w", command, r.host, err)
	}
	return result, nil
}

var _ ports.CommandRunner = (*Runner)(nil)
