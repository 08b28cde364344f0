package user

import (
	"fmt"
	"path"
	"strings"

	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
	"github.com/felixgeelhaar/stashprov/internal/ports"
	"github.com/felixgeelhaar/stashprov/internal/provider/commandutil"
	"github.com/felixgeelhaar/stashprov/internal/validation"
)

// Account is a system account with a managed home directory.
type Account struct {
	Name    string
	Home    string
	Shell   string
	Comment string
}

// AccountStep creates a system account with useradd.
type AccountStep struct {
	account Account
	id      compiler.StepID
	runner  ports.CommandRunner
	fs      ports.FileSystem
}

// NewAccountStep creates a new AccountStep.
func NewAccountStep(account Account, runner ports.CommandRunner, fs ports.FileSystem) *AccountStep {
	return &AccountStep{
		account: account,
		id:      AccountStepID(account.Name),
		runner:  runner,
		fs:      fs,
	}
}

// AccountStepID is the ID of the step creating the named account.
func AccountStepID(name string) compiler.StepID {
	return compiler.MustNewStepID("user:create:" + name)
}

// ID returns the step identifier.
func (s *AccountStep) ID() compiler.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *AccountStep) DependsOn() []compiler.StepID {
	return nil
}

// Check looks the account up in the passwd database.
func (s *AccountStep) Check(ctx compiler.RunContext) (compiler.StepStatus, error) {
	result, err := s.runner.Run(ctx.Context(), "getent", "passwd", s.account.Name)
	if err != nil {
		return compiler.StatusUnknown, err
	}
	switch result.ExitCode {
	case 0:
		return compiler.StatusSatisfied, nil
	case 2:
		// getent: key not found
		return compiler.StatusNeedsApply, nil
	default:
		return compiler.StatusUnknown, fmt.Errorf("getent passwd %s: exit %d: %s",
			s.account.Name, result.ExitCode, strings.TrimSpace(result.Stderr))
	}
}

// Plan returns the diff for this step.
func (s *AccountStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeAdd, "user", s.account.Name, "", s.account.Home), nil
}

// Apply creates the account and its home directory.
func (s *AccountStep) Apply(ctx compiler.RunContext) error {
	if err := validation.ValidateUsername(s.account.Name); err != nil {
		return err
	}
	if err := validation.ValidatePath(s.account.Home); err != nil {
		return fmt.Errorf("invalid home directory: %w", err)
	}

	// useradd only creates the last path element of the home directory.
	if err := s.fs.MkdirAll(path.Dir(s.account.Home), 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w", s.account.Home, err)
	}

	_, err := commandutil.Run(ctx.Context(), s.runner, "useradd",
		"--system",
		"--comment", s.account.Comment,
		"--home-dir", s.account.Home,
		"--create-home",
		"--shell", s.account.Shell,
		s.account.Name,
	)
	return err
}

// Explain provides a human-readable explanation.
func (s *AccountStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	return compiler.NewExplanation(
		"Create service account",
		fmt.Sprintf("Creates the %s system account with home %s and login shell %s. Stash runs as this user.",
			s.account.Name, s.account.Home, s.account.Shell),
		nil,
	)
}
