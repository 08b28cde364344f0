package keystore

import (
	"fmt"

	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
	"github.com/felixgeelhaar/stashprov/internal/ports"
	"github.com/felixgeelhaar/stashprov/internal/provider/commandutil"
	"github.com/felixgeelhaar/stashprov/internal/validation"
)

// Keystore describes a keystore holding one self-signed RSA key pair.
type Keystore struct {
	Path     string
	Keytool  string
	Alias    string
	DName    string
	Password string
	Owner    string
}

// GenerateStep runs keytool once; an existing keystore is never replaced.
type GenerateStep struct {
	ks     Keystore
	id     compiler.StepID
	after  compiler.StepID
	runner ports.CommandRunner
	fs     ports.FileSystem
}

// NewGenerateStep creates a new GenerateStep.
func NewGenerateStep(ks Keystore, runner ports.CommandRunner, fs ports.FileSystem, after compiler.StepID) *GenerateStep {
	return &GenerateStep{
		ks:     ks,
		id:     compiler.MustNewStepID("keystore:generate:" + ks.Alias),
		after:  after,
		runner: runner,
		fs:     fs,
	}
}

// ID returns the step identifier.
func (s *GenerateStep) ID() compiler.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *GenerateStep) DependsOn() []compiler.StepID {
	return []compiler.StepID{s.after}
}

// Check is satisfied when the keystore file exists.
func (s *GenerateStep) Check(_ compiler.RunContext) (compiler.StepStatus, error) {
	if s.fs.Exists(s.ks.Path) {
		return compiler.StatusSatisfied, nil
	}
	return compiler.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *GenerateStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeAdd, "keystore", s.ks.Path, "", s.ks.DName), nil
}

// Apply generates the key pair and hands the file to the owner.
func (s *GenerateStep) Apply(ctx compiler.RunContext) error {
	for _, p := range []string{s.ks.Path, s.ks.Keytool} {
		if err := validation.ValidatePath(p); err != nil {
			return err
		}
	}
	if err := validation.ValidateUsername(s.ks.Owner); err != nil {
		return err
	}
	if len(s.ks.Password) < 6 {
		return fmt.Errorf("keystore password must be at least 6 characters")
	}

	_, err := commandutil.Run(ctx.Context(), s.runner, s.ks.Keytool,
		"-genkey",
		"-noprompt",
		"-alias", s.ks.Alias,
		"-keyalg", "RSA",
		"-dname", s.ks.DName,
		"-keypass", s.ks.Password,
		"-storepass", s.ks.Password,
		"-keystore", s.ks.Path,
	)
	if err != nil {
		return fmt.Errorf("generate keystore: %w", err)
	}
	return commandutil.Chown(ctx.Context(), s.runner, s.ks.Owner+":"+s.ks.Owner, s.ks.Path, false)
}

// Explain provides a human-readable explanation.
func (s *GenerateStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	return compiler.NewExplanation(
		"Generate self-signed keystore",
		fmt.Sprintf("Creates %s with a self-signed RSA key for %q, owned by %s. Used by the HTTPS connector.",
			s.ks.Path, s.ks.DName, s.ks.Owner),
		nil,
	).WithCondition("keystore file is absent")
}
