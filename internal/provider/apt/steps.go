package apt

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
	"github.com/felixgeelhaar/stashprov/internal/ports"
	"github.com/felixgeelhaar/stashprov/internal/provider/commandutil"
	"github.com/felixgeelhaar/stashprov/internal/validation"
)

// PackageStep installs a database server package with apt-get.
type PackageStep struct {
	name   string
	id     compiler.StepID
	runner ports.CommandRunner
}

// NewPackageStep creates a new PackageStep.
func NewPackageStep(name string, runner ports.CommandRunner) *PackageStep {
	return &PackageStep{
		name:   name,
		id:     PackageStepID(name),
		runner: runner,
	}
}

// PackageStepID is the ID of the step installing name.
func PackageStepID(name string) compiler.StepID {
	return compiler.MustNewStepID("apt:package:" + name)
}

// ID returns the step identifier.
func (s *PackageStep) ID() compiler.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *PackageStep) DependsOn() []compiler.StepID {
	return nil
}

// Guard limits the step to a local database server.
func (s *PackageStep) Guard() compiler.Guard {
	return compiler.GuardDatabaseLocal
}

// Check determines if the package is already installed.
func (s *PackageStep) Check(ctx compiler.RunContext) (compiler.StepStatus, error) {
	result, err := s.runner.Run(ctx.Context(), "dpkg-query", "-W", "-f=${db:Status-Status}", s.name)
	if err != nil {
		return compiler.StatusUnknown, err
	}

	// dpkg-query exits 1 for packages it has never heard of.
	if !result.Success() {
		return compiler.StatusNeedsApply, nil
	}
	if strings.TrimSpace(result.Stdout) == "installed" {
		return compiler.StatusSatisfied, nil
	}
	return compiler.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *PackageStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeAdd, "package", s.name, "", "latest"), nil
}

// Apply installs the package non-interactively.
func (s *PackageStep) Apply(ctx compiler.RunContext) error {
	if err := validation.ValidatePackageName(s.name); err != nil {
		return fmt.Errorf("invalid package name: %w", err)
	}

	_, err := commandutil.Run(ctx.Context(), s.runner,
		"env", "DEBIAN_FRONTEND=noninteractive", "apt-get", "install", "-y", "-q", s.name)
	if err != nil {
		return fmt.Errorf("apt-get install %s: %w", s.name, err)
	}
	return nil
}

// Explain provides a human-readable explanation.
func (s *PackageStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	return compiler.NewExplanation(
		"Install database server",
		fmt.Sprintf("Installs the %s package via apt so the application database can be hosted locally.", s.name),
		nil,
	).WithCondition(compiler.GuardDatabaseLocal.Description())
}

var _ compiler.GuardedStep = (*PackageStep)(nil)
