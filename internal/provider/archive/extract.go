package archive

import (
	"fmt"
	"path"

	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
	"github.com/felixgeelhaar/stashprov/internal/ports"
	"github.com/felixgeelhaar/stashprov/internal/provider/commandutil"
	"github.com/felixgeelhaar/stashprov/internal/validation"
)

// Extraction unpacks Archive next to itself, hands Dir to Owner and moves
// it (or only Member inside it) to Destination.
type Extraction struct {
	Archive     string
	Dir         string
	Member      string
	Destination string
	// Creates is the file whose presence means the extraction already happened.
	Creates string
	Owner   string
}

// ExtractStep unpacks a downloaded tarball.
type ExtractStep struct {
	x      Extraction
	id     compiler.StepID
	deps   []compiler.StepID
	guard  compiler.Guard
	runner ports.CommandRunner
	fs     ports.FileSystem
}

// NewExtractStep creates a new ExtractStep.
func NewExtractStep(id compiler.StepID, x Extraction, runner ports.CommandRunner, fs ports.FileSystem, deps ...compiler.StepID) *ExtractStep {
	return &ExtractStep{
		x:      x,
		id:     id,
		deps:   deps,
		guard:  compiler.Always(),
		runner: runner,
		fs:     fs,
	}
}

// WithGuard returns the step restricted by guard.
func (s *ExtractStep) WithGuard(guard compiler.Guard) *ExtractStep {
	s.guard = guard
	return s
}

// ID returns the step identifier.
func (s *ExtractStep) ID() compiler.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *ExtractStep) DependsOn() []compiler.StepID {
	out := make([]compiler.StepID, len(s.deps))
	copy(out, s.deps)
	return out
}

// Guard returns the step's run condition.
func (s *ExtractStep) Guard() compiler.Guard {
	return s.guard
}

// Check is satisfied when the marker file exists.
func (s *ExtractStep) Check(_ compiler.RunContext) (compiler.StepStatus, error) {
	if s.fs.Exists(s.x.Creates) {
		return compiler.StatusSatisfied, nil
	}
	return compiler.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *ExtractStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeAdd, "directory", s.x.Destination, "", path.Base(s.x.Archive)), nil
}

// Apply runs tar, chown and mv.
func (s *ExtractStep) Apply(ctx compiler.RunContext) error {
	for _, p := range []string{s.x.Archive, s.x.Destination, s.x.Creates} {
		if err := validation.ValidatePath(p); err != nil {
			return err
		}
	}
	if err := validation.ValidateUsername(s.x.Owner); err != nil {
		return err
	}

	cache := path.Dir(s.x.Archive)
	unpacked := path.Join(cache, s.x.Dir)
	source := unpacked
	if s.x.Member != "" {
		source = path.Join(unpacked, s.x.Member)
	} else if s.fs.Exists(s.x.Destination) {
		// mv would nest the new tree inside the old one.
		return fmt.Errorf("%s exists but %s is missing; remove it to reinstall", s.x.Destination, s.x.Creates)
	}

	cmds := [][]string{
		{"tar", "-zxf", s.x.Archive, "-C", cache},
		{"chown", "-R", s.x.Owner, unpacked},
	}
	for _, c := range cmds {
		if _, err := commandutil.Run(ctx.Context(), s.runner, c[0], c[1:]...); err != nil {
			return fmt.Errorf("extract %s: %w", path.Base(s.x.Archive), err)
		}
	}

	parent := path.Dir(s.x.Destination)
	if s.x.Member != "" {
		parent = s.x.Destination
	}
	if err := s.fs.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", parent, err)
	}
	if _, err := commandutil.Run(ctx.Context(), s.runner, "mv", source, s.x.Destination); err != nil {
		return fmt.Errorf("install %s: %w", path.Base(source), err)
	}
	return nil
}

// Explain provides a human-readable explanation.
func (s *ExtractStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	what := s.x.Dir
	if s.x.Member != "" {
		what = s.x.Member
	}
	return compiler.NewExplanation(
		"Extract archive",
		fmt.Sprintf("Unpacks %s, gives it to %s and moves %s to %s.", path.Base(s.x.Archive), s.x.Owner, what, s.x.Destination),
		nil,
	).WithCondition(conditionWith(s.guard, s.x.Creates+" is absent"))
}

func conditionWith(g compiler.Guard, extra string) string {
	if g.Description() == "" {
		return extra
	}
	return g.Description() + " and " + extra
}
