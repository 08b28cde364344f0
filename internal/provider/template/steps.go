package template

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
	"github.com/felixgeelhaar/stashprov/internal/ports"
	"github.com/felixgeelhaar/stashprov/internal/provider/commandutil"
	"github.com/felixgeelhaar/stashprov/internal/validation"
)

// ManagedFile is a file whose full content, mode and owner are declared.
type ManagedFile struct {
	Path    string
	Content []byte
	Mode    os.FileMode
	// Owner is left unchanged when empty.
	Owner string
}

// FileStep writes a managed file when its content, mode or owner drift.
type FileStep struct {
	file     ManagedFile
	id       compiler.StepID
	deps     []compiler.StepID
	notifies []compiler.Notification
	fs       ports.FileSystem
	runner   ports.CommandRunner
}

// NewFileStep creates a new FileStep.
func NewFileStep(id compiler.StepID, file ManagedFile, fs ports.FileSystem, runner ports.CommandRunner, deps ...compiler.StepID) *FileStep {
	return &FileStep{
		file:   file,
		id:     id,
		deps:   deps,
		fs:     fs,
		runner: runner,
	}
}

// Notify adds notifications sent whenever the file changes.
func (s *FileStep) Notify(n ...compiler.Notification) *FileStep {
	s.notifies = append(s.notifies, n...)
	return s
}

// ID returns the step identifier.
func (s *FileStep) ID() compiler.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *FileStep) DependsOn() []compiler.StepID {
	out := make([]compiler.StepID, len(s.deps))
	copy(out, s.deps)
	return out
}

// Notifies returns the notifications raised when the file is written.
func (s *FileStep) Notifies() []compiler.Notification {
	return s.notifies
}

// Check compares content, permission bits and owner with the declaration.
func (s *FileStep) Check(ctx compiler.RunContext) (compiler.StepStatus, error) {
	drift, err := s.drift(ctx)
	if err != nil {
		return compiler.StatusUnknown, err
	}
	if len(drift) == 0 {
		return compiler.StatusSatisfied, nil
	}
	return compiler.StatusNeedsApply, nil
}

// drift lists what differs on the host; a missing file is reported as "missing".
func (s *FileStep) drift(ctx compiler.RunContext) ([]string, error) {
	if !s.fs.Exists(s.file.Path) {
		return []string{"missing"}, nil
	}

	var drift []string
	existing, err := s.fs.ReadFile(s.file.Path)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(existing, s.file.Content) {
		drift = append(drift, "content")
	}

	info, err := s.fs.GetFileInfo(s.file.Path)
	if err != nil {
		return nil, err
	}
	if info.Mode.Perm() != s.file.Mode.Perm() {
		drift = append(drift, fmt.Sprintf("mode %04o", info.Mode.Perm()))
	}

	if s.file.Owner != "" {
		result, err := s.runner.Run(ctx.Context(), "stat", "-c", "%U", s.file.Path)
		if err != nil {
			return nil, err
		}
		if !result.Success() {
			return nil, fmt.Errorf("stat %s: %s", s.file.Path, strings.TrimSpace(result.Stderr))
		}
		if owner := result.Output(); owner != s.file.Owner {
			drift = append(drift, "owner "+owner)
		}
	}
	return drift, nil
}

// Plan returns the diff for this step.
func (s *FileStep) Plan(ctx compiler.RunContext) (compiler.Diff, error) {
	want := fmt.Sprintf("%04o", s.file.Mode.Perm())
	if s.file.Owner != "" {
		want += " " + s.file.Owner
	}
	drift, err := s.drift(ctx)
	if err != nil {
		return compiler.Diff{}, err
	}
	if len(drift) == 1 && drift[0] == "missing" {
		return compiler.NewDiff(compiler.DiffTypeAdd, "file", s.file.Path, "", want), nil
	}
	return compiler.NewDiff(compiler.DiffTypeModify, "file", s.file.Path, strings.Join(drift, ", "), want), nil
}

// Apply writes the file, then sets its owner.
func (s *FileStep) Apply(ctx compiler.RunContext) error {
	if err := validation.ValidatePath(s.file.Path); err != nil {
		return fmt.Errorf("invalid destination path: %w", err)
	}
	if s.file.Owner != "" {
		if err := validation.ValidateUsername(s.file.Owner); err != nil {
			return err
		}
	}

	if err := s.fs.MkdirAll(path.Dir(s.file.Path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := s.fs.WriteFile(s.file.Path, s.file.Content, s.file.Mode); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.file.Path, err)
	}
	if s.file.Owner == "" {
		return nil
	}
	return commandutil.Chown(ctx.Context(), s.runner, s.file.Owner, s.file.Path, false)
}

// Explain provides a human-readable explanation.
func (s *FileStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	detail := fmt.Sprintf("Renders %s with mode %04o.", s.file.Path, s.file.Mode.Perm())
	if s.file.Owner != "" {
		detail = fmt.Sprintf("Renders %s with mode %04o, owned by %s.", s.file.Path, s.file.Mode.Perm(), s.file.Owner)
	}
	for _, n := range s.notifies {
		detail += " On change: " + n.String() + "."
	}
	return compiler.NewExplanation("Render file", detail, nil)
}

var _ compiler.NotifyingStep = (*FileStep)(nil)

func fileMode(perm uint32) os.FileMode {
	return os.FileMode(perm).Perm()
}
