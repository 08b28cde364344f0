package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
	"github.com/felixgeelhaar/stashprov/internal/ports"
	"github.com/felixgeelhaar/stashprov/internal/validation"
)

// ErrChecksumMismatch is returned when a downloaded artifact does not match
// its configured SHA-256 checksum.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// Artifact is a file fetched from Source into Path.
type Artifact struct {
	Source string
	// Checksum is the expected SHA-256 in hex. Empty skips verification.
	Checksum string
	Path     string
}

// DownloadStep fetches an artifact if it is not already cached.
// The file only appears at Path once its checksum has been verified.
type DownloadStep struct {
	artifact Artifact
	id       compiler.StepID
	guard    compiler.Guard
	fs       ports.FileSystem
	fetcher  ports.Fetcher
}

// NewDownloadStep creates a new DownloadStep.
func NewDownloadStep(id compiler.StepID, artifact Artifact, fs ports.FileSystem, fetcher ports.Fetcher) *DownloadStep {
	return &DownloadStep{
		artifact: artifact,
		id:       id,
		guard:    compiler.Always(),
		fs:       fs,
		fetcher:  fetcher,
	}
}

// WithGuard returns the step restricted by guard.
func (s *DownloadStep) WithGuard(guard compiler.Guard) *DownloadStep {
	s.guard = guard
	return s
}

// ID returns the step identifier.
func (s *DownloadStep) ID() compiler.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *DownloadStep) DependsOn() []compiler.StepID {
	return nil
}

// Guard returns the step's run condition.
func (s *DownloadStep) Guard() compiler.Guard {
	return s.guard
}

// Check is satisfied when the artifact is already in the cache.
func (s *DownloadStep) Check(_ compiler.RunContext) (compiler.StepStatus, error) {
	if s.fs.Exists(s.artifact.Path) {
		return compiler.StatusSatisfied, nil
	}
	return compiler.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *DownloadStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeAdd, "file", s.artifact.Path, "", s.artifact.Source), nil
}

// Apply downloads to a .part file, verifies it and renames it into place.
// A mismatching download is removed.
func (s *DownloadStep) Apply(ctx compiler.RunContext) error {
	if err := validation.ValidatePath(s.artifact.Path); err != nil {
		return err
	}
	if err := s.fs.MkdirAll(path.Dir(s.artifact.Path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	part := s.artifact.Path + ".part"
	sum, n, err := s.fetch(ctx, part)
	if err != nil {
		_ = s.fs.Remove(part)
		return err
	}

	if want := strings.TrimSpace(s.artifact.Checksum); want != "" && !strings.EqualFold(want, sum) {
		_ = s.fs.Remove(part)
		return fmt.Errorf("%w for %s: expected %s, got %s", ErrChecksumMismatch, s.artifact.Source, strings.ToLower(want), sum)
	}
	if s.artifact.Checksum == "" {
		if log := ports.LoggerFromContext(ctx.Context()); log != nil {
			log.Warn(ctx.Context(), "no checksum configured, download not verified",
				ports.F("source", s.artifact.Source), ports.F("sha256", sum))
		}
	}

	if err := s.fs.Rename(part, s.artifact.Path); err != nil {
		return fmt.Errorf("move %s into place: %w", part, err)
	}
	if log := ports.LoggerFromContext(ctx.Context()); log != nil {
		log.Info(ctx.Context(), "artifact downloaded",
			ports.F("path", s.artifact.Path), ports.F("bytes", n))
	}
	return nil
}

func (s *DownloadStep) fetch(ctx compiler.RunContext, part string) (string, int64, error) {
	f, err := s.fs.Create(part, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("create %s: %w", part, err)
	}

	hash := sha256.New()
	n, err := s.fetcher.Fetch(ctx.Context(), s.artifact.Source, io.MultiWriter(f, hash))
	if cerr := f.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return "", n, fmt.Errorf("download %s: %w", s.artifact.Source, err)
	}
	return hex.EncodeToString(hash.Sum(nil)), n, nil
}

// Explain provides a human-readable explanation.
func (s *DownloadStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	detail := fmt.Sprintf("Downloads %s to %s if it is not cached yet.", s.artifact.Source, s.artifact.Path)
	if s.artifact.Checksum != "" {
		detail += " The SHA-256 checksum is verified before the file is kept."
	}
	return compiler.NewExplanation("Download artifact", detail, nil).
		WithCondition(s.guard.Description())
}
