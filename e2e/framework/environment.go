//go:build e2e

// Package framework runs the stashprov binary against throwaway bundles.
package framework

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
)

// Environment is an isolated directory holding bundles, secrets and attributes.
type Environment struct {
	t          *testing.T
	rootDir    string
	binaryPath string
}

var (
	buildOnce  sync.Once
	binaryPath string
	buildErr   error
)

func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// buildBinary builds stashprov once per test run.
func buildBinary(t *testing.T) (string, error) {
	buildOnce.Do(func() {
		root, err := findProjectRoot()
		if err != nil {
			buildErr = err
			return
		}

		binaryPath = filepath.Join(os.TempDir(), "stashprov-e2e-test")
		cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/stashprov")
		cmd.Dir = root

		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			buildErr = err
			t.Logf("Build stderr: %s", stderr.String())
		}
	})
	return binaryPath, buildErr
}

// NewEnvironment creates a new isolated test environment.
func NewEnvironment(t *testing.T) *Environment {
	t.Helper()

	binary, err := buildBinary(t)
	if err != nil {
		t.Fatalf("Failed to build binary: %v", err)
	}
	return &Environment{t: t, rootDir: t.TempDir(), binaryPath: binary}
}

// RootDir returns the path to the test root directory.
func (e *Environment) RootDir() string {
	return e.rootDir
}

// BinaryPath returns the path to the built binary.
func (e *Environment) BinaryPath() string {
	return e.binaryPath
}

// Path resolves name inside the environment.
func (e *Environment) Path(name string) string {
	return filepath.Join(e.rootDir, name)
}

// WriteFile writes content below the root directory and returns its path.
func (e *Environment) WriteFile(name, content string) string {
	e.t.Helper()

	full := e.Path(name)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		e.t.Fatalf("Failed to create directory for %s: %v", name, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o600); err != nil {
		e.t.Fatalf("Failed to write file %s: %v", full, err)
	}
	return full
}

// WriteBundle writes a plain YAML bundle.
func (e *Environment) WriteBundle(content string) string {
	return e.WriteFile("stash.yaml", content)
}

// WriteAttributes writes node attributes.
func (e *Environment) WriteAttributes(content string) string {
	return e.WriteFile("attributes.yaml", content)
}
