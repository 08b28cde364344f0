package testutil

import (
	"os"
	"strings"
	"testing"

	"github.com/felixgeelhaar/stashprov/internal/ports"
	"github.com/felixgeelhaar/stashprov/internal/testutil/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertFileExists asserts that a regular file exists at the given path.
func AssertFileExists(t testing.TB, path string) {
	t.Helper()

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		assert.Fail(t, "file does not exist", "expected file to exist: %s", path)
		return
	}
	require.NoError(t, err)
	assert.False(t, info.IsDir(), "expected file but got directory: %s", path)
}

// AssertFileContains asserts that a file contains the expected substring.
func AssertFileContains(t testing.TB, path, expected string) {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read file: %s", path)
	assert.Contains(t, string(content), expected)
}

// AssertRan asserts that the runner saw exactly this command line.
func AssertRan(t testing.TB, runner *mocks.CommandRunner, command string, args ...string) {
	t.Helper()

	if runner.Ran(command, args...) {
		return
	}
	calls := make([]string, 0)
	for _, c := range runner.Calls() {
		calls = append(calls, c.String())
	}
	assert.Fail(t, "command not run",
		"expected %q\ncalls:\n  %s", ports.CommandCall{Command: command, Args: args}.String(), strings.Join(calls, "\n  "))
}

// AssertNotRan asserts that command was never invoked.
func AssertNotRan(t testing.TB, runner *mocks.CommandRunner, command string) {
	t.Helper()

	assert.Empty(t, runner.CallsTo(command), "expected %s not to run", command)
}

// AssertMockFile asserts content and mode of a file written to the mock filesystem.
func AssertMockFile(t testing.TB, fs *mocks.FileSystem, path string, mode os.FileMode, contains ...string) {
	t.Helper()

	content, err := fs.ReadFile(path)
	require.NoError(t, err, "expected %s to be written", path)
	assert.Equal(t, mode, fs.Mode(path), "mode of %s", path)
	for _, want := range contains {
		assert.Contains(t, string(content), want, "content of %s", path)
	}
}
