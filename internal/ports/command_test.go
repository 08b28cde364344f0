package ports

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandResult_Success(t *testing.T) {
	t.Parallel()

	assert.True(t, CommandResult{ExitCode: 0}.Success())
	assert.False(t, CommandResult{ExitCode: 1, Stderr: "error"}.Success())
}

func TestCommandResult_Output(t *testing.T) {
	t.Parallel()

	result := CommandResult{Stdout: "  enabled\n"}
	assert.Equal(t, "enabled", result.Output())
}

func TestCommandCall_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		call CommandCall
		want string
	}{
		{"no args", CommandCall{Command: "id"}, "id"},
		{"with args", CommandCall{Command: "getent", Args: []string{"passwd", "stash"}}, "getent passwd stash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.call.String())
		})
	}
}
