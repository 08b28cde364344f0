package mocks

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/felixgeelhaar/stashprov/internal/ports"
)

func TestCommandRunner_AddResult(t *testing.T) {
	runner := NewCommandRunner()
	runner.AddResult("getent", []string{"passwd", "stash"}, ports.CommandResult{
		Stdout: "stash:x:998:998::/var/atlassian/application-data/stash:/bin/bash\n",
	})

	result, err := runner.Run(context.Background(), "getent", "passwd", "stash")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !result.Success() {
		t.Errorf("ExitCode = %d, want 0", result.ExitCode)
	}
}

func TestCommandRunner_NotFound(t *testing.T) {
	runner := NewCommandRunner()

	if _, err := runner.Run(context.Background(), "unknown", "command"); err == nil {
		t.Error("Run() should return error for unregistered command")
	}
}

func TestCommandRunner_AddError(t *testing.T) {
	runner := NewCommandRunner()
	boom := errors.New("exec: keytool: not found")
	runner.AddError("keytool", []string{"-list"}, boom)

	if _, err := runner.Run(context.Background(), "keytool", "-list"); !errors.Is(err, boom) {
		t.Errorf("Run() error = %v, want %v", err, boom)
	}
}

func TestCommandRunner_HandlerSimulatesState(t *testing.T) {
	runner := NewCommandRunner()
	created := false
	runner.AddHandler("useradd", func([]string) (ports.CommandResult, error) {
		created = true
		return ports.CommandResult{}, nil
	})
	runner.AddHandler("getent", func([]string) (ports.CommandResult, error) {
		if created {
			return ports.CommandResult{Stdout: "stash:x:998:998::/home/stash:/bin/bash"}, nil
		}
		return ports.CommandResult{ExitCode: 2}, nil
	})

	before, _ := runner.Run(context.Background(), "getent", "passwd", "stash")
	_, _ = runner.Run(context.Background(), "useradd", "stash")
	after, _ := runner.Run(context.Background(), "getent", "passwd", "stash")

	if before.Success() || !after.Success() {
		t.Errorf("before = %d, after = %d", before.ExitCode, after.ExitCode)
	}
}

func TestCommandRunner_ExactMatchWinsOverHandler(t *testing.T) {
	runner := NewCommandRunner()
	runner.AddHandler("apt-get", func([]string) (ports.CommandResult, error) {
		return ports.CommandResult{ExitCode: 100}, nil
	})
	runner.AddResult("apt-get", []string{"install", "-y", "postgresql"}, ports.CommandResult{})

	result, _ := runner.Run(context.Background(), "apt-get", "install", "-y", "postgresql")
	if !result.Success() {
		t.Error("exact match should take precedence")
	}
}

func TestCommandRunner_RecordsCalls(t *testing.T) {
	runner := NewCommandRunner()
	runner.AddResult("chown", []string{"-R", "stash:stash", "/opt/atlassian/stash"}, ports.CommandResult{})
	runner.AddResult("update-rc.d", []string{"stash", "defaults"}, ports.CommandResult{})

	_, _ = runner.Run(context.Background(), "chown", "-R", "stash:stash", "/opt/atlassian/stash")
	_, _ = runner.Run(context.Background(), "update-rc.d", "stash", "defaults")

	calls := runner.Calls()
	if len(calls) != 2 {
		t.Fatalf("Calls() len = %d, want 2", len(calls))
	}
	if len(runner.CallsTo("chown")) != 1 {
		t.Error("CallsTo(chown) should find one call")
	}
	if !runner.Ran("update-rc.d", "stash", "defaults") {
		t.Error("Ran() should match the exact command line")
	}
	if runner.Ran("update-rc.d", "stash") {
		t.Error("Ran() should not match a prefix")
	}
}

func TestCommandRunner_Reset(t *testing.T) {
	runner := NewCommandRunner()
	runner.AddResult("id", []string{"stash"}, ports.CommandResult{})
	_, _ = runner.Run(context.Background(), "id", "stash")

	runner.Reset()

	if len(runner.Calls()) != 0 {
		t.Error("Reset() should clear all calls")
	}
	if _, err := runner.Run(context.Background(), "id", "stash"); err == nil {
		t.Error("Reset() should clear all results")
	}
}

func TestCommandRunner_ThreadSafety(t *testing.T) {
	runner := NewCommandRunner()
	for i := 0; i < 26; i++ {
		runner.AddResult("cmd", []string{string(rune('a' + i))}, ports.CommandResult{})
	}

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, _ = runner.Run(context.Background(), "cmd", string(rune('a'+idx%26)))
			_ = runner.Calls()
		}(i)
	}
	wg.Wait()

	if len(runner.Calls()) != 100 {
		t.Errorf("Expected 100 calls, got %d", len(runner.Calls()))
	}
}
