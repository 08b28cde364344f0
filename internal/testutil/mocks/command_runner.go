// Package mocks provides test doubles for testing.
package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/felixgeelhaar/stashprov/internal/ports"
)

// CommandHandler simulates a command whose result depends on host state.
type CommandHandler func(args []string) (ports.CommandResult, error)

// CommandRunner is a thread-safe test double for ports.CommandRunner.
// Exact matches registered with AddResult or AddError win over handlers.
type CommandRunner struct {
	mu       sync.RWMutex
	results  map[string]ports.CommandResult
	errors   map[string]error
	handlers map[string]CommandHandler
	calls    []ports.CommandCall
}

// NewCommandRunner creates a new CommandRunner mock.
func NewCommandRunner() *CommandRunner {
	return &CommandRunner{
		results:  make(map[string]ports.CommandResult),
		errors:   make(map[string]error),
		handlers: make(map[string]CommandHandler),
		calls:    make([]ports.CommandCall, 0),
	}
}

// AddResult registers an expected command and its result.
func (m *CommandRunner) AddResult(command string, args []string, result ports.CommandResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[buildKey(command, args)] = result
}

// AddError registers an expected command that should return an error.
func (m *CommandRunner) AddError(command string, args []string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[buildKey(command, args)] = err
}

// AddHandler answers every invocation of command that has no exact match.
func (m *CommandRunner) AddHandler(command string, handler CommandHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[command] = handler
}

// Run executes a mock command.
func (m *CommandRunner) Run(_ context.Context, command string, args ...string) (ports.CommandResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, ports.CommandCall{
		Command: command,
		Args:    append([]string(nil), args...),
	})
	key := buildKey(command, args)
	err, hasErr := m.errors[key]
	result, hasResult := m.results[key]
	handler := m.handlers[command]
	m.mu.Unlock()

	switch {
	case hasErr:
		return ports.CommandResult{}, err
	case hasResult:
		return result, nil
	case handler != nil:
		// Called without the lock so handlers may register results.
		return handler(args)
	}

	return ports.CommandResult{}, fmt.Errorf("no mock result for command: %s %v", command, args)
}

// Calls returns all recorded command invocations.
func (m *CommandRunner) Calls() []ports.CommandCall {
	m.mu.RLock()
	defer m.mu.RUnlock()

	calls := make([]ports.CommandCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CallsTo returns the recorded invocations of command.
func (m *CommandRunner) CallsTo(command string) []ports.CommandCall {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var calls []ports.CommandCall
	for _, c := range m.calls {
		if c.Command == command {
			calls = append(calls, c)
		}
	}
	return calls
}

// Ran reports whether the exact command line was invoked.
func (m *CommandRunner) Ran(command string, args ...string) bool {
	want := ports.CommandCall{Command: command, Args: args}.String()
	for _, c := range m.Calls() {
		if c.String() == want {
			return true
		}
	}
	return false
}

// Reset clears all registered results, errors, handlers, and recorded calls.
func (m *CommandRunner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = make(map[string]ports.CommandResult)
	m.errors = make(map[string]error)
	m.handlers = make(map[string]CommandHandler)
	m.calls = make([]ports.CommandCall, 0)
}

// buildKey creates a unique key for a command and its arguments.
func buildKey(command string, args []string) string {
	return command + ":" + strings.Join(args, ":")
}

var _ ports.CommandRunner = (*CommandRunner)(nil)
