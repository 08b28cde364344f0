package main

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/stashprov/internal/app"
	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
	"github.com/felixgeelhaar/stashprov/internal/domain/execution"
	"github.com/felixgeelhaar/stashprov/internal/ports"
	"github.com/felixgeelhaar/stashprov/internal/testutil"
)

// fakeClient records what the commands asked for.
type fakeClient struct {
	opts       app.Options
	dryRun     bool
	planErr    error
	applyErr   error
	validation *app.ValidationResult
	decrypted  []string
	printed    []string
	explained  bool
}

func (f *fakeClient) Plan(_ context.Context, opts app.Options) (*execution.Plan, error) {
	f.opts = opts
	if f.planErr != nil {
		return nil, f.planErr
	}
	return execution.NewExecutionPlan(), nil
}

func (f *fakeClient) PrintPlan(_ *execution.Plan, explain bool) {
	f.printed = append(f.printed, "plan")
	f.explained = explain
}

func (f *fakeClient) Apply(ctx context.Context, opts app.Options, dryRun bool) (*execution.RunResult, error) {
	f.opts = opts
	f.dryRun = dryRun
	if f.applyErr != nil {
		return nil, f.applyErr
	}
	return execution.NewExecutor().WithDryRun(dryRun).Run(ctx, compiler.NewStepGraph(), testutil.NewSettingsBuilder().Build())
}

func (f *fakeClient) PrintResult(*execution.RunResult) { f.printed = append(f.printed, "result") }

func (f *fakeClient) Validate(_ context.Context, opts app.Options) (*app.ValidationResult, error) {
	f.opts = opts
	if f.validation == nil {
		return &app.ValidationResult{}, nil
	}
	return f.validation, nil
}

func (f *fakeClient) PrintValidation(*app.ValidationResult) {
	f.printed = append(f.printed, "validation")
}

func (f *fakeClient) Decrypt(item, secret string) error {
	f.decrypted = append(f.decrypted, item, secret)
	return nil
}

// runCLI executes the root command with args against fake.
func runCLI(t *testing.T, fake *fakeClient, args ...string) (string, error) {
	t.Helper()

	orig := newStashprov
	newStashprov = func(io.Writer, ports.Logger) stashprovClient { return fake }
	t.Cleanup(func() { newStashprov = orig })

	// Flag variables are package globals; each invocation starts from defaults.
	resetFlags(t)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--quiet"))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		resetFlags(t)
	})

	err := Execute(context.Background())
	return out.String(), err
}

func resetFlags(t *testing.T) {
	t.Helper()
	for _, name := range []string{"bundle", "secret", "attributes", "environment", "ssh-host", "ssh-key", "verbose", "quiet"} {
		f := rootCmd.PersistentFlags().Lookup(name)
		require.NotNil(t, f, name)
		require.NoError(t, f.Value.Set(f.DefValue))
	}
	require.NoError(t, planCmd.Flags().Lookup("explain").Value.Set("false"))
	for _, name := range []string{"dry-run", "metrics-file"} {
		f := applyCmd.Flags().Lookup(name)
		require.NoError(t, f.Value.Set(f.DefValue))
	}
}
