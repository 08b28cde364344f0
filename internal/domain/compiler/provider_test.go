package compiler

import (
	"errors"
	"testing"
)

// mockProvider is a test double for Provider interface.
type mockProvider struct {
	name      string
	compileFn func(CompileContext) ([]Step, error)
}

func newMockProvider(name string) *mockProvider {
	return &mockProvider{
		name: name,
		compileFn: func(_ CompileContext) ([]Step, error) {
			return []Step{}, nil
		},
	}
}

func (m *mockProvider) Name() string {
	return m.name
}

func (m *mockProvider) Compile(ctx CompileContext) ([]Step, error) {
	return m.compileFn(ctx)
}

func TestProvider_Compile_Error(t *testing.T) {
	provider := newMockProvider("archive")
	provider.compileFn = func(_ CompileContext) ([]Step, error) {
		return nil, errors.New("bad checksum attribute")
	}

	_, err := provider.Compile(NewCompileContext(testSettings()))
	if err == nil {
		t.Fatal("expected error from Compile()")
	}
}

func TestCompileContext_Accessors(t *testing.T) {
	settings := testSettings()
	ctx := NewCompileContext(settings)

	if ctx.Settings().Environment() != "production" {
		t.Errorf("Settings().Environment() = %q", ctx.Settings().Environment())
	}
	if ctx.Attributes().Stash.RunUser != "stash" {
		t.Errorf("Attributes().Stash.RunUser = %q", ctx.Attributes().Stash.RunUser)
	}
	if ctx.Provenance() != "" {
		t.Error("Provenance() should default to empty")
	}
}

func TestCompileContext_WithProvenance(t *testing.T) {
	ctx := NewCompileContext(testSettings())
	withProv := ctx.WithProvenance("stash.json")

	if withProv.Provenance() != "stash.json" {
		t.Errorf("Provenance() = %q", withProv.Provenance())
	}
	if ctx.Provenance() != "" {
		t.Error("original context should be unchanged")
	}
	if withProv.Settings().Vendor() != ctx.Settings().Vendor() {
		t.Error("WithProvenance should keep settings")
	}
}
