package template_test

import (
	"context"

	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
	"github.com/felixgeelhaar/stashprov/internal/ports"
)

func okHandler([]string) (ports.CommandResult, error) {
	return ports.CommandResult{}, nil
}

func runCtx() compiler.RunContext {
	return compiler.NewRunContext(context.Background())
}
