// Package fetch downloads artifacts from http(s), s3 and file URLs.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/felixgeelhaar/stashprov/internal/ports"
)

// ErrUnsupportedScheme is returned for URLs no fetcher is registered for.
var ErrUnsupportedScheme = errors.New("unsupported artifact URL scheme")

// Router dispatches to a Fetcher by URL scheme.
type Router struct {
	fetchers map[string]ports.Fetcher
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{fetchers: make(map[string]ports.Fetcher)}
}

// Register serves scheme with f. Later registrations replace earlier ones.
func (r *Router) Register(f ports.Fetcher, schemes ...string) *Router {
	for _, s := range schemes {
		r.fetchers[strings.ToLower(s)] = f
	}
	return r
}

// Fetch streams source into w using the fetcher for its scheme.
func (r *Router) Fetch(ctx context.Context, source string, w io.Writer) (int64, error) {
	u, err := url.Parse(source)
	if err != nil {
		return 0, fmt.Errorf("parse artifact URL: %w", err)
	}
	f, ok := r.fetchers[strings.ToLower(u.Scheme)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	return f.Fetch(ctx, source, w)
}

var _ ports.Fetcher = (*Router)(nil)
