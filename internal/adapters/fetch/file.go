package fetch

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/felixgeelhaar/stashprov/internal/ports"
)

// FileFetcher copies file:// artifacts from the machine running stashprov.
// Useful for air-gapped installs with a pre-seeded mirror.
type FileFetcher struct{}

// Fetch copies the local file into w.
func (FileFetcher) Fetch(ctx context.Context, source string, w io.Writer) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	u, err := url.Parse(source)
	if err != nil {
		return 0, err
	}
	f, err := os.Open(u.Path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", source, err)
	}
	defer func() { _ = f.Close() }()
	return io.Copy(w, f)
}

var _ ports.Fetcher = FileFetcher{}
