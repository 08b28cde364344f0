package ports

import (
	"context"
	"io"
)

// Fetcher retrieves a remote artifact and streams it into w.
// It returns the number of bytes written.
type Fetcher interface {
	Fetch(ctx context.Context, source string, w io.Writer) (int64, error)
}
