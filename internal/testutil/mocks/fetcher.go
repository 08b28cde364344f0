package mocks

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/felixgeelhaar/stashprov/internal/ports"
)

// Fetcher is a thread-safe test double for ports.Fetcher serving fixed payloads.
type Fetcher struct {
	mu       sync.RWMutex
	payloads map[string][]byte
	errors   map[string]error
	fetched  []string
}

// NewFetcher creates a new Fetcher mock.
func NewFetcher() *Fetcher {
	return &Fetcher{
		payloads: make(map[string][]byte),
		errors:   make(map[string]error),
	}
}

// Serve registers the content returned for source.
func (f *Fetcher) Serve(source string, content []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads[source] = content
}

// Fail makes fetching source return err.
func (f *Fetcher) Fail(source string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors[source] = err
}

// Fetch writes the registered payload into w.
func (f *Fetcher) Fetch(ctx context.Context, source string, w io.Writer) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	f.mu.Lock()
	f.fetched = append(f.fetched, source)
	err, failing := f.errors[source]
	content, ok := f.payloads[source]
	f.mu.Unlock()

	if failing {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("no mock payload for %s", source)
	}
	n, err := w.Write(content)
	return int64(n), err
}

// Fetched returns the sources requested, in order.
func (f *Fetcher) Fetched() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, len(f.fetched))
	copy(out, f.fetched)
	return out
}

var _ ports.Fetcher = (*Fetcher)(nil)
