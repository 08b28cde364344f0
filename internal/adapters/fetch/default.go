package fetch

import (
	"github.com/felixgeelhaar/stashprov/internal/domain/config"
)

// NewDefault routes http, https and file URLs, plus s3 when an endpoint is configured.
func NewDefault(artifacts config.ArtifactStoreAttributes, opts ...HTTPOption) (*Router, error) {
	r := NewRouter().
		Register(NewHTTPFetcher(opts...), "http", "https").
		Register(FileFetcher{}, "file")

	if artifacts.S3.Endpoint != "" {
		s3, err := NewS3Fetcher(artifacts.S3)
		if err != nil {
			return nil, err
		}
		r.Register(s3, "s3")
	}
	return r, nil
}
