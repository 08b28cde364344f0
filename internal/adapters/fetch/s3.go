package fetch

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/felixgeelhaar/stashprov/internal/domain/config"
	"github.com/felixgeelhaar/stashprov/internal/ports"
)

// S3Fetcher downloads s3://bucket/key objects from an S3-compatible store.
type S3Fetcher struct {
	client *minio.Client
}

// NewS3Fetcher connects to the store described by the node attributes.
func NewS3Fetcher(cfg config.S3Attributes) (*S3Fetcher, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is not configured")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}
	return &S3Fetcher{client: client}, nil
}

// ParseS3URL splits s3://bucket/key.
func ParseS3URL(source string) (bucket, key string, err error) {
	u, err := url.Parse(source)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("s3 URL %q must name a bucket and a key", source)
	}
	return u.Host, key, nil
}

// Fetch streams the object into w.
func (f *S3Fetcher) Fetch(ctx context.Context, source string, w io.Writer) (int64, error) {
	bucket, key, err := ParseS3URL(source)
	if err != nil {
		return 0, err
	}

	obj, err := f.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", source, err)
	}
	defer func() { _ = obj.Close() }()

	n, err := io.Copy(w, obj)
	if err != nil {
		return n, fmt.Errorf("get %s: %w", source, err)
	}
	return n, nil
}

var _ ports.Fetcher = (*S3Fetcher)(nil)
