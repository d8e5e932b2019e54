package storage

import (
	"context"
	"io"
)

// ObjectStore abstracts where report images live. Keys are relative
// paths like "found_docs/blurred/abc.jpg".
type ObjectStore interface {
	Upload(ctx context.Context, key string, contentType string, body io.Reader) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
