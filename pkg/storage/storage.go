package storage

import (
	"context"
	"errors"
	"io"
)

var ErrInvalidKey = errors.New("invalid object key")

// ObjectStorage stores opaque objects under caller-chosen keys.
type ObjectStorage interface {
	// Put writes the object and returns a URI the object can later be fetched from.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
