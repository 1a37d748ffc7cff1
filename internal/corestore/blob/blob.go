// Package blob stores sealed Core Store objects. Backends only see opaque
// ciphertext; keys never reach them.
package blob

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("blob not found")

// Store is a flat key/value store for sealed objects.
type Store interface {
	Put(ctx context.Context, id string, data []byte) error
	Get(ctx context.Context, id string) ([]byte, error)
	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, id string) error
}

// Backend names accepted in configuration.
const (
	BackendFS     = "fs"
	BackendMemory = "memory"
	BackendS3     = "s3"
)

type Options struct {
	Backend string
	Dir     string
	S3      S3Config
}

// Open builds the backend selected by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendFS, "":
		return NewFS(opts.Dir)
	case BackendMemory:
		return NewMemory(), nil
	case BackendS3:
		return NewS3(ctx, opts.S3)
	default:
		return nil, fmt.Errorf("unknown blob backend %q", opts.Backend)
	}
}
