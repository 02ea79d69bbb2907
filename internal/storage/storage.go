// Package storage puts uploaded media into an S3-compatible object store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"streamify/internal/config"
)

var ErrEmptyKey = errors.New("storage: empty object key")

// ObjectStore is the bucket the media service writes to.
type ObjectStore interface {
	// Put uploads r under key and returns its public URL. size may be -1 when unknown.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType, cacheControl string) (string, error)
	Delete(ctx context.Context, key string) error
}

// New builds the store selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (ObjectStore, error) {
	switch cfg.Driver {
	case config.StorageDriverS3:
		return NewS3Store(ctx, cfg)
	case config.StorageDriverMinio:
		return NewMinioStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q", cfg.Driver)
	}
}

func cleanKey(key string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", ErrEmptyKey
	}
	return key, nil
}

func joinURL(base string, parts ...string) string {
	out := strings.TrimSuffix(base, "/")
	for _, p := range parts {
		out += "/" + strings.Trim(p, "/")
	}
	return out
}
