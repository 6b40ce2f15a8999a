// Package storage persists JSON documents under fixed logical keys.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/deusflow/econbrief/internal/config"
)

// ErrNotFound is returned by Get when nothing is stored under the key.
var ErrNotFound = errors.New("key not found")

// Store is a whole-document key/value store. Put replaces any previous value.
type Store interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Name() string
	Close() error
}

// Open builds the backend selected by cfg.StorageBackend.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StorageBackend {
	case "postgres":
		return NewPostgresStore(ctx, cfg.DatabaseURL)
	case "redis":
		return NewRedisStore(ctx, cfg.RedisURL)
	case "file", "":
		return NewFileStore(cfg.DataDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func validKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return fmt.Errorf("invalid storage key %q", key)
	}
	return nil
}

func notFound(key string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, key)
}
