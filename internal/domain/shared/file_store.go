package shared

import (
	"context"
	"errors"
	"time"
)

// ErrFileNotFound is returned by FileStore.Get for unknown keys
var ErrFileNotFound = errors.New("storage: file not found")

// FileStore archives feeds and uploaded report files under slash separated keys
type FileStore interface {
	// Put stores data under key, replacing an existing file
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get returns the content stored under key
	Get(ctx context.Context, key string) ([]byte, error)

	// Exists reports whether key is stored
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes key. Unknown keys are not an error.
	Delete(ctx context.Context, key string) error

	// URL returns a download location for key valid for at least expiresIn
	URL(ctx context.Context, key string, expiresIn time.Duration) (string, error)
}
