package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/m13/backoffice/internal/domain/shared"
	infraconfig "github.com/m13/backoffice/internal/infrastructure/config"
)

var _ shared.FileStore = (*LocalFileStore)(nil)

// LocalFileStore keeps files below a root directory. Used in development and by the CLI.
type LocalFileStore struct {
	root   string
	logger *zap.Logger
}

// NewLocalFileStore creates the root directory if needed
func NewLocalFileStore(root string, logger *zap.Logger) (*LocalFileStore, error) {
	if root == "" {
		return nil, errors.New("storage: local directory is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", abs, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalFileStore{root: abs, logger: logger}, nil
}

// Root returns the absolute root directory
func (s *LocalFileStore) Root() string {
	return s.root
}

// path maps key onto a file below root and rejects keys escaping it
func (s *LocalFileStore) path(key string) (string, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return "", errEmptyKey
	}
	p := filepath.Join(s.root, filepath.FromSlash(key))
	if p != s.root && !strings.HasPrefix(p, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("storage: key %q leaves the archive", key)
	}
	return p, nil
}

// Put writes data to key via a temporary file
func (s *LocalFileStore) Put(_ context.Context, key string, data []byte, _ string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("storage: create directory: %w", err)
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("storage: write %s: %w", key, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("storage: write %s: %w", key, err)
	}
	s.logger.Debug("Archived file", zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}

// Get reads key
func (s *LocalFileStore) Get(_ context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", shared.ErrFileNotFound, key)
	}
	return data, err
}

// Exists reports whether key is stored
func (s *LocalFileStore) Exists(_ context.Context, key string) (bool, error) {
	p, err := s.path(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// Delete removes key
func (s *LocalFileStore) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}

// URL returns a file:// URL; local files do not expire
func (s *LocalFileStore) URL(_ context.Context, key string, _ time.Duration) (string, error) {
	p, err := s.path(key)
	if err != nil {
		return "", err
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(p)}).String(), nil
}

// New builds the file store selected by cfg.Backend
func New(ctx context.Context, cfg *infraconfig.StorageConfig, logger *zap.Logger) (shared.FileStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Backend {
	case "", "local":
		return NewLocalFileStore(cfg.LocalDir, logger)
	case "s3":
		store, err := NewS3FileStore(cfg, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
}
