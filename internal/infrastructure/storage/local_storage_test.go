package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/m13/backoffice/internal/domain/shared"
	"github.com/m13/backoffice/internal/infrastructure/config"
)

func TestLocalFileStore_RoundTrip(t *testing.T) {
	store, err := NewLocalFileStore(t.TempDir(), zaptest.NewLogger(t))
	require.NoError(t, err)
	ctx := context.Background()
	key := "feeds/zalando/original/2024-03-01T10-00-00.csv"

	exists, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Put(ctx, key, []byte("store;ean\n"), "text/csv"))
	exists, err = store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "store;ean\n", string(data))

	u, err := store.URL(ctx, key, 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "file://"))
	assert.True(t, strings.HasSuffix(u, "2024-03-01T10-00-00.csv"))

	require.NoError(t, store.Delete(ctx, key))
	require.NoError(t, store.Delete(ctx, key), "deleting twice is fine")
	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, shared.ErrFileNotFound)
}

func TestLocalFileStore_Overwrite(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalFileStore(dir, nil)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a.txt", []byte("one"), ""))
	require.NoError(t, store.Put(ctx, "/a.txt", []byte("two"), ""))

	data, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
	_, err = os.Stat(filepath.Join(dir, "a.txt.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalFileStore_RejectsBadKeys(t *testing.T) {
	store, err := NewLocalFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	ctx := context.Background()

	assert.ErrorIs(t, store.Put(ctx, "", []byte("x"), ""), errEmptyKey)
	err = store.Put(ctx, "../escape.txt", []byte("x"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leaves the archive")
}

func TestNew_SelectsBackend(t *testing.T) {
	store, err := New(context.Background(), &config.StorageConfig{Backend: "local", LocalDir: t.TempDir()}, nil)
	require.NoError(t, err)
	assert.IsType(t, &LocalFileStore{}, store)

	_, err = New(context.Background(), &config.StorageConfig{Backend: "ftp"}, nil)
	assert.Error(t, err)
}
