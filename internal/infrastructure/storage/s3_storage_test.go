package storage

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/m13/backoffice/internal/infrastructure/config"
)

func TestNewS3FileStore_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.StorageConfig
		wantErr string
	}{
		{name: "nil config", cfg: nil, wantErr: "configuration is required"},
		{name: "missing bucket", cfg: &config.StorageConfig{AccessKey: "k", SecretKey: "s"}, wantErr: "bucket is required"},
		{name: "missing access key", cfg: &config.StorageConfig{Bucket: "b", SecretKey: "s"}, wantErr: "access key is required"},
		{name: "missing secret key", cfg: &config.StorageConfig{Bucket: "b", AccessKey: "k"}, wantErr: "secret key is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewS3FileStore(tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func newTestS3Store(t *testing.T, opts ...S3Option) *S3FileStore {
	t.Helper()
	store, err := NewS3FileStore(&config.StorageConfig{
		Bucket:       "m13-archive",
		AccessKey:    "test-key",
		SecretKey:    "test-secret",
		Endpoint:     "localhost:9000",
		UsePathStyle: true,
	}, opts...)
	require.NoError(t, err)
	return store
}

func TestS3FileStore_Options(t *testing.T) {
	store := newTestS3Store(t, WithLogger(zap.NewNop()), WithPresignExpiration(time.Hour), WithKeyPrefix("/m13/"))
	assert.Equal(t, "m13-archive", store.Bucket())
	assert.Equal(t, time.Hour, store.presignExpiration)

	key, err := store.objectKey("/feeds/a.csv")
	require.NoError(t, err)
	assert.Equal(t, "m13/feeds/a.csv", key)

	assert.Equal(t, 15*time.Minute, newTestS3Store(t).presignExpiration)
}

func TestS3FileStore_URL(t *testing.T) {
	store := newTestS3Store(t)

	u, err := store.URL(context.Background(), "reports/zalando/daily.csv", 10*time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "http://localhost:9000/m13-archive/reports/zalando/daily.csv?"))
	assert.Contains(t, u, "X-Amz-Expires=600")

	_, err = store.URL(context.Background(), "", 0)
	assert.ErrorIs(t, err, errEmptyKey)
}

func TestS3FileStore_EmptyKey(t *testing.T) {
	store := newTestS3Store(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.Put(ctx, "", nil, ""), errEmptyKey)
	_, err := store.Get(ctx, "/")
	assert.ErrorIs(t, err, errEmptyKey)
	_, err = store.Exists(ctx, "")
	assert.ErrorIs(t, err, errEmptyKey)
	assert.ErrorIs(t, store.Delete(ctx, ""), errEmptyKey)
}

// TestS3FileStore_Integration runs against a MinIO or RustFS instance named by M13_TEST_S3_ENDPOINT
func TestS3FileStore_Integration(t *testing.T) {
	endpoint := os.Getenv("M13_TEST_S3_ENDPOINT")
	if endpoint == "" {
		t.Skip("M13_TEST_S3_ENDPOINT not set")
	}
	store, err := NewS3FileStore(&config.StorageConfig{
		Bucket:       "m13-integration",
		AccessKey:    os.Getenv("M13_TEST_S3_ACCESS_KEY"),
		SecretKey:    os.Getenv("M13_TEST_S3_SECRET_KEY"),
		Endpoint:     endpoint,
		UsePathStyle: true,
	})
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.EnsureBucket(ctx))
	require.NoError(t, store.EnsureBucket(ctx))

	key := "integration/roundtrip.csv"
	require.NoError(t, store.Put(ctx, key, []byte("a;b\n"), "text/csv"))
	data, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "a;b\n", string(data))

	exists, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Delete(ctx, key))
	exists, err = store.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}
