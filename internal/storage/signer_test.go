package storage_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"clubvid/internal/storage"
	"clubvid/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockURLCache struct {
	mock.Mock
}

func (m *mockURLCache) Get(ctx context.Context, objectKey string) (string, bool, error) {
	args := m.Called(ctx, objectKey)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockURLCache) Set(ctx context.Context, objectKey, url string, ttl time.Duration) error {
	args := m.Called(ctx, objectKey, url, ttl)
	return args.Error(0)
}

func (m *mockURLCache) Delete(ctx context.Context, objectKeys ...string) error {
	args := m.Called(ctx, objectKeys)
	return args.Error(0)
}

func putObject(t *testing.T, store *storagetest.MemStore, key string) {
	t.Helper()
	require.NoError(t, store.Put(context.Background(), key, strings.NewReader("x"), 1, "video/mp4"))
}

func TestCachingSigner_CacheMissSignsAndStores(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := storagetest.NewMemStore()
	putObject(t, store, "videos/a.mp4")
	cache := &mockURLCache{}
	cache.On("Get", ctx, "videos/a.mp4").Return("", false, nil)
	cache.On("Set", ctx, "videos/a.mp4", "mem://videos/a.mp4?ttl=3600", 54*time.Minute).Return(nil)
	signer := storage.NewCachingSigner(store, cache, time.Hour)

	// Act
	url, err := signer.SignedURL(ctx, "videos/a.mp4")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "mem://videos/a.mp4?ttl=3600", url)
	cache.AssertExpectations(t)
}

func TestCachingSigner_CacheHit(t *testing.T) {
	ctx := context.Background()
	store := storagetest.NewMemStore()
	cache := &mockURLCache{}
	cache.On("Get", ctx, "videos/a.mp4").Return("https://cached", true, nil)
	signer := storage.NewCachingSigner(store, cache, time.Hour)

	url, err := signer.SignedURL(ctx, "videos/a.mp4")

	require.NoError(t, err)
	assert.Equal(t, "https://cached", url)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCachingSigner_MissingObject(t *testing.T) {
	ctx := context.Background()
	cache := &mockURLCache{}
	cache.On("Get", ctx, "videos/missing.mp4").Return("", false, nil)
	signer := storage.NewCachingSigner(storagetest.NewMemStore(), cache, time.Hour)

	_, err := signer.SignedURL(ctx, "videos/missing.mp4")

	assert.ErrorIs(t, err, storage.ErrNotFound)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCachingSigner_CacheErrorsAreBypassed(t *testing.T) {
	ctx := context.Background()
	store := storagetest.NewMemStore()
	putObject(t, store, "thumbnails/a.jpg")
	cache := &mockURLCache{}
	cache.On("Get", ctx, "thumbnails/a.jpg").Return("", false, errors.New("redis down"))
	cache.On("Set", ctx, "thumbnails/a.jpg", mock.Anything, mock.Anything).Return(errors.New("redis down"))
	signer := storage.NewCachingSigner(store, cache, time.Hour)

	url, err := signer.SignedURL(ctx, "thumbnails/a.jpg")

	require.NoError(t, err)
	assert.Contains(t, url, "thumbnails/a.jpg")
}

func TestCachingSigner_NilCache(t *testing.T) {
	store := storagetest.NewMemStore()
	putObject(t, store, "videos/a.mp4")
	signer := storage.NewCachingSigner(store, nil, time.Minute)

	url, err := signer.SignedURL(context.Background(), "videos/a.mp4")
	require.NoError(t, err)
	assert.NotEmpty(t, url)

	signer.Invalidate(context.Background(), "videos/a.mp4")
}

func TestCachingSigner_Invalidate(t *testing.T) {
	ctx := context.Background()
	cache := &mockURLCache{}
	cache.On("Delete", ctx, []string{"videos/a.mp4", "thumbnails/a.jpg"}).Return(nil)
	signer := storage.NewCachingSigner(storagetest.NewMemStore(), cache, time.Hour)

	signer.Invalidate(ctx, "videos/a.mp4", "thumbnails/a.jpg")

	cache.AssertExpectations(t)
}
