package objectclient

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfg "github.com/markdave123-py/Slidewise/internal/config"
	"github.com/markdave123-py/Slidewise/internal/core"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(&cfg.Config{LocalStoragePath: dir, LocalStorageBaseURL: "http://localhost:8080/media/"}, zerolog.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	url, err := s.UploadFile(ctx, "users/u1/presentations/x/slide_1.png", []byte("img"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/media/users/u1/presentations/x/slide_1.png", url)

	data, err := s.GetFile(ctx, "users/u1/presentations/x/slide_1.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("img"), data)

	require.NoError(t, s.DeleteFile(ctx, "users/u1/presentations/x/slide_1.png"))
	require.NoError(t, s.DeleteFile(ctx, "users/u1/presentations/x/slide_1.png"), "deleting twice is fine")

	_, err = s.GetFile(ctx, "users/u1/presentations/x/slide_1.png")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.NoError(t, s.Health(ctx))
	assert.True(t, s.Enabled())
}

func TestLocalStorageStaysInsideRoot(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(&cfg.Config{LocalStoragePath: dir}, zerolog.Nop())
	require.NoError(t, err)

	url, err := s.UploadFile(context.Background(), "../../escape.txt", []byte("x"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "file://"+filepath.Join(dir, "escape.txt"), url)

	_, err = os.Stat(filepath.Join(dir, "escape.txt"))
	assert.NoError(t, err)

	_, err = s.UploadFile(context.Background(), "", []byte("x"), "text/plain")
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestLocalStorageDisabled(t *testing.T) {
	s, err := NewLocalStorage(&cfg.Config{}, zerolog.Nop())
	require.NoError(t, err)

	assert.False(t, s.Enabled())
	_, err = s.UploadFile(context.Background(), "k", []byte("x"), "text/plain")
	assert.ErrorIs(t, err, core.ErrStorageDisabled)
	assert.NoError(t, s.Health(context.Background()))
}

func TestPublicBaseURL(t *testing.T) {
	assert.Equal(t, "https://media.s3.us-east-2.amazonaws.com",
		publicBaseURL(&cfg.Config{BucketName: "media", AwsRegion: "us-east-2"}))
	assert.Equal(t, "http://localhost:9000/media",
		publicBaseURL(&cfg.Config{BucketName: "media", S3Endpoint: "http://minio:9000", S3PublicEndpoint: "http://localhost:9000/", S3UsePathStyle: true}))
	assert.Equal(t, "https://cdn.example.com",
		publicBaseURL(&cfg.Config{BucketName: "media", S3PublicEndpoint: "https://cdn.example.com"}))
}
