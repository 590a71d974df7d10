package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rishirajshrivastava/Lynk-Backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore("http://blobs.local")

	url, err := m.Put(ctx, "users/1/a.jpg", "image/jpeg", strings.NewReader("img"))
	require.NoError(t, err)
	assert.Equal(t, "http://blobs.local/users/1/a.jpg", url)
	assert.True(t, m.Has("users/1/a.jpg"))

	presigned, err := m.PresignPut(ctx, "users/1/b.png", "image/png", 5*time.Minute)
	require.NoError(t, err)
	assert.Contains(t, presigned, "expires=300")

	require.NoError(t, m.Delete(ctx, "users/1/a.jpg", "missing"))
	assert.Equal(t, 0, m.Len())
}

func TestNewS3StoreRequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), &config.Config{AWSRegion: "ap-south-1"})
	assert.Error(t, err)
}

func TestS3StorePublicURL(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	s, err := NewS3Store(context.Background(), &config.Config{AWSRegion: "ap-south-1", S3Bucket: "lynk-photos"})
	require.NoError(t, err)
	assert.Equal(t, "https://lynk-photos.s3.ap-south-1.amazonaws.com/users/1/a.jpg", s.URL("users/1/a.jpg"))

	custom, err := NewS3Store(context.Background(), &config.Config{
		AWSRegion:      "us-east-1",
		S3Bucket:       "lynk",
		S3Endpoint:     "http://localhost:9000",
		S3PublicURL:    "http://localhost:9000/lynk/",
		S3UsePathStyle: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/lynk/k.png", custom.URL("k.png"))

	presigned, err := custom.PresignPut(context.Background(), "users/1/k.png", "image/png", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(presigned, "http://localhost:9000/lynk/users/1/k.png?"))
	assert.Contains(t, presigned, "X-Amz-Expires=300")
}
