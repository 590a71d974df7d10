package services

import (
	"bytes"
	"context"
	"mime/multipart"
	"testing"

	"github.com/rishirajshrivastava/Lynk-Backend/internal/storage"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fileHeaders builds real multipart file headers the way Fiber hands them over.
func fileHeaders(t *testing.T, names ...string) []*multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, name := range names {
		part, err := w.CreateFormFile("photos", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("image-bytes-" + name))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["photos"]
}

func TestUploadPhotos(t *testing.T) {
	db := testutil.SetupTestDB(t)
	blobs := storage.NewMemoryStore("http://blobs.local")
	svc := NewPhotoService(db, blobs)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "Pia")

	photos, err := svc.Upload(ctx, u.ID, fileHeaders(t, "a.jpg", "b.PNG"))
	require.NoError(t, err)
	require.Len(t, photos, 2)
	assert.NotEqual(t, photos[0].Key, photos[1].Key)
	assert.Regexp(t, `^users/`+u.ID.String()+`/profile-\d+\.jpg$`, photos[0].Key)
	assert.Regexp(t, `\.png$`, photos[1].Key)
	assert.Equal(t, 2, blobs.Len())
	assert.Equal(t, photos[0].URL, testutil.ReloadUser(t, db, u.ID).PhotoURL)

	_, err = svc.Upload(ctx, u.ID, fileHeaders(t, "c.bmp"))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = svc.Upload(ctx, u.ID, fileHeaders(t, "1.jpg", "2.jpg", "3.jpg", "4.jpg", "5.jpg"))
	assert.ErrorIs(t, err, ErrPhotoLimit)
	assert.Equal(t, 2, blobs.Len())

	_, err = svc.Upload(ctx, u.ID, fileHeaders(t, "1.jpg", "2.jpg", "3.jpg", "4.jpg"))
	require.NoError(t, err)
	list, err := svc.List(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, list, MaxPhotos)
}

func TestDeleteAndReplacePhotos(t *testing.T) {
	db := testutil.SetupTestDB(t)
	blobs := storage.NewMemoryStore("http://blobs.local")
	svc := NewPhotoService(db, blobs)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "Pia")
	stranger := testutil.CreateUser(t, db, "Stranger")

	photos, err := svc.Upload(ctx, u.ID, fileHeaders(t, "a.jpg", "b.jpg"))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, stranger.ID, photos[0].ID), ErrPhotoNotFound)

	replaced, err := svc.Replace(ctx, u.ID, photos[0].ID, fileHeaders(t, "new.webp")[0])
	require.NoError(t, err)
	assert.False(t, blobs.Has(photos[0].Key))
	assert.True(t, blobs.Has(replaced.Key))
	assert.Equal(t, replaced.URL, testutil.ReloadUser(t, db, u.ID).PhotoURL)

	// deleting the profile picture promotes the next photo
	require.NoError(t, svc.Delete(ctx, u.ID, photos[0].ID))
	assert.Equal(t, photos[1].URL, testutil.ReloadUser(t, db, u.ID).PhotoURL)

	n, err := svc.DeleteAll(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, blobs.Len())
	assert.Empty(t, testutil.ReloadUser(t, db, u.ID).PhotoURL)
}

func TestPresignUpload(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewPhotoService(db, storage.NewMemoryStore("http://blobs.local"))
	u := testutil.CreateUser(t, db, "Pia")

	resp, err := svc.PresignUpload(context.Background(), u.ID, "JPEG")
	require.NoError(t, err)
	assert.Equal(t, 300, resp.ExpiresIn)
	assert.Contains(t, resp.UploadURL, resp.Key)
	assert.Equal(t, "http://blobs.local/"+resp.Key, resp.PublicURL)

	_, err = svc.PresignUpload(context.Background(), u.ID, "exe")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
