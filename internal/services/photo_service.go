package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/dto"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/models"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/storage"
	"gorm.io/gorm"
)

const (
	MaxPhotos     = 6
	presignExpiry = 5 * time.Minute
)

var (
	ErrPhotoLimit      = fmt.Errorf("a profile can have at most %d photos", MaxPhotos)
	ErrUnsupportedType = errors.New("only jpg, jpeg, png, gif and webp images are allowed")
	ErrPhotoNotFound   = errors.New("photo not found")
	ErrNoFiles         = errors.New("no photos uploaded")
)

var photoContentTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

type PhotoService struct {
	db    *gorm.DB
	blobs storage.BlobStore
	now   func() time.Time

	keyMu   sync.Mutex
	lastKey int64
}

func NewPhotoService(db *gorm.DB, blobs storage.BlobStore) *PhotoService {
	return &PhotoService{db: db, blobs: blobs, now: time.Now}
}

func photoExt(filename string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if _, ok := photoContentTypes[ext]; !ok {
		return "", ErrUnsupportedType
	}
	return ext, nil
}

// photoKey stamps keys with a strictly increasing nanosecond value so a
// multi-file upload never reuses a key.
func (s *PhotoService) photoKey(userID uuid.UUID, ext string) string {
	s.keyMu.Lock()
	n := s.now().UnixNano()
	if n <= s.lastKey {
		n = s.lastKey + 1
	}
	s.lastKey = n
	s.keyMu.Unlock()
	return fmt.Sprintf("users/%s/profile-%d.%s", userID, n, ext)
}

func (s *PhotoService) List(ctx context.Context, userID uuid.UUID) ([]models.Photo, error) {
	var photos []models.Photo
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&photos).Error
	return photos, err
}

// Upload stores files and records them. The first photo becomes the profile
// picture when the user has none.
func (s *PhotoService) Upload(ctx context.Context, userID uuid.UUID, files []*multipart.FileHeader) ([]models.Photo, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	exts := make([]string, len(files))
	for i, f := range files {
		ext, err := photoExt(f.Filename)
		if err != nil {
			return nil, err
		}
		exts[i] = ext
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Photo{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return nil, err
	}
	if int(count)+len(files) > MaxPhotos {
		return nil, ErrPhotoLimit
	}

	photos := make([]models.Photo, 0, len(files))
	for i, f := range files {
		photo, err := s.store(ctx, userID, f, exts[i])
		if err != nil {
			s.rollback(ctx, photos)
			return nil, err
		}
		photos = append(photos, *photo)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&photos).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ? AND (photo_url = '' OR photo_url IS NULL)", userID).
			Update("photo_url", photos[0].URL).Error
	})
	if err != nil {
		s.rollback(ctx, photos)
		return nil, fmt.Errorf("failed to save photos: %w", err)
	}
	return photos, nil
}

func (s *PhotoService) store(ctx context.Context, userID uuid.UUID, fh *multipart.FileHeader, ext string) (*models.Photo, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	key := s.photoKey(userID, ext)
	url, err := s.blobs.Put(ctx, key, photoContentTypes[ext], file)
	if err != nil {
		return nil, err
	}
	return &models.Photo{ID: uuid.New(), UserID: userID, Key: key, URL: url}, nil
}

func (s *PhotoService) rollback(ctx context.Context, photos []models.Photo) {
	if len(photos) == 0 {
		return
	}
	keys := make([]string, len(photos))
	for i, p := range photos {
		keys[i] = p.Key
	}
	if err := s.blobs.Delete(ctx, keys...); err != nil {
		slog.Error("failed to remove orphaned photos", "error", err, "count", len(keys))
	}
}

// Replace swaps the file behind an existing photo.
func (s *PhotoService) Replace(ctx context.Context, userID, photoID uuid.UUID, fh *multipart.FileHeader) (*models.Photo, error) {
	ext, err := photoExt(fh.Filename)
	if err != nil {
		return nil, err
	}
	old, err := s.find(ctx, userID, photoID)
	if err != nil {
		return nil, err
	}

	fresh, err := s.store(ctx, userID, fh, ext)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Photo{}).Where("id = ?", old.ID).Updates(map[string]interface{}{
			"key": fresh.Key,
			"url": fresh.URL,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ? AND photo_url = ?", userID, old.URL).
			Update("photo_url", fresh.URL).Error
	})
	if err != nil {
		s.rollback(ctx, []models.Photo{*fresh})
		return nil, fmt.Errorf("failed to replace photo: %w", err)
	}

	if err := s.blobs.Delete(ctx, old.Key); err != nil {
		slog.Error("failed to delete replaced photo", "key", old.Key, "error", err)
	}
	old.Key, old.URL = fresh.Key, fresh.URL
	return old, nil
}

// Delete removes one photo. If it was the profile picture the next oldest
// photo takes its place.
func (s *PhotoService) Delete(ctx context.Context, userID, photoID uuid.UUID) error {
	photo, err := s.find(ctx, userID, photoID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Photo{}, "id = ?", photo.ID).Error; err != nil {
			return err
		}
		var next models.Photo
		nextURL := ""
		if err := tx.Where("user_id = ?", userID).Order("created_at ASC").First(&next).Error; err == nil {
			nextURL = next.URL
		}
		return tx.Model(&models.User{}).
			Where("id = ? AND photo_url = ?", userID, photo.URL).
			Update("photo_url", nextURL).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	return s.blobs.Delete(ctx, photo.Key)
}

func (s *PhotoService) DeleteAll(ctx context.Context, userID uuid.UUID) (int, error) {
	photos, err := s.List(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(photos) == 0 {
		return 0, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.Photo{}).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).Update("photo_url", "").Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete photos: %w", err)
	}

	keys := make([]string, len(photos))
	for i, p := range photos {
		keys[i] = p.Key
	}
	return len(photos), s.blobs.Delete(ctx, keys...)
}

// PresignUpload returns a short lived PUT URL for a direct client upload.
func (s *PhotoService) PresignUpload(ctx context.Context, userID uuid.UUID, extension string) (*dto.PresignResponse, error) {
	ext, err := photoExt("file." + extension)
	if err != nil {
		return nil, err
	}
	key := s.photoKey(userID, ext)
	url, err := s.blobs.PresignPut(ctx, key, photoContentTypes[ext], presignExpiry)
	if err != nil {
		return nil, err
	}
	return &dto.PresignResponse{
		UploadURL: url,
		Key:       key,
		PublicURL: s.blobs.URL(key),
		ExpiresIn: int(presignExpiry.Seconds()),
	}, nil
}

// Purge deletes blobs left behind by a deleted account.
func (s *PhotoService) Purge(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}
	if err := s.blobs.Delete(ctx, keys...); err != nil {
		slog.Error("failed to purge photos", "error", err, "count", len(keys))
	}
}

func (s *PhotoService) find(ctx context.Context, userID, photoID uuid.UUID) (*models.Photo, error) {
	var photo models.Photo
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", photoID, userID).First(&photo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPhotoNotFound
	}
	if err != nil {
		return nil, err
	}
	return &photo, nil
}
