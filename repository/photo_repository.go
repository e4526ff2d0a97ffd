package repository

import (
	"fmt"
	"path/filepath"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/camden-git/photosyncbackend/models"
)

// PhotoRepository handles database operations for Photo entities and the
// enrichment tables hanging off them
type PhotoRepository struct {
	DB *gorm.DB
}

// NewPhotoRepository creates a new instance of PhotoRepository
func NewPhotoRepository(db *gorm.DB) *PhotoRepository {
	return &PhotoRepository{DB: db}
}

// GetByPath retrieves full photo info by its repository-relative path
func (r *PhotoRepository) GetByPath(path string) (*models.Photo, error) {
	var photo models.Photo
	err := r.DB.Preload("Exif").Preload("MetadataValues.Field").Preload("Tags").
		Where("path = ?", filepath.ToSlash(path)).First(&photo).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get photo by path %s: %w", path, err)
	}
	return &photo, nil
}

// ListAll returns every indexed photo
func (r *PhotoRepository) ListAll() ([]models.Photo, error) {
	var photos []models.Photo
	if err := r.DB.Find(&photos).Error; err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	return photos, nil
}

// CommitIngest persists one file's pipeline result as a single transaction:
// upsert the photo keyed by its unique path, replace its EXIF record, upsert
// each (photo, field) metadata value and each (photo, tag) link. either all
// of these writes land or none do. re-ingesting the same path updates in
// place, never duplicates
func (r *PhotoRepository) CommitIngest(commit IngestCommit) (*models.Photo, error) {
	cleanPath := filepath.ToSlash(commit.Path)
	var photo models.Photo

	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := upsertPhoto(tx, cleanPath, commit, &photo); err != nil {
			return err
		}
		if err := replaceExif(tx, photo.ID, commit); err != nil {
			return err
		}
		if err := upsertMetadataValues(tx, photo.ID, commit.MetadataFields); err != nil {
			return err
		}
		if err := upsertTagLinks(tx, photo.ID, commit.Tags); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to commit ingest for %s: %w", cleanPath, err)
	}
	return &photo, nil
}

func upsertPhoto(tx *gorm.DB, cleanPath string, commit IngestCommit, photo *models.Photo) error {
	err := tx.Where("path = ?", cleanPath).First(photo).Error
	if err == gorm.ErrRecordNotFound {
		*photo = models.Photo{
			Path:          cleanPath,
			OwnerID:       commit.OwnerID,
			FileSize:      commit.FileSize,
			LastModified:  commit.LastModified,
			Width:         commit.Width,
			Height:        commit.Height,
			ThumbnailPath: commit.ThumbnailPath,
		}
		if err := tx.Create(photo).Error; err != nil {
			return fmt.Errorf("failed to create photo row: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up photo row: %w", err)
	}

	updates := map[string]interface{}{
		"owner_id":      commit.OwnerID,
		"file_size":     commit.FileSize,
		"last_modified": commit.LastModified,
		"width":         commit.Width,
		"height":        commit.Height,
	}
	// keep an earlier thumbnail reference when this run produced none
	if commit.ThumbnailPath != nil {
		updates["thumbnail_path"] = commit.ThumbnailPath
		photo.ThumbnailPath = commit.ThumbnailPath
	}
	if err := tx.Model(photo).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update photo row: %w", err)
	}
	return nil
}

func replaceExif(tx *gorm.DB, photoID uint, commit IngestCommit) error {
	if err := tx.Where("photo_id = ?", photoID).Delete(&models.ExifRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete old exif record: %w", err)
	}
	if commit.Exif == nil {
		return nil
	}
	record := models.ExifRecord{
		PhotoID:      photoID,
		CameraMake:   commit.Exif.CameraMake,
		CameraModel:  commit.Exif.CameraModel,
		LensMake:     commit.Exif.LensMake,
		LensModel:    commit.Exif.LensModel,
		FocalLength:  commit.Exif.FocalLength,
		Aperture:     commit.Exif.Aperture,
		ShutterSpeed: commit.Exif.ShutterSpeed,
		ISO:          commit.Exif.ISO,
		GPSLatitude:  commit.Exif.GPSLatitude,
		GPSLongitude: commit.Exif.GPSLongitude,
		TakenAt:      commit.Exif.TakenAt,
	}
	if err := tx.Create(&record).Error; err != nil {
		return fmt.Errorf("failed to create exif record: %w", err)
	}
	return nil
}

func upsertMetadataValues(tx *gorm.DB, photoID uint, fields map[string]string) error {
	for name, value := range fields {
		var field models.MetadataField
		// field names are globally deduplicated, case-sensitive exact match
		if err := tx.Where(models.MetadataField{Name: name}).FirstOrCreate(&field).Error; err != nil {
			return fmt.Errorf("failed to ensure metadata field %q: %w", name, err)
		}

		row := models.PhotoMetadataValue{PhotoID: photoID, FieldID: field.ID}
		if err := tx.Where(row).Assign(models.PhotoMetadataValue{Value: value}).FirstOrCreate(&row).Error; err != nil {
			return fmt.Errorf("failed to upsert metadata value for field %q: %w", name, err)
		}
	}
	return nil
}

func upsertTagLinks(tx *gorm.DB, photoID uint, tags []string) error {
	seen := make(map[string]bool, len(tags))
	for _, value := range tags {
		if value == "" || seen[value] {
			continue
		}
		seen[value] = true

		var tag models.Tag
		if err := tx.Where(models.Tag{Value: value}).FirstOrCreate(&tag).Error; err != nil {
			return fmt.Errorf("failed to ensure tag %q: %w", value, err)
		}

		link := models.PhotoTag{PhotoID: photoID, TagID: tag.ID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
			return fmt.Errorf("failed to link tag %q: %w", value, err)
		}
	}
	return nil
}
