package repository

import (
	"path/filepath"
	"sort"
	"testing"

	"gorm.io/gorm"

	"github.com/camden-git/photosyncbackend/database"
	"github.com/camden-git/photosyncbackend/media"
	"github.com/camden-git/photosyncbackend/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.InitGormDB(dbPath)
	if err != nil {
		t.Fatalf("Failed to init test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func seedOwner(t *testing.T, db *gorm.DB) uint {
	t.Helper()
	user := models.User{Username: "library"}
	if err := user.SetPassword("testpassword"); err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	if err := NewUserRepository(db).Create(&user); err != nil {
		t.Fatalf("Failed to seed owner: %v", err)
	}
	return user.ID
}

func intP(i int) *int           { return &i }
func strP(s string) *string     { return &s }
func floatP(f float64) *float64 { return &f }

func TestCommitIngestCreatesPhoto(t *testing.T) {
	db := setupTestDB(t)
	ownerID := seedOwner(t, db)
	repo := NewPhotoRepository(db)

	photo, err := repo.CommitIngest(IngestCommit{
		Path:         "trips/beach/IMG_001.jpg",
		OwnerID:      ownerID,
		FileSize:     1024,
		LastModified: 1700000000,
		Width:        intP(800),
		Height:       intP(600),
		Exif: &media.ExifData{
			CameraMake: strP("Canon"),
			Aperture:   floatP(2.8),
		},
		MetadataFields: map[string]string{"Title": "Beach day", "Location": "Zürich"},
		Tags:           []string{"beach", "summer"},
	})
	if err != nil {
		t.Fatalf("CommitIngest failed: %v", err)
	}
	if photo.ID == 0 {
		t.Fatal("Expected photo to be assigned an ID")
	}

	loaded, err := repo.GetByPath("trips/beach/IMG_001.jpg")
	if err != nil {
		t.Fatalf("GetByPath failed: %v", err)
	}
	if loaded.FileSize != 1024 || loaded.Width == nil || *loaded.Width != 800 {
		t.Errorf("Photo fields not persisted: %+v", loaded)
	}
	if loaded.Exif == nil || loaded.Exif.CameraMake == nil || *loaded.Exif.CameraMake != "Canon" {
		t.Errorf("Exif not persisted: %+v", loaded.Exif)
	}
	if len(loaded.MetadataValues) != 2 {
		t.Errorf("Expected 2 metadata values, got %d", len(loaded.MetadataValues))
	}
	if len(loaded.Tags) != 2 {
		t.Errorf("Expected 2 tags, got %d", len(loaded.Tags))
	}
}

func TestCommitIngestIsIdempotentByPath(t *testing.T) {
	db := setupTestDB(t)
	ownerID := seedOwner(t, db)
	repo := NewPhotoRepository(db)

	commit := IngestCommit{
		Path:         "a.jpg",
		OwnerID:      ownerID,
		FileSize:     100,
		LastModified: 1700000000,
		Tags:         []string{"first"},
	}
	if _, err := repo.CommitIngest(commit); err != nil {
		t.Fatalf("First CommitIngest failed: %v", err)
	}

	commit.FileSize = 200
	commit.Tags = []string{"first", "second"}
	if _, err := repo.CommitIngest(commit); err != nil {
		t.Fatalf("Second CommitIngest failed: %v", err)
	}

	var count int64
	if err := db.Model(&models.Photo{}).Where("path = ?", "a.jpg").Count(&count).Error; err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("Expected 1 photo row, got %d", count)
	}

	loaded, err := repo.GetByPath("a.jpg")
	if err != nil {
		t.Fatalf("GetByPath failed: %v", err)
	}
	if loaded.FileSize != 200 {
		t.Errorf("FileSize = %d, want 200 after re-ingest", loaded.FileSize)
	}
	if len(loaded.Tags) != 2 {
		t.Errorf("Expected 2 tags after re-ingest, got %d", len(loaded.Tags))
	}
}

func TestCommitIngestMetadataOverwrites(t *testing.T) {
	db := setupTestDB(t)
	ownerID := seedOwner(t, db)
	repo := NewPhotoRepository(db)

	commit := IngestCommit{
		Path:           "b.jpg",
		OwnerID:        ownerID,
		MetadataFields: map[string]string{"Title": "Old"},
	}
	if _, err := repo.CommitIngest(commit); err != nil {
		t.Fatalf("First CommitIngest failed: %v", err)
	}

	commit.MetadataFields = map[string]string{"Title": "New"}
	if _, err := repo.CommitIngest(commit); err != nil {
		t.Fatalf("Second CommitIngest failed: %v", err)
	}

	loaded, err := repo.GetByPath("b.jpg")
	if err != nil {
		t.Fatalf("GetByPath failed: %v", err)
	}
	if len(loaded.MetadataValues) != 1 {
		t.Fatalf("Expected 1 metadata value, got %d", len(loaded.MetadataValues))
	}
	if loaded.MetadataValues[0].Value != "New" {
		t.Errorf("Value = %q, want %q", loaded.MetadataValues[0].Value, "New")
	}

	// field dictionary stays deduplicated
	var fieldCount int64
	if err := db.Model(&models.MetadataField{}).Where("name = ?", "Title").Count(&fieldCount).Error; err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if fieldCount != 1 {
		t.Errorf("Expected 1 Title field row, got %d", fieldCount)
	}
}

func TestCommitIngestDedupesTags(t *testing.T) {
	db := setupTestDB(t)
	ownerID := seedOwner(t, db)
	repo := NewPhotoRepository(db)

	if _, err := repo.CommitIngest(IngestCommit{
		Path:    "c.jpg",
		OwnerID: ownerID,
		Tags:    []string{"sunset", "sunset", "", "beach"},
	}); err != nil {
		t.Fatalf("CommitIngest failed: %v", err)
	}

	loaded, err := repo.GetByPath("c.jpg")
	if err != nil {
		t.Fatalf("GetByPath failed: %v", err)
	}
	values := make([]string, len(loaded.Tags))
	for i, tag := range loaded.Tags {
		values[i] = tag.Value
	}
	sort.Strings(values)
	want := []string{"beach", "sunset"}
	if len(values) != 2 || values[0] != want[0] || values[1] != want[1] {
		t.Errorf("Tags = %v, want %v", values, want)
	}
}

func TestCommitIngestSharesTagDictionary(t *testing.T) {
	db := setupTestDB(t)
	ownerID := seedOwner(t, db)
	repo := NewPhotoRepository(db)

	for _, path := range []string{"d1.jpg", "d2.jpg"} {
		if _, err := repo.CommitIngest(IngestCommit{
			Path:    path,
			OwnerID: ownerID,
			Tags:    []string{"shared"},
		}); err != nil {
			t.Fatalf("CommitIngest(%s) failed: %v", path, err)
		}
	}

	var tagCount int64
	if err := db.Model(&models.Tag{}).Where("value = ?", "shared").Count(&tagCount).Error; err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if tagCount != 1 {
		t.Errorf("Expected 1 tag dictionary row, got %d", tagCount)
	}
}

func TestCommitIngestKeepsThumbnailWhenNil(t *testing.T) {
	db := setupTestDB(t)
	ownerID := seedOwner(t, db)
	repo := NewPhotoRepository(db)

	commit := IngestCommit{
		Path:          "e.jpg",
		OwnerID:       ownerID,
		ThumbnailPath: strP("thumbnails/abc.jpg"),
	}
	if _, err := repo.CommitIngest(commit); err != nil {
		t.Fatalf("First CommitIngest failed: %v", err)
	}

	commit.ThumbnailPath = nil
	if _, err := repo.CommitIngest(commit); err != nil {
		t.Fatalf("Second CommitIngest failed: %v", err)
	}

	loaded, err := repo.GetByPath("e.jpg")
	if err != nil {
		t.Fatalf("GetByPath failed: %v", err)
	}
	if loaded.ThumbnailPath == nil || *loaded.ThumbnailPath != "thumbnails/abc.jpg" {
		t.Errorf("ThumbnailPath = %v, want earlier reference kept", loaded.ThumbnailPath)
	}
}

func TestCommitIngestReplacesExif(t *testing.T) {
	db := setupTestDB(t)
	ownerID := seedOwner(t, db)
	repo := NewPhotoRepository(db)

	commit := IngestCommit{
		Path:    "f.jpg",
		OwnerID: ownerID,
		Exif:    &media.ExifData{CameraMake: strP("Nikon")},
	}
	if _, err := repo.CommitIngest(commit); err != nil {
		t.Fatalf("First CommitIngest failed: %v", err)
	}

	// re-ingest without EXIF removes the record
	commit.Exif = nil
	if _, err := repo.CommitIngest(commit); err != nil {
		t.Fatalf("Second CommitIngest failed: %v", err)
	}

	loaded, err := repo.GetByPath("f.jpg")
	if err != nil {
		t.Fatalf("GetByPath failed: %v", err)
	}
	if loaded.Exif != nil {
		t.Errorf("Expected EXIF record removed, got %+v", loaded.Exif)
	}
}

func TestGetByPathNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPhotoRepository(db)

	if _, err := repo.GetByPath("missing.jpg"); err != gorm.ErrRecordNotFound {
		t.Errorf("Expected gorm.ErrRecordNotFound, got %v", err)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	cursors := NewCursorRepository(db)

	rev, err := cursors.Get()
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rev != "" {
		t.Errorf("Fresh cursor = %q, want empty", rev)
	}

	if err := cursors.Set("abc123"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := cursors.Set("def456"); err != nil {
		t.Fatalf("Second Set failed: %v", err)
	}

	rev, err = cursors.Get()
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rev != "def456" {
		t.Errorf("Cursor = %q, want def456", rev)
	}

	var count int64
	if err := db.Model(&models.RepoCursor{}).Count(&count).Error; err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected single cursor row, got %d", count)
	}
}
