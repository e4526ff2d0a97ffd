package repository

import (
	"github.com/camden-git/photosyncbackend/media"
	"github.com/camden-git/photosyncbackend/models"
)

// IngestCommit is the aggregated result of one file's pipeline run, persisted
// as a single atomic transaction
type IngestCommit struct {
	Path         string // repository-relative
	OwnerID      uint
	FileSize     int64
	LastModified int64
	Width        *int
	Height       *int

	// ThumbnailPath is nil when generation failed; an existing reference from
	// an earlier ingestion is then left untouched
	ThumbnailPath *string

	// Exif is nil when the file had no usable EXIF block; the photo's record
	// is removed in that case
	Exif *media.ExifData

	MetadataFields map[string]string
	Tags           []string // union of sidecar and AI tags, deduplicated by the repository
}

// PhotoRepositoryInterface defines the methods for photo data operations
type PhotoRepositoryInterface interface {
	CommitIngest(commit IngestCommit) (*models.Photo, error)
	GetByPath(path string) (*models.Photo, error)
	ListAll() ([]models.Photo, error)
}

// ScriptRepositoryInterface defines the methods for script data operations.
// AppendExecutionLog is append-only; audit rows are never updated or deleted
type ScriptRepositoryInterface interface {
	Create(script *models.Script) error
	GetByID(id uint) (*models.Script, error)
	GetByName(name string) (*models.Script, error)
	ListAll() ([]models.Script, error)
	Update(script *models.Script) error
	Delete(id uint) error
	AppendExecutionLog(entry *models.ScriptExecutionLog) error
}

// UserRepositoryInterface defines the methods for user data operations
type UserRepositoryInterface interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
}

// CursorRepositoryInterface persists the last fully processed revision. Get
// returns an empty revision when the repository has never been polled
type CursorRepositoryInterface interface {
	Get() (string, error)
	Set(revision string) error
}
