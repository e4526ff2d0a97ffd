package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/camden-git/photosyncbackend/models"
)

// cursorRowID pins the repo_cursor table to a single row
const cursorRowID = 1

// CursorRepository persists the last fully processed repository revision
type CursorRepository struct {
	DB *gorm.DB
}

// NewCursorRepository creates a new instance of CursorRepository
func NewCursorRepository(db *gorm.DB) *CursorRepository {
	return &CursorRepository{DB: db}
}

// Get returns the stored revision, or an empty string when the repository has
// never been polled
func (r *CursorRepository) Get() (string, error) {
	var cursor models.RepoCursor
	err := r.DB.First(&cursor, cursorRowID).Error
	if err == gorm.ErrRecordNotFound {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load repository cursor: %w", err)
	}
	return cursor.Revision, nil
}

// Set upserts the cursor row. called by the polling loop only, after a
// cycle's full file set has been dispatched
func (r *CursorRepository) Set(revision string) error {
	cursor := models.RepoCursor{ID: cursorRowID}
	err := r.DB.Where(cursor).Assign(models.RepoCursor{Revision: revision}).FirstOrCreate(&cursor).Error
	if err != nil {
		return fmt.Errorf("failed to persist repository cursor: %w", err)
	}
	return nil
}
