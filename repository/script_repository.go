package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/camden-git/photosyncbackend/models"
)

// ScriptRepository handles database operations for Script entities and their
// execution audit log
type ScriptRepository struct {
	DB *gorm.DB
}

// NewScriptRepository creates a new instance of ScriptRepository
func NewScriptRepository(db *gorm.DB) *ScriptRepository {
	return &ScriptRepository{DB: db}
}

func (r *ScriptRepository) Create(script *models.Script) error {
	if err := r.DB.Create(script).Error; err != nil {
		return fmt.Errorf("failed to create script %q: %w", script.Name, err)
	}
	return nil
}

func (r *ScriptRepository) GetByID(id uint) (*models.Script, error) {
	var script models.Script
	err := r.DB.First(&script, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get script %d: %w", id, err)
	}
	return &script, nil
}

func (r *ScriptRepository) GetByName(name string) (*models.Script, error) {
	var script models.Script
	err := r.DB.Where("name = ?", name).First(&script).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get script %q: %w", name, err)
	}
	return &script, nil
}

func (r *ScriptRepository) ListAll() ([]models.Script, error) {
	var scripts []models.Script
	if err := r.DB.Order("name").Find(&scripts).Error; err != nil {
		return nil, fmt.Errorf("failed to list scripts: %w", err)
	}
	return scripts, nil
}

func (r *ScriptRepository) Update(script *models.Script) error {
	if err := r.DB.Save(script).Error; err != nil {
		return fmt.Errorf("failed to update script %q: %w", script.Name, err)
	}
	return nil
}

func (r *ScriptRepository) Delete(id uint) error {
	result := r.DB.Delete(&models.Script{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete script %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AppendExecutionLog writes one audit row. the log is append-only: nothing in
// this codebase updates or deletes entries
func (r *ScriptRepository) AppendExecutionLog(entry *models.ScriptExecutionLog) error {
	if err := r.DB.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append execution log for script %d: %w", entry.ScriptID, err)
	}
	return nil
}
