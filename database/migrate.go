package database

import (
	"fmt"
	"log"

	gormigrate "github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/camden-git/photosyncbackend/models"
)

var migrations = []*gormigrate.Migration{
	// initial schema: users, photos and enrichment tables
	{
		ID: "202506010000",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(
				&models.User{},
				&models.Photo{},
				&models.ExifRecord{},
				&models.MetadataField{},
				&models.PhotoMetadataValue{},
				&models.Tag{},
				&models.PhotoTag{},
			)
		},
		Rollback: func(tx *gorm.DB) (err error) {
			for _, table := range []string{
				"photo_tags", "tags", "photo_metadata_values", "metadata_fields",
				"exif_records", "photos", "users",
			} {
				if err = tx.Migrator().DropTable(table); err != nil {
					return
				}
			}
			return nil
		},
	},
	// script engine: definitions, execution audit log, repository cursor
	{
		ID: "202506140000",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(
				&models.Script{},
				&models.ScriptExecutionLog{},
				&models.RepoCursor{},
			)
		},
		Rollback: func(tx *gorm.DB) (err error) {
			for _, table := range []string{"repo_cursor", "script_execution_logs", "scripts"} {
				if err = tx.Migrator().DropTable(table); err != nil {
					return
				}
			}
			return nil
		},
	},
}

// Migrate applies all pending schema migrations
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, migrations)
	if err := m.Migrate(); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}
	log.Println("database schema migrations completed successfully")
	return nil
}
