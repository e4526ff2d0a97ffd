package models

// MetadataField is the dictionary of sidecar field names. names are globally
// deduplicated with case-sensitive exact matching
type MetadataField struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;not null"`
}

func (MetadataField) TableName() string {
	return "metadata_fields"
}

// PhotoMetadataValue is one free-text value per (photo, field) pair.
// re-ingestion overwrites, never appends
type PhotoMetadataValue struct {
	ID      uint `json:"id" gorm:"primaryKey"`
	PhotoID uint `json:"photo_id" gorm:"not null;index:idx_photo_field,unique"`
	FieldID uint `json:"field_id" gorm:"not null;index:idx_photo_field,unique"`

	Field *MetadataField `json:"field,omitempty" gorm:"foreignKey:FieldID"`
	Value string         `json:"value" gorm:"not null"`
}

func (PhotoMetadataValue) TableName() string {
	return "photo_metadata_values"
}
