package models

// Photo represents an indexed image from the source repository.
// It corresponds to the 'photos' table. Path is the repository-relative
// path and is the natural key for the upsert-on-reingest contract.
type Photo struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Path string `json:"path" gorm:"uniqueIndex;not null"` // path relative to the repository root

	OwnerID uint  `json:"owner_id" gorm:"not null;index"`
	Owner   *User `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`

	FileSize     int64 `json:"file_size" gorm:"not null"`
	LastModified int64 `json:"last_modified" gorm:"not null"` // Unix timestamp of the indexed content

	Width  *int `json:"width,omitempty"`  // Nullable
	Height *int `json:"height,omitempty"` // Nullable

	IsPublic      bool    `json:"is_public" gorm:"not null;default:false"`
	ThumbnailPath *string `json:"thumbnail_path,omitempty"` // Nullable

	CreatedAt int64 `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt int64 `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Exif           *ExifRecord          `json:"exif,omitempty" gorm:"foreignKey:PhotoID;constraint:OnDelete:CASCADE"`
	MetadataValues []PhotoMetadataValue `json:"metadata_values,omitempty" gorm:"foreignKey:PhotoID;constraint:OnDelete:CASCADE"`
	Tags           []Tag                `json:"tags,omitempty" gorm:"many2many:photo_tags;"`
}

// TableName explicitly sets the table name for GORM.
func (Photo) TableName() string {
	return "photos"
}

// ExifRecord holds camera and exposure data for a photo. one-to-one with
// Photo and cascade-deleted with it; absence of a row is valid and distinct
// from a zero-valued record
type ExifRecord struct {
	ID      uint `json:"id" gorm:"primaryKey"`
	PhotoID uint `json:"photo_id" gorm:"uniqueIndex;not null"`

	CameraMake   *string  `json:"camera_make,omitempty"`   // Nullable
	CameraModel  *string  `json:"camera_model,omitempty"`  // Nullable
	LensMake     *string  `json:"lens_make,omitempty"`     // Nullable
	LensModel    *string  `json:"lens_model,omitempty"`    // Nullable
	FocalLength  *float64 `json:"focal_length,omitempty"`  // Nullable, mm
	Aperture     *float64 `json:"aperture,omitempty"`      // Nullable, F-number
	ShutterSpeed *string  `json:"shutter_speed,omitempty"` // Nullable, e.g., "1/125"
	ISO          *int     `json:"iso,omitempty"`           // Nullable
	GPSLatitude  *float64 `json:"gps_latitude,omitempty"`  // Nullable, signed decimal degrees
	GPSLongitude *float64 `json:"gps_longitude,omitempty"` // Nullable, signed decimal degrees
	TakenAt      *int64   `json:"taken_at,omitempty"`      // Nullable, Unix timestamp
}

func (ExifRecord) TableName() string {
	return "exif_records"
}
