package models

// Tag is the dictionary of tag values, deduplicated globally. photos link to
// tags through the photo_tags join table with a unique (photo, tag) pair
type Tag struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	Value string `json:"value" gorm:"uniqueIndex;not null"`
}

func (Tag) TableName() string {
	return "tags"
}

// PhotoTag is the explicit join model so the unique constraint on
// (photo_id, tag_id) is owned by the schema rather than application code
type PhotoTag struct {
	PhotoID uint `json:"photo_id" gorm:"primaryKey"`
	TagID   uint `json:"tag_id" gorm:"primaryKey"`
}

func (PhotoTag) TableName() string {
	return "photo_tags"
}
