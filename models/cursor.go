package models

// RepoCursor is the single persisted marker of the last fully processed
// revision in the source repository. only the polling loop writes it, and
// only after a cycle's file set has been fully dispatched
type RepoCursor struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	Revision  string `json:"revision" gorm:"not null"`
	UpdatedAt int64  `json:"updated_at" gorm:"autoUpdateTime"`
}

func (RepoCursor) TableName() string {
	return "repo_cursor"
}
