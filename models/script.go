package models

import "time"

// Script is an admin-owned custom processing script. exactly one of the
// trigger fields is expected to be set: FileExtension routes it into the
// ingestion pipeline, RunAtTime schedules it daily, IntervalMinutes schedules
// it on a fixed period. the router treats RunAtTime and IntervalMinutes as
// mutually exclusive and prefers RunAtTime when both are present
type Script struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;not null"`

	FileExtension   *string `json:"file_extension,omitempty"`   // Nullable, e.g., ".png"
	RunAtTime       *string `json:"run_at_time,omitempty"`      // Nullable, local time "15:04"
	IntervalMinutes *int    `json:"interval_minutes,omitempty"` // Nullable

	Contents string `json:"contents" gorm:"not null"` // script body, materialized to disk for execution

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Script) TableName() string {
	return "scripts"
}

// ScriptExecutionLog is an append-only audit row per script invocation.
// never updated or deleted by the pipeline or the router
type ScriptExecutionLog struct {
	ID       uint  `json:"id" gorm:"primaryKey"`
	ScriptID uint  `json:"script_id" gorm:"not null;index"`
	PhotoID  *uint `json:"photo_id,omitempty" gorm:"index"` // Nullable; set for extension-routed runs

	RanAt     int64   `json:"ran_at" gorm:"not null;index"`
	Success   bool    `json:"success" gorm:"not null"`
	Output    *string `json:"output,omitempty"`     // Nullable, captured stdout
	ErrorText *string `json:"error_text,omitempty"` // Nullable
}

func (ScriptExecutionLog) TableName() string {
	return "script_execution_logs"
}
