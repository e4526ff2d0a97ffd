package database

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/camden-git/photosyncbackend/models"
)

func setupLogDB(t *testing.T) *sql.DB {
	t.Helper()
	gormDB, err := InitGormDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to init test database: %v", err)
	}
	if err := Migrate(gormDB); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	entries := []models.ScriptExecutionLog{
		{ScriptID: 1, RanAt: 100, Success: true},
		{ScriptID: 1, RanAt: 200, Success: false},
		{ScriptID: 2, RanAt: 300, Success: true},
	}
	for i := range entries {
		if err := gormDB.Create(&entries[i]).Error; err != nil {
			t.Fatalf("Failed to seed log entry: %v", err)
		}
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	return sqlDB
}

func TestListExecutionLogsNewestFirst(t *testing.T) {
	db := setupLogDB(t)

	entries, err := ListExecutionLogs(db, ExecutionLogFilter{})
	if err != nil {
		t.Fatalf("ListExecutionLogs failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	if entries[0].RanAt != 300 || entries[2].RanAt != 100 {
		t.Errorf("Entries not newest first: %+v", entries)
	}
}

func TestListExecutionLogsFilters(t *testing.T) {
	db := setupLogDB(t)

	byScript, err := ListExecutionLogs(db, ExecutionLogFilter{ScriptID: 1})
	if err != nil {
		t.Fatalf("ListExecutionLogs failed: %v", err)
	}
	if len(byScript) != 2 {
		t.Errorf("ScriptID filter returned %d entries, want 2", len(byScript))
	}

	failures, err := ListExecutionLogs(db, ExecutionLogFilter{OnlyError: true})
	if err != nil {
		t.Fatalf("ListExecutionLogs failed: %v", err)
	}
	if len(failures) != 1 || failures[0].Success {
		t.Errorf("OnlyError filter returned %+v", failures)
	}

	limited, err := ListExecutionLogs(db, ExecutionLogFilter{Limit: 1})
	if err != nil {
		t.Fatalf("ListExecutionLogs failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("Limit filter returned %d entries, want 1", len(limited))
	}
}

func TestGetExecutionLogStats(t *testing.T) {
	db := setupLogDB(t)

	stats, err := GetExecutionLogStats(db, 1)
	if err != nil {
		t.Fatalf("GetExecutionLogStats failed: %v", err)
	}
	if stats.Total != 2 {
		t.Errorf("Total = %d, want 2", stats.Total)
	}
	if stats.Failures != 1 {
		t.Errorf("Failures = %d, want 1", stats.Failures)
	}
	if stats.LastRanAt == nil || *stats.LastRanAt != 200 {
		t.Errorf("LastRanAt = %v, want 200", stats.LastRanAt)
	}
}

func TestGetExecutionLogStatsEmpty(t *testing.T) {
	db := setupLogDB(t)

	stats, err := GetExecutionLogStats(db, 99)
	if err != nil {
		t.Fatalf("GetExecutionLogStats failed: %v", err)
	}
	if stats.Total != 0 || stats.Failures != 0 {
		t.Errorf("Expected zero counts for unknown script, got %+v", stats)
	}
	if stats.LastRanAt != nil {
		t.Errorf("LastRanAt = %v, want nil", stats.LastRanAt)
	}
}
