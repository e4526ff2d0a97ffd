package database

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// ExecutionLogEntry mirrors a script_execution_logs row for the read-only
// admin surface
type ExecutionLogEntry struct {
	ID        int64
	ScriptID  int64
	PhotoID   *int64
	RanAt     int64
	Success   bool
	Output    *string
	ErrorText *string
}

// ExecutionLogFilter narrows ListExecutionLogs. zero values mean "no filter"
type ExecutionLogFilter struct {
	ScriptID  int64
	PhotoID   int64
	OnlyError bool
	Limit     uint64
}

// ListExecutionLogs returns execution log rows, newest first
func ListExecutionLogs(db *sql.DB, filter ExecutionLogFilter) ([]ExecutionLogEntry, error) {
	queryBuilder := psql.Select("id", "script_id", "photo_id", "ran_at", "success", "output", "error_text").
		From("script_execution_logs").
		OrderBy("ran_at DESC", "id DESC")

	if filter.ScriptID > 0 {
		queryBuilder = queryBuilder.Where(sq.Eq{"script_id": filter.ScriptID})
	}
	if filter.PhotoID > 0 {
		queryBuilder = queryBuilder.Where(sq.Eq{"photo_id": filter.PhotoID})
	}
	if filter.OnlyError {
		queryBuilder = queryBuilder.Where(sq.Eq{"success": false})
	}
	if filter.Limit > 0 {
		queryBuilder = queryBuilder.Limit(filter.Limit)
	}

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query for ListExecutionLogs: %w", err)
	}

	rows, err := db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query execution logs: %w", err)
	}
	defer rows.Close()

	var entries []ExecutionLogEntry
	for rows.Next() {
		var e ExecutionLogEntry
		if err := rows.Scan(&e.ID, &e.ScriptID, &e.PhotoID, &e.RanAt, &e.Success, &e.Output, &e.ErrorText); err != nil {
			return nil, fmt.Errorf("failed to scan execution log row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ExecutionLogStats summarizes outcomes for one script
type ExecutionLogStats struct {
	ScriptID  int64
	Total     int64
	Failures  int64
	LastRanAt *int64
}

// GetExecutionLogStats aggregates success/failure counts for a script
func GetExecutionLogStats(db *sql.DB, scriptID int64) (ExecutionLogStats, error) {
	queryBuilder := psql.Select(
		"COUNT(*)",
		"COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0)",
		"MAX(ran_at)",
	).
		From("script_execution_logs").
		Where(sq.Eq{"script_id": scriptID})

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return ExecutionLogStats{}, fmt.Errorf("failed to build SQL query for GetExecutionLogStats: %w", err)
	}

	stats := ExecutionLogStats{ScriptID: scriptID}
	err = db.QueryRow(sqlStr, args...).Scan(&stats.Total, &stats.Failures, &stats.LastRanAt)
	if err != nil {
		return ExecutionLogStats{}, fmt.Errorf("failed to query execution log stats for script %d: %w", scriptID, err)
	}
	return stats, nil
}
