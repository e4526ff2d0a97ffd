package handlers

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/camden-git/photosyncbackend/database"
)

// ExecutionLogHandler exposes the append-only script execution audit log.
// the admin UI reads failures from here; there is no other error channel
type ExecutionLogHandler struct {
	DB *sql.DB
}

func NewExecutionLogHandler(db *sql.DB) *ExecutionLogHandler {
	return &ExecutionLogHandler{DB: db}
}

// ListLogs returns execution log entries, newest first.
// Query params: script_id, photo_id, only_errors, limit
func (h *ExecutionLogHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	filter := database.ExecutionLogFilter{Limit: 100}

	if raw := r.URL.Query().Get("script_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			WriteAPIError(w, http.StatusBadRequest, "invalid_filter", "script_id must be an integer")
			return
		}
		filter.ScriptID = id
	}
	if raw := r.URL.Query().Get("photo_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			WriteAPIError(w, http.StatusBadRequest, "invalid_filter", "photo_id must be an integer")
			return
		}
		filter.PhotoID = id
	}
	if r.URL.Query().Get("only_errors") == "true" {
		filter.OnlyError = true
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			WriteAPIError(w, http.StatusBadRequest, "invalid_filter", "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}

	entries, err := database.ListExecutionLogs(h.DB, filter)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "list_failed", err.Error())
		return
	}
	if entries == nil {
		entries = []database.ExecutionLogEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// GetStats aggregates outcome counts for one script
func (h *ExecutionLogHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("script_id")
	scriptID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || scriptID <= 0 {
		WriteAPIError(w, http.StatusBadRequest, "invalid_filter", "script_id must be a positive integer")
		return
	}

	stats, err := database.GetExecutionLogStats(h.DB, scriptID)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "stats_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
