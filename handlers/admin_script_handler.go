package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/camden-git/photosyncbackend/models"
	"github.com/camden-git/photosyncbackend/repository"
)

// Reloader is the router's hot-reload surface. script mutations trigger it so
// the in-memory routing table tracks the table admins edit
type Reloader interface {
	Reload() error
}

type AdminScriptHandler struct {
	ScriptRepo repository.ScriptRepositoryInterface
	Router     Reloader
}

func NewAdminScriptHandler(scriptRepo repository.ScriptRepositoryInterface, router Reloader) *AdminScriptHandler {
	return &AdminScriptHandler{ScriptRepo: scriptRepo, Router: router}
}

// --- DTOs for Script Management ---

type ScriptCreatePayload struct {
	Name            string  `json:"name"`
	FileExtension   *string `json:"file_extension,omitempty"`
	RunAtTime       *string `json:"run_at_time,omitempty"`
	IntervalMinutes *int    `json:"interval_minutes,omitempty"`
	Contents        string  `json:"contents"`
}

type ScriptUpdatePayload struct {
	Name            *string `json:"name,omitempty"`
	FileExtension   *string `json:"file_extension,omitempty"`
	RunAtTime       *string `json:"run_at_time,omitempty"`
	IntervalMinutes *int    `json:"interval_minutes,omitempty"`
	Contents        *string `json:"contents,omitempty"`
}

func (p ScriptCreatePayload) validate() error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Contents == "" {
		return fmt.Errorf("contents is required")
	}
	if p.RunAtTime != nil && p.IntervalMinutes != nil {
		return fmt.Errorf("run_at_time and interval_minutes are mutually exclusive")
	}
	return nil
}

func (h *AdminScriptHandler) CreateScript(w http.ResponseWriter, r *http.Request) {
	var payload ScriptCreatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "could not decode request body")
		return
	}
	if err := payload.validate(); err != nil {
		WriteAPIError(w, http.StatusUnprocessableEntity, "validation_failed", err.Error())
		return
	}

	script := models.Script{
		Name:            payload.Name,
		FileExtension:   payload.FileExtension,
		RunAtTime:       payload.RunAtTime,
		IntervalMinutes: payload.IntervalMinutes,
		Contents:        payload.Contents,
	}
	if err := h.ScriptRepo.Create(&script); err != nil {
		WriteAPIError(w, http.StatusConflict, "create_failed", err.Error())
		return
	}

	h.reload()
	writeJSON(w, http.StatusCreated, script)
}

func (h *AdminScriptHandler) ListScripts(w http.ResponseWriter, r *http.Request) {
	scripts, err := h.ScriptRepo.ListAll()
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "list_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, scripts)
}

func (h *AdminScriptHandler) GetScript(w http.ResponseWriter, r *http.Request) {
	script, ok := h.loadScript(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, script)
}

func (h *AdminScriptHandler) UpdateScript(w http.ResponseWriter, r *http.Request) {
	script, ok := h.loadScript(w, r)
	if !ok {
		return
	}

	var payload ScriptUpdatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "could not decode request body")
		return
	}

	if payload.Name != nil {
		script.Name = *payload.Name
	}
	if payload.FileExtension != nil {
		script.FileExtension = payload.FileExtension
	}
	if payload.RunAtTime != nil {
		script.RunAtTime = payload.RunAtTime
	}
	if payload.IntervalMinutes != nil {
		script.IntervalMinutes = payload.IntervalMinutes
	}
	if payload.Contents != nil {
		script.Contents = *payload.Contents
	}
	if script.RunAtTime != nil && script.IntervalMinutes != nil {
		WriteAPIError(w, http.StatusUnprocessableEntity, "validation_failed", "run_at_time and interval_minutes are mutually exclusive")
		return
	}

	if err := h.ScriptRepo.Update(script); err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "update_failed", err.Error())
		return
	}

	h.reload()
	writeJSON(w, http.StatusOK, script)
}

func (h *AdminScriptHandler) DeleteScript(w http.ResponseWriter, r *http.Request) {
	id, err := scriptIDParam(r)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "script id must be an integer")
		return
	}

	if err := h.ScriptRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "script not found")
			return
		}
		WriteAPIError(w, http.StatusInternalServerError, "delete_failed", err.Error())
		return
	}

	h.reload()
	w.WriteHeader(http.StatusNoContent)
}

// ReloadScripts is the explicit "configuration changed" signal endpoint
func (h *AdminScriptHandler) ReloadScripts(w http.ResponseWriter, r *http.Request) {
	if err := h.Router.Reload(); err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "reload_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

func (h *AdminScriptHandler) loadScript(w http.ResponseWriter, r *http.Request) (*models.Script, bool) {
	id, err := scriptIDParam(r)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "script id must be an integer")
		return nil, false
	}

	script, err := h.ScriptRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "script not found")
			return nil, false
		}
		WriteAPIError(w, http.StatusInternalServerError, "lookup_failed", err.Error())
		return nil, false
	}
	return script, true
}

func (h *AdminScriptHandler) reload() {
	if err := h.Router.Reload(); err != nil {
		log.Printf("handlers: ERROR reloading script router after mutation: %v", err)
	}
}

func scriptIDParam(r *http.Request) (uint, error) {
	raw := chi.URLParam(r, "script_id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
