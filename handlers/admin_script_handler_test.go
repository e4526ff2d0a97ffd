package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/camden-git/photosyncbackend/models"
)

type memScriptRepo struct {
	scripts map[uint]*models.Script
	nextID  uint
	logs    []models.ScriptExecutionLog
}

func newMemScriptRepo() *memScriptRepo {
	return &memScriptRepo{scripts: map[uint]*models.Script{}, nextID: 1}
}

func (m *memScriptRepo) Create(script *models.Script) error {
	for _, existing := range m.scripts {
		if existing.Name == script.Name {
			return errors.New("UNIQUE constraint failed: scripts.name")
		}
	}
	script.ID = m.nextID
	m.nextID++
	copied := *script
	m.scripts[script.ID] = &copied
	return nil
}

func (m *memScriptRepo) GetByID(id uint) (*models.Script, error) {
	script, ok := m.scripts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *script
	return &copied, nil
}

func (m *memScriptRepo) GetByName(name string) (*models.Script, error) {
	for _, script := range m.scripts {
		if script.Name == name {
			copied := *script
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memScriptRepo) ListAll() ([]models.Script, error) {
	out := make([]models.Script, 0, len(m.scripts))
	for _, script := range m.scripts {
		out = append(out, *script)
	}
	return out, nil
}

func (m *memScriptRepo) Update(script *models.Script) error {
	if _, ok := m.scripts[script.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *script
	m.scripts[script.ID] = &copied
	return nil
}

func (m *memScriptRepo) Delete(id uint) error {
	if _, ok := m.scripts[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.scripts, id)
	return nil
}

func (m *memScriptRepo) AppendExecutionLog(entry *models.ScriptExecutionLog) error {
	m.logs = append(m.logs, *entry)
	return nil
}

type countingReloader struct {
	calls int
	err   error
}

func (c *countingReloader) Reload() error {
	c.calls++
	return c.err
}

func newScriptTestServer(repo *memScriptRepo, reloader *countingReloader) *chi.Mux {
	handler := NewAdminScriptHandler(repo, reloader)
	r := chi.NewRouter()
	r.Route("/api/scripts", func(r chi.Router) {
		r.Post("/", handler.CreateScript)
		r.Get("/", handler.ListScripts)
		r.Post("/reload", handler.ReloadScripts)
		r.Route("/{script_id}", func(r chi.Router) {
			r.Get("/", handler.GetScript)
			r.Put("/", handler.UpdateScript)
			r.Delete("/", handler.DeleteScript)
		})
	})
	return r
}

func TestCreateScriptTriggersReload(t *testing.T) {
	repo := newMemScriptRepo()
	reloader := &countingReloader{}
	server := newScriptTestServer(repo, reloader)

	body := `{"name": "png-hook", "file_extension": ".png", "contents": "exit 0"}`
	req := httptest.NewRequest(http.MethodPost, "/api/scripts/", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if reloader.calls != 1 {
		t.Errorf("Reload calls = %d, want 1", reloader.calls)
	}

	var created models.Script
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("Response not decodable: %v", err)
	}
	if created.ID == 0 || created.Name != "png-hook" {
		t.Errorf("Created script = %+v", created)
	}
}

func TestCreateScriptRejectsBothTriggers(t *testing.T) {
	server := newScriptTestServer(newMemScriptRepo(), &countingReloader{})

	body := `{"name": "confused", "run_at_time": "03:00", "interval_minutes": 15, "contents": "exit 0"}`
	req := httptest.NewRequest(http.MethodPost, "/api/scripts/", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Status = %d, want 422", rec.Code)
	}
}

func TestCreateScriptRejectsMissingFields(t *testing.T) {
	server := newScriptTestServer(newMemScriptRepo(), &countingReloader{})

	for _, body := range []string{
		`{"contents": "exit 0"}`,
		`{"name": "empty-body"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/scripts/", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("Status for %s = %d, want 422", body, rec.Code)
		}
	}
}

func TestCreateScriptDuplicateNameConflicts(t *testing.T) {
	repo := newMemScriptRepo()
	server := newScriptTestServer(repo, &countingReloader{})

	body := `{"name": "dup", "contents": "exit 0"}`
	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		req := httptest.NewRequest(http.MethodPost, "/api/scripts/", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("Request %d status = %d, want %d", i+1, rec.Code, want)
		}
	}
}

func TestUpdateScriptRejectsCombinedTriggers(t *testing.T) {
	repo := newMemScriptRepo()
	at := "03:00"
	if err := repo.Create(&models.Script{Name: "nightly", RunAtTime: &at, Contents: "exit 0"}); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	server := newScriptTestServer(repo, &countingReloader{})

	req := httptest.NewRequest(http.MethodPut, "/api/scripts/1", bytes.NewBufferString(`{"interval_minutes": 30}`))
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Status = %d, want 422 when update combines both triggers", rec.Code)
	}
}

func TestDeleteScript(t *testing.T) {
	repo := newMemScriptRepo()
	if err := repo.Create(&models.Script{Name: "victim", Contents: "exit 0"}); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	reloader := &countingReloader{}
	server := newScriptTestServer(repo, reloader)

	req := httptest.NewRequest(http.MethodDelete, "/api/scripts/1", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("Status = %d, want 204", rec.Code)
	}
	if reloader.calls != 1 {
		t.Errorf("Reload calls = %d, want 1", reloader.calls)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/scripts/1", nil)
	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Second delete status = %d, want 404", rec.Code)
	}
}

func TestGetScriptInvalidID(t *testing.T) {
	server := newScriptTestServer(newMemScriptRepo(), &countingReloader{})

	req := httptest.NewRequest(http.MethodGet, "/api/scripts/not-a-number", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", rec.Code)
	}
}

func TestReloadEndpoint(t *testing.T) {
	reloader := &countingReloader{}
	server := newScriptTestServer(newMemScriptRepo(), reloader)

	req := httptest.NewRequest(http.MethodPost, "/api/scripts/reload", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}
	if reloader.calls != 1 {
		t.Errorf("Reload calls = %d, want 1", reloader.calls)
	}

	reloader.err = errors.New("load failed")
	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scripts/reload", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want 500 when reload fails", rec.Code)
	}
}
