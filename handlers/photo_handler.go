package handlers

import (
	"net/http"

	"github.com/facette/natsort"

	"github.com/camden-git/photosyncbackend/models"
	"github.com/camden-git/photosyncbackend/repository"
)

// PhotoHandler exposes the indexed photo list for the admin UI
type PhotoHandler struct {
	PhotoRepo repository.PhotoRepositoryInterface
}

func NewPhotoHandler(photoRepo repository.PhotoRepositoryInterface) *PhotoHandler {
	return &PhotoHandler{PhotoRepo: photoRepo}
}

// ListPhotos returns every indexed photo in natural path order, so
// shoot_2.jpg sorts before shoot_10.jpg
func (h *PhotoHandler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	photos, err := h.PhotoRepo.ListAll()
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "list_failed", err.Error())
		return
	}

	paths := make([]string, len(photos))
	byPath := make(map[string]models.Photo, len(photos))
	for i, photo := range photos {
		paths[i] = photo.Path
		byPath[photo.Path] = photo
	}
	natsort.Sort(paths)

	sorted := make([]models.Photo, len(paths))
	for i, path := range paths {
		sorted[i] = byPath[path]
	}
	writeJSON(w, http.StatusOK, sorted)
}
