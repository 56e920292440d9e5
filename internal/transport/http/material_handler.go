package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"campus-exam-service/internal/app"
	"campus-exam-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

const maxUploadBytes = 32 << 20

// MaterialHandler exposes study materials and news.
type MaterialHandler struct {
	materials *app.MaterialService
}

func NewMaterialHandler(materials *app.MaterialService) *MaterialHandler {
	return &MaterialHandler{materials: materials}
}

// Upload takes multipart form fields title, description, subject,
// external_link and an optional file.
func (h *MaterialHandler) Upload(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		badRequest(w, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	draft := domain.MaterialDraft{
		Title:        r.FormValue("title"),
		Description:  r.FormValue("description"),
		Subject:      r.FormValue("subject"),
		ExternalLink: r.FormValue("external_link"),
	}

	var upload *app.Upload
	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		upload = &app.Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Body:        file,
		}
	case errors.Is(err, http.ErrMissingFile):
	default:
		badRequest(w, "invalid file")
		return
	}

	material, err := h.materials.PublishMaterial(r.Context(), actor, draft, upload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, material)
}

func (h *MaterialHandler) List(w http.ResponseWriter, r *http.Request) {
	materials, err := h.materials.ListMaterials(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, materials)
}

func (h *MaterialHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	if err := h.materials.DeleteMaterial(r.Context(), actor, chi.URLParam(r, "materialID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MaterialHandler) PostNews(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	var draft domain.NewsDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		badRequest(w, "invalid news payload")
		return
	}
	news, err := h.materials.PostNews(r.Context(), actor, draft)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, news)
}

func (h *MaterialHandler) ListNews(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	news, err := h.materials.ListNews(r.Context(), actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, news)
}
