package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MezriHC/Better-Ads-sub000/internal/domain"
	"github.com/MezriHC/Better-Ads-sub000/internal/upload"
)

// TaskGet returns one audited generation task. Operator endpoint over the
// audit trail; without a database every task is unknown.
func (a *App) TaskGet(w http.ResponseWriter, r *http.Request) {
	if a.Audit == nil {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	task, err := a.Audit.GetByID(r.Context(), chi.URLParam(r, "task_id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"task": viewTask(task)})
}

// AssetGet streams a stored upload with its content type.
func (a *App) AssetGet(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	data, err := a.Files.Read(r.Context(), key)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "asset not found")
		return
	}
	w.Header().Set("Content-Type", upload.ContentType(key))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(data)
}
