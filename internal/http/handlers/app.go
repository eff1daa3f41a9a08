package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/MezriHC/Better-Ads-sub000/internal/domain"
	"github.com/MezriHC/Better-Ads-sub000/internal/middleware"
	"github.com/MezriHC/Better-Ads-sub000/internal/storage"
	"github.com/MezriHC/Better-Ads-sub000/internal/upload"
	"github.com/MezriHC/Better-Ads-sub000/internal/wizard"
)

// TaskFinder reads the generation-task audit trail.
type TaskFinder interface {
	GetByID(ctx context.Context, taskID string) (*domain.GenerationTask, error)
}

// App bundles the handler dependencies. Audit and Files are optional: without
// a database the task endpoint reports not found, and without a store the
// asset route is not mounted.
type App struct {
	Log      zerolog.Logger
	Sessions *wizard.Manager
	Uploads  *upload.Service
	Audit    TaskFinder
	Files    *storage.FileStore
}

// NewApp builds the handler set.
func NewApp(log zerolog.Logger, sessions *wizard.Manager, uploads *upload.Service, audit TaskFinder, files *storage.FileStore) *App {
	return &App{Log: log, Sessions: sessions, Uploads: uploads, Audit: audit, Files: files}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]any{
		"error":   errCode,
		"message": message,
	})
}

// fail maps domain errors to HTTP responses, localizing gate reasons.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	locale := middleware.LocaleFromContext(r.Context())

	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		a.error(w, http.StatusUnprocessableEntity, validation.Code, wizard.ReasonText(validation.Code, locale))
		return
	}
	var submission *domain.SubmissionError
	if errors.As(err, &submission) {
		a.error(w, http.StatusBadRequest, "submission_rejected", submission.Error())
		return
	}
	var uploadErr *domain.UploadError
	if errors.As(err, &uploadErr) {
		a.error(w, http.StatusBadRequest, "upload_failed", uploadErr.Error())
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, domain.ErrInvalidTransition):
		a.error(w, http.StatusConflict, "invalid_transition", "operation not permitted in the current stage")
	case errors.Is(err, domain.ErrTaskInFlight):
		a.error(w, http.StatusConflict, "task_in_flight", "a generation task is already in flight")
	case errors.Is(err, domain.ErrTaskNotRetryable):
		a.error(w, http.StatusConflict, "not_retryable", "only a failed task can be retried")
	default:
		a.Log.Error().Err(err).Str("path", r.URL.Path).Msg("handlers: internal error")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
