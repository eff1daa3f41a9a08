package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MezriHC/Better-Ads-sub000/internal/domain"
	"github.com/MezriHC/Better-Ads-sub000/internal/wizard"
)

type assetView struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Kind   string `json:"kind"`
	Origin string `json:"origin"`
}

type candidateView struct {
	assetView
	Selected bool `json:"selected"`
}

type roundView struct {
	ID                string          `json:"id"`
	PromptText        string          `json:"prompt_text"`
	ReferenceAssetURL string          `json:"reference_asset_url,omitempty"`
	Phase             string          `json:"phase"`
	ErrorMessage      string          `json:"error_message,omitempty"`
	Candidates        []candidateView `json:"candidates"`
	CreatedAt         time.Time       `json:"created_at"`
}

type taskView struct {
	ID             string `json:"id"`
	Kind           string `json:"kind"`
	Status         string `json:"status"`
	ResultAssetURL string `json:"result_asset_url,omitempty"`
	ErrorMessage   string `json:"error_message,omitempty"`
}

type sessionView struct {
	ID             string        `json:"id"`
	Stage          string        `json:"stage"`
	Method         string        `json:"method,omitempty"`
	Prompt         string        `json:"prompt,omitempty"`
	SelectedAsset  *assetView    `json:"selected_asset,omitempty"`
	UploadedAsset  *assetView    `json:"uploaded_asset,omitempty"`
	Voice          *domain.Voice `json:"voice,omitempty"`
	Task           *taskView     `json:"task,omitempty"`
	Launched       bool          `json:"launched"`
	UploadResolved bool          `json:"upload_resolved"`
}

func viewAsset(a *domain.Asset) *assetView {
	if a == nil {
		return nil
	}
	return &assetView{ID: a.ID, URL: a.URL, Kind: string(a.Kind), Origin: string(a.Origin)}
}

func viewTask(t *domain.GenerationTask) *taskView {
	if t == nil {
		return nil
	}
	return &taskView{
		ID:             t.ID,
		Kind:           string(t.Kind),
		Status:         string(t.Status),
		ResultAssetURL: t.ResultAssetURL,
		ErrorMessage:   t.ErrorMessage,
	}
}

func viewSession(snap wizard.Snapshot) sessionView {
	return sessionView{
		ID:             snap.ID,
		Stage:          string(snap.Stage),
		Method:         string(snap.Method),
		Prompt:         snap.Prompt,
		SelectedAsset:  viewAsset(snap.SelectedAsset),
		UploadedAsset:  viewAsset(snap.UploadedAsset),
		Voice:          snap.Voice,
		Task:           viewTask(snap.Task),
		Launched:       snap.Launched,
		UploadResolved: snap.UploadResolved,
	}
}

func viewRound(r *wizard.ChatRound) roundView {
	view := roundView{
		ID:                r.ID,
		PromptText:        r.PromptText,
		ReferenceAssetURL: r.ReferenceAssetURL,
		Phase:             string(r.Phase),
		ErrorMessage:      r.ErrorMessage,
		Candidates:        make([]candidateView, len(r.Candidates)),
		CreatedAt:         r.CreatedAt,
	}
	for i, c := range r.Candidates {
		view.Candidates[i] = candidateView{assetView: *viewAsset(&c.Asset), Selected: c.Selected}
	}
	return view
}

// SessionCreate opens a new wizard session.
func (a *App) SessionCreate(w http.ResponseWriter, r *http.Request) {
	session := a.Sessions.Create()
	a.json(w, http.StatusCreated, viewSession(session.Snapshot()))
}

// SessionGet returns a session snapshot plus its generation rounds.
func (a *App) SessionGet(w http.ResponseWriter, r *http.Request) {
	session, err := a.session(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	rounds := session.Rounds()
	roundViews := make([]roundView, len(rounds))
	for i, round := range rounds {
		roundViews[i] = viewRound(round)
	}
	a.json(w, http.StatusOK, map[string]any{
		"session": viewSession(session.Snapshot()),
		"rounds":  roundViews,
	})
}

// SessionDelete discards a session.
func (a *App) SessionDelete(w http.ResponseWriter, r *http.Request) {
	a.Sessions.Delete(chi.URLParam(r, "session_id"))
	w.WriteHeader(http.StatusNoContent)
}

type methodRequest struct {
	Method string `json:"method"`
}

// SessionSelectMethod chooses generate or upload and routes the stage.
func (a *App) SessionSelectMethod(w http.ResponseWriter, r *http.Request) {
	session, err := a.session(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req methodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := session.SelectMethod(domain.Method(req.Method)); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, viewSession(session.Snapshot()))
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

// SessionSetPrompt stores the behavior description.
func (a *App) SessionSetPrompt(w http.ResponseWriter, r *http.Request) {
	session, err := a.session(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := session.SetPrompt(req.Prompt); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, viewSession(session.Snapshot()))
}

// SessionSubmitRound runs one image generation round.
func (a *App) SessionSubmitRound(w http.ResponseWriter, r *http.Request) {
	session, err := a.session(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	round, err := session.SubmitRound(r.Context(), req.Prompt)
	if err != nil && round == nil {
		a.fail(w, r, err)
		return
	}
	// A failed round is still a round; the client renders the error inline.
	a.json(w, http.StatusOK, viewRound(round))
}

// SessionSelectCandidate toggles one generated candidate.
func (a *App) SessionSelectCandidate(w http.ResponseWriter, r *http.Request) {
	session, err := a.session(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	asset, err := session.SelectCandidate(chi.URLParam(r, "round_id"), chi.URLParam(r, "candidate_id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"selected_asset": viewAsset(asset),
		"session":        viewSession(session.Snapshot()),
	})
}

// SessionUpload resolves a local file to a durable URL and attaches it.
func (a *App) SessionUpload(w http.ResponseWriter, r *http.Request) {
	session, err := a.session(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := r.ParseMultipartForm(12 << 20); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart payload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "file field is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "unreadable file")
		return
	}

	asset, err := a.Uploads.Upload(r.Context(), header.Filename, data)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := session.AttachUpload(asset); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, viewSession(session.Snapshot()))
}

type voiceRequest struct {
	VoiceID string `json:"voice_id"`
}

// SessionSetVoice selects a preset voice.
func (a *App) SessionSetVoice(w http.ResponseWriter, r *http.Request) {
	session, err := a.session(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req voiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := session.SetVoice(req.VoiceID); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, viewSession(session.Snapshot()))
}

// VoicesList returns the preset voice catalog.
func (a *App) VoicesList(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"voices": wizard.Voices()})
}

// SessionAdvance moves the wizard forward through the gate.
func (a *App) SessionAdvance(w http.ResponseWriter, r *http.Request) {
	session, err := a.session(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if _, err := session.Advance(); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, viewSession(session.Snapshot()))
}

// SessionBack moves the wizard to the preceding stage.
func (a *App) SessionBack(w http.ResponseWriter, r *http.Request) {
	session, err := a.session(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if _, err := session.Back(); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, viewSession(session.Snapshot()))
}

// SessionLaunch submits the training job and blocks until it is terminal.
// A failed task is reported as a resolved state, recoverable via retry.
func (a *App) SessionLaunch(w http.ResponseWriter, r *http.Request) {
	session, err := a.session(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	task, err := a.awaitLaunch(r, session.Launch)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"task": viewTask(task)})
}

// SessionRetry re-submits after a failed task.
func (a *App) SessionRetry(w http.ResponseWriter, r *http.Request) {
	session, err := a.session(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	task, err := a.awaitLaunch(r, session.Retry)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"task": viewTask(task)})
}

func (a *App) awaitLaunch(r *http.Request, run func(ctx context.Context) (*domain.GenerationTask, error)) (*domain.GenerationTask, error) {
	task, err := run(r.Context())
	var genErr *domain.GenerationError
	if err != nil && errors.As(err, &genErr) {
		// Terminal failure is a resolved state, not a transport error.
		return task, nil
	}
	return task, err
}

func (a *App) session(r *http.Request) (*wizard.Session, error) {
	return a.Sessions.Get(chi.URLParam(r, "session_id"))
}
