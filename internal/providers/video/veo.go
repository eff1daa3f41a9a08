package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Options controls how the Veo provider is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// Veo drives long-running avatar video generation through the Veo API.
// Without an API key it runs in synthetic mode: submitted jobs report
// processing for a short window and then resolve ready, so polling behaves
// like the real service in local and CI environments.
type Veo struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zerolog.Logger

	mu        sync.Mutex
	synthetic map[string]time.Time
}

const syntheticProcessingWindow = 6 * time.Second

// NewVeo constructs the provider with sane defaults.
func NewVeo(opts Options) *Veo {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	model := opts.Model
	if model == "" {
		model = "veo-3.0-generate"
	}
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	return &Veo{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: client,
		logger:     logger,
		synthetic:  make(map[string]time.Time),
	}
}

type veoSubmitPayload struct {
	Prompt   string `json:"prompt"`
	ImageURI string `json:"imageUri"`
	VoiceID  string `json:"voiceId,omitempty"`
	Project  string `json:"project,omitempty"`
}

type veoOperation struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Response struct {
		VideoURI string `json:"videoUri"`
	} `json:"response"`
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
	Metadata struct {
		State string `json:"state"`
	} `json:"metadata"`
}

// Submit starts a video generation job and returns its operation name.
// Malformed input is rejected before any network call is made.
func (v *Veo) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", fmt.Errorf("veo: prompt is required")
	}
	if strings.TrimSpace(req.ImageURL) == "" {
		return "", fmt.Errorf("veo: image url is required")
	}

	if v.apiKey == "" {
		id := "operations/synthetic-" + uuid.NewString()
		v.mu.Lock()
		v.synthetic[id] = time.Now()
		v.mu.Unlock()
		v.logger.Debug().Str("operation", id).Msg("veo: submitted synthetic job")
		return id, nil
	}

	payload := veoSubmitPayload{
		Prompt:   req.Prompt,
		ImageURI: req.ImageURL,
		VoiceID:  req.VoiceID,
		Project:  req.ProjectID,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("veo: encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateVideo", v.baseURL, v.model)
	op, err := v.call(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", err
	}
	if op.Name == "" {
		return "", fmt.Errorf("veo: submit returned no operation name")
	}

	v.logger.Debug().
		Str("operation", op.Name).
		Str("request_id", req.RequestID).
		Msg("veo: submitted video job")

	return op.Name, nil
}

// GetStatus polls one operation. It never blocks beyond a single round-trip.
func (v *Veo) GetStatus(ctx context.Context, taskID string) (StatusResponse, error) {
	if v.apiKey == "" {
		return v.syntheticStatus(taskID)
	}

	endpoint := fmt.Sprintf("%s/%s", v.baseURL, strings.TrimLeft(taskID, "/"))
	op, err := v.call(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return StatusResponse{}, err
	}

	switch {
	case op.Done && op.Error.Message != "":
		return StatusResponse{Status: StatusFailed, Error: op.Error.Message}, nil
	case op.Done:
		return StatusResponse{Status: StatusReady, ResultURL: op.Response.VideoURI}, nil
	case strings.EqualFold(op.Metadata.State, "queued"):
		return StatusResponse{Status: StatusPending}, nil
	default:
		return StatusResponse{Status: StatusProcessing}, nil
	}
}

func (v *Veo) syntheticStatus(taskID string) (StatusResponse, error) {
	v.mu.Lock()
	submitted, ok := v.synthetic[taskID]
	v.mu.Unlock()
	if !ok {
		return StatusResponse{}, fmt.Errorf("veo: unknown operation %q", taskID)
	}
	elapsed := time.Since(submitted)
	switch {
	case elapsed < time.Second:
		return StatusResponse{Status: StatusPending}, nil
	case elapsed < syntheticProcessingWindow:
		return StatusResponse{Status: StatusProcessing}, nil
	default:
		return StatusResponse{
			Status:    StatusReady,
			ResultURL: fmt.Sprintf("https://assets.better-ads.local/synthetic/%s.mp4", strings.TrimPrefix(taskID, "operations/")),
		}, nil
	}
}

func (v *Veo) call(ctx context.Context, method, endpoint string, body []byte) (*veoOperation, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("veo: build request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("x-goog-api-key", v.apiKey)

	resp, err := v.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("veo: call api: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("veo: read response: %w", err)
	}

	var op veoOperation
	if err := json.Unmarshal(raw, &op); err != nil {
		return nil, fmt.Errorf("veo: decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := op.Error.Message
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return nil, fmt.Errorf("veo: api status %d: %s", resp.StatusCode, msg)
	}
	return &op, nil
}

var _ Provider = (*Veo)(nil)
