package image

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options controls how the Gemini image provider is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// GeminiGenerator produces actor reference images through the Gemini API.
// Without an API key it falls back to deterministic synthetic assets so the
// wizard pipeline stays fully exercisable in local and CI environments.
type GeminiGenerator struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zerolog.Logger
}

// NewGeminiGenerator constructs the provider with sane defaults. A nil HTTP
// client is replaced with one carrying a request timeout.
func NewGeminiGenerator(opts Options) *GeminiGenerator {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash-image"
	}
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	return &GeminiGenerator{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: client,
		logger:     logger,
	}
}

type geminiImagePayload struct {
	Prompt         string `json:"prompt"`
	ReferenceURI   string `json:"referenceUri,omitempty"`
	NumberOfImages int    `json:"numberOfImages"`
	AspectRatio    string `json:"aspectRatio,omitempty"`
}

type geminiImageResponse struct {
	Images []struct {
		URI      string `json:"uri"`
		MimeType string `json:"mimeType"`
		Width    int    `json:"width"`
		Height   int    `json:"height"`
	} `json:"images"`
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// Generate requests a batch of candidate images and blocks until the provider
// answers. Malformed input is rejected before any network call is made.
func (g *GeminiGenerator) Generate(ctx context.Context, req GenerateRequest) ([]Asset, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("gemini: prompt is required")
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	if g.apiKey == "" {
		return g.syntheticBatch(req), nil
	}

	assets, err := g.remoteBatch(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(assets) == 0 {
		return nil, fmt.Errorf("gemini: empty batch for request %s", req.RequestID)
	}
	return assets, nil
}

func (g *GeminiGenerator) remoteBatch(ctx context.Context, req GenerateRequest) ([]Asset, error) {
	payload := geminiImagePayload{
		Prompt:         req.Prompt,
		ReferenceURI:   req.ReferenceURL,
		NumberOfImages: req.Quantity,
		AspectRatio:    req.AspectRatio,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("gemini: encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateImages", g.baseURL, g.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gemini: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini: call image api: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("gemini: read response: %w", err)
	}

	var parsed geminiImageResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("gemini: decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := parsed.Error.Message
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return nil, fmt.Errorf("gemini: image api status %d: %s", resp.StatusCode, msg)
	}

	assets := make([]Asset, 0, len(parsed.Images))
	for _, img := range parsed.Images {
		assets = append(assets, Asset{
			URL:    img.URI,
			Format: img.MimeType,
			Width:  img.Width,
			Height: img.Height,
		})
	}

	g.logger.Debug().
		Str("request_id", req.RequestID).
		Str("model", g.model).
		Int("quantity", len(assets)).
		Msg("gemini: generated image batch")

	return assets, nil
}

func (g *GeminiGenerator) syntheticBatch(req GenerateRequest) []Asset {
	width, height := dimensionsForAspect(req.AspectRatio)
	assets := make([]Asset, req.Quantity)
	for i := range assets {
		seed := deterministicSeed(req.RequestID, req.Prompt, req.ReferenceURL, i)
		assets[i] = Asset{
			URL:    fmt.Sprintf("https://assets.better-ads.local/synthetic/%s/%s-%d.png", g.model, seed, i+1),
			Format: "image/png",
			Width:  width,
			Height: height,
		}
	}

	g.logger.Debug().
		Str("request_id", req.RequestID).
		Str("model", g.model).
		Int("quantity", len(assets)).
		Msg("gemini: generated synthetic image batch")

	return assets
}

func dimensionsForAspect(aspect string) (int, int) {
	switch aspect {
	case "16:9":
		return 1280, 720
	case "9:16":
		return 720, 1280
	case "4:3":
		return 1024, 768
	case "3:4":
		return 768, 1024
	default:
		return 1024, 1024
	}
}

func deterministicSeed(parts ...any) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%v|", p)
	}
	return hex.EncodeToString(h.Sum(nil))[:12]
}

var _ Generator = (*GeminiGenerator)(nil)
