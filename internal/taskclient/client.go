package taskclient

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MezriHC/Better-Ads-sub000/internal/domain"
	"github.com/MezriHC/Better-Ads-sub000/internal/providers/image"
	"github.com/MezriHC/Better-Ads-sub000/internal/providers/video"
)

const (
	// DefaultPollInterval is the cadence between provider status checks.
	DefaultPollInterval = 3 * time.Second
	// DefaultVideoTimeout is the hard submission-to-terminal budget for video jobs.
	DefaultVideoTimeout = 300 * time.Second
	// DefaultBatchSize is the number of candidates per image batch.
	DefaultBatchSize = 4
)

// SubmitRequest carries everything needed to start a generation task.
type SubmitRequest struct {
	Kind         domain.TaskKind
	Prompt       string
	ReferenceURL string
	ImageURL     string
	VoiceID      string
	ProjectID    string
	Quantity     int
	AspectRatio  string
}

// PollOptions tunes PollUntilTerminal. Zero values fall back to the defaults.
type PollOptions struct {
	Interval   time.Duration
	Timeout    time.Duration
	OnProgress func(domain.TaskStatus)
}

// Client submits generation requests to remote providers and polls video jobs
// to a terminal state. It owns no business rules; retries are caller-initiated
// and abandoning a poll never cancels the remote job.
type Client struct {
	images image.Generator
	videos video.Provider
	logger zerolog.Logger
}

// New constructs a task client over the given providers.
func New(images image.Generator, videos video.Provider, logger *zerolog.Logger) *Client {
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	return &Client{images: images, videos: videos, logger: *logger}
}

// Submit sends a generation request to the relevant provider.
//
// Image batches are synchronous-style: the provider blocks until every
// candidate is ready, so the returned task is already terminal (ready with
// candidates, or failed with the provider's message). Video submissions
// return a pending task whose completion must be observed via
// PollUntilTerminal. Synchronous provider rejections surface as
// *domain.SubmissionError and no task is created.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (*domain.GenerationTask, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, &domain.SubmissionError{Provider: string(req.Kind), Err: domain.ErrEmptyPrompt}
	}

	task := &domain.GenerationTask{
		ID:           uuid.NewString(),
		Kind:         req.Kind,
		Status:       domain.TaskStatusPending,
		Prompt:       req.Prompt,
		ReferenceURL: req.ReferenceURL,
		ProjectID:    req.ProjectID,
		SubmittedAt:  time.Now(),
	}

	switch req.Kind {
	case domain.TaskKindImageBatch:
		c.submitImageBatch(ctx, req, task)
		return task, nil
	case domain.TaskKindVideo:
		if strings.TrimSpace(req.ProjectID) == "" {
			return nil, &domain.SubmissionError{Provider: "video", Err: domain.ErrProjectUnavailable}
		}
		providerID, err := c.videos.Submit(ctx, video.SubmitRequest{
			Prompt:    req.Prompt,
			ImageURL:  req.ImageURL,
			VoiceID:   req.VoiceID,
			ProjectID: req.ProjectID,
			RequestID: task.ID,
		})
		if err != nil {
			return nil, &domain.SubmissionError{Provider: "video", Err: err}
		}
		task.ProviderTaskID = providerID
		c.logger.Info().
			Str("task_id", task.ID).
			Str("provider_task_id", providerID).
			Msg("taskclient: video job submitted")
		return task, nil
	default:
		return nil, &domain.SubmissionError{Provider: string(req.Kind), Err: domain.ErrInvalidTransition}
	}
}

func (c *Client) submitImageBatch(ctx context.Context, req SubmitRequest, task *domain.GenerationTask) {
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = DefaultBatchSize
	}
	assets, err := c.images.Generate(ctx, image.GenerateRequest{
		Prompt:       req.Prompt,
		ReferenceURL: req.ReferenceURL,
		Quantity:     quantity,
		AspectRatio:  req.AspectRatio,
		RequestID:    task.ID,
	})
	if err != nil {
		task.Fail(err.Error())
		c.logger.Warn().Err(err).Str("task_id", task.ID).Msg("taskclient: image batch failed")
		return
	}

	candidates := make([]domain.Asset, len(assets))
	for i, a := range assets {
		candidates[i] = domain.Asset{
			ID:        uuid.NewString(),
			URL:       a.URL,
			Kind:      domain.AssetKindImage,
			Origin:    domain.AssetOriginGenerated,
			Width:     a.Width,
			Height:    a.Height,
			CreatedAt: time.Now(),
		}
	}
	task.Complete("", candidates)
	c.logger.Info().
		Str("task_id", task.ID).
		Int("candidates", len(candidates)).
		Msg("taskclient: image batch ready")
}

// PollUntilTerminal queries provider status at the configured interval until
// the task reaches ready or failed. OnProgress fires on every observed status
// transition. When the timeout budget elapses while still non-terminal, the
// task resolves to failed with message "timeout" and no further poll requests
// are issued. Cancelling ctx abandons polling without touching the task.
func (c *Client) PollUntilTerminal(ctx context.Context, task *domain.GenerationTask, opts PollOptions) (*domain.GenerationTask, error) {
	if task.Status.Terminal() {
		return task, nil
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultVideoTimeout
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	observed := task.Status
	for {
		status, err := c.videos.GetStatus(ctx, task.ProviderTaskID)
		if err != nil {
			// Transient poll failures do not fail the task; the timeout
			// budget bounds how long they can go on.
			c.logger.Warn().Err(err).Str("task_id", task.ID).Msg("taskclient: status poll failed")
		} else {
			next := mapProviderStatus(status.Status)
			if next != observed {
				observed = next
				if next == domain.TaskStatusProcessing {
					task.MarkProcessing()
				}
				if opts.OnProgress != nil {
					opts.OnProgress(next)
				}
			}
			switch status.Status {
			case video.StatusReady:
				task.Complete(status.ResultURL, nil)
				c.logger.Info().Str("task_id", task.ID).Msg("taskclient: video job ready")
				return task, nil
			case video.StatusFailed:
				msg := status.Error
				if msg == "" {
					msg = "generation failed"
				}
				task.Fail(msg)
				c.logger.Warn().Str("task_id", task.ID).Str("error", msg).Msg("taskclient: video job failed")
				return task, nil
			}
		}

		select {
		case <-ctx.Done():
			return task, ctx.Err()
		case <-deadline.C:
			task.Fail("timeout")
			c.logger.Warn().
				Str("task_id", task.ID).
				Dur("timeout", timeout).
				Msg("taskclient: video job timed out")
			return task, nil
		case <-ticker.C:
		}
	}
}

func mapProviderStatus(s video.Status) domain.TaskStatus {
	switch s {
	case video.StatusPending:
		return domain.TaskStatusPending
	case video.StatusProcessing:
		return domain.TaskStatusProcessing
	case video.StatusReady:
		return domain.TaskStatusReady
	default:
		return domain.TaskStatusFailed
	}
}
