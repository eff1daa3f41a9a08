package video

import "context"

// SubmitRequest describes an avatar/video generation job submission.
type SubmitRequest struct {
	Prompt    string
	ImageURL  string
	VoiceID   string
	ProjectID string
	RequestID string
}

// Status mirrors the provider-side job states.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
)

// StatusResponse is the result of one status poll.
type StatusResponse struct {
	Status    Status
	ResultURL string
	Error     string
}

// Provider is the contract implemented by all video providers. Submit returns
// a provider task id immediately; completion is observed through GetStatus.
// Abandoning polling has no effect on the remote job.
type Provider interface {
	Submit(ctx context.Context, req SubmitRequest) (string, error)
	GetStatus(ctx context.Context, taskID string) (StatusResponse, error)
}
