package domain

import "time"

// TaskKind enumerates supported generation task categories.
type TaskKind string

const (
	TaskKindImageBatch TaskKind = "image_batch"
	TaskKindVideo      TaskKind = "video"
)

// TaskStatus enumerates the generation task lifecycle states.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusReady      TaskStatus = "ready"
	TaskStatusFailed     TaskStatus = "failed"
)

// Terminal reports whether no further status transitions can occur.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusReady || s == TaskStatusFailed
}

// GenerationTask tracks one submission to a remote generation provider.
// Terminal tasks are final: a retry creates a new task, never mutates one.
type GenerationTask struct {
	ID             string
	ProviderTaskID string
	Kind           TaskKind
	Status         TaskStatus
	Prompt         string
	ReferenceURL   string
	ProjectID      string
	ResultAssetURL string
	ResultAssets   []Asset
	ErrorMessage   string
	SubmittedAt    time.Time
	CompletedAt    *time.Time
}

// MarkProcessing records that the provider picked the task up.
func (t *GenerationTask) MarkProcessing() {
	if t.Status == TaskStatusPending {
		t.Status = TaskStatusProcessing
	}
}

// Complete transitions the task to ready with its result.
func (t *GenerationTask) Complete(resultURL string, assets []Asset) {
	now := time.Now()
	t.Status = TaskStatusReady
	t.ResultAssetURL = resultURL
	t.ResultAssets = assets
	t.CompletedAt = &now
}

// Fail transitions the task to failed with the given message.
func (t *GenerationTask) Fail(msg string) {
	now := time.Now()
	t.Status = TaskStatusFailed
	t.ErrorMessage = msg
	t.CompletedAt = &now
}
