package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrEmptyPrompt        = errors.New("prompt is required")
	ErrInvalidTransition  = errors.New("invalid stage transition")
	ErrTaskInFlight       = errors.New("a generation task is already in flight")
	ErrTaskNotRetryable   = errors.New("task is not in a retryable state")
	ErrProjectUnavailable = errors.New("no active project")
)

// ValidationError is returned when a gate check rejects a stage transition.
// Code is a stable identifier the transport layer can localize.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed [%s]: %s", e.Code, e.Message)
}

// SubmissionError is returned when a provider rejects a request synchronously.
type SubmissionError struct {
	Provider string
	Err      error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission rejected by %s: %v", e.Provider, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// GenerationError wraps a terminal failed task so callers can offer a retry.
type GenerationError struct {
	TaskID  string
	Message string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation task %s failed: %s", e.TaskID, e.Message)
}

// UploadError is returned when resolving a local file to a durable URL fails.
// The session's uploaded asset stays unset when it occurs.
type UploadError struct {
	Filename string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload of %q failed: %v", e.Filename, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }
