package wizard

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MezriHC/Better-Ads-sub000/internal/domain"
	"github.com/MezriHC/Better-Ads-sub000/internal/taskclient"
)

// TaskClient is the slice of the generation task client the session needs.
type TaskClient interface {
	Submit(ctx context.Context, req taskclient.SubmitRequest) (*domain.GenerationTask, error)
	PollUntilTerminal(ctx context.Context, task *domain.GenerationTask, opts taskclient.PollOptions) (*domain.GenerationTask, error)
}

// ProjectContext scopes the final training submission to a project.
type ProjectContext interface {
	CurrentProjectID(ctx context.Context) (string, error)
}

// TaskRecorder persists an audit trail of submitted tasks. Recording failures
// never fail a session operation.
type TaskRecorder interface {
	Record(ctx context.Context, task *domain.GenerationTask) error
	UpdateStatus(ctx context.Context, taskID string, status domain.TaskStatus, errMsg, resultURL string) error
}

// Config wires a session's collaborators.
type Config struct {
	Tasks        TaskClient
	Projects     ProjectContext
	Recorder     TaskRecorder
	Logger       *zerolog.Logger
	PollInterval time.Duration
	VideoTimeout time.Duration
}

// Snapshot is an immutable view of a session's current fields, used by the
// gate and the transport layer.
type Snapshot struct {
	ID             string
	Stage          domain.Stage
	Method         domain.Method
	Prompt         string
	SelectedAsset  *domain.Asset
	UploadedAsset  *domain.Asset
	UploadResolved bool
	Voice          *domain.Voice
	Task           *domain.GenerationTask
	Launched       bool
	Generating     bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Session is the wizard state machine for creating one synthetic actor. It
// is safe for concurrent callers: every read-modify-write holds the lock, and
// provider round-trips happen outside it with the generating and launching
// flags keeping a second writer out.
type Session struct {
	mu sync.Mutex

	id             string
	stage          domain.Stage
	method         domain.Method
	prompt         string
	voice          *domain.Voice
	uploadedAsset  *domain.Asset
	uploadResolved bool
	chat           *ChatLog
	task           *domain.GenerationTask
	launched       bool
	launchKey      string
	generating     bool
	launching      bool
	createdAt      time.Time
	updatedAt      time.Time

	tasks        TaskClient
	projects     ProjectContext
	recorder     TaskRecorder
	logger       zerolog.Logger
	pollInterval time.Duration
	videoTimeout time.Duration
}

// NewSession creates a session in the initial stage.
func NewSession(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = taskclient.DefaultPollInterval
	}
	videoTimeout := cfg.VideoTimeout
	if videoTimeout <= 0 {
		videoTimeout = taskclient.DefaultVideoTimeout
	}
	now := time.Now()
	return &Session{
		id:           uuid.NewString(),
		stage:        domain.StageGetStarted,
		chat:         NewChatLog(),
		createdAt:    now,
		updatedAt:    now,
		tasks:        cfg.Tasks,
		projects:     cfg.Projects,
		recorder:     cfg.Recorder,
		logger:       *logger,
		pollInterval: pollInterval,
		videoTimeout: videoTimeout,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Snapshot returns a point-in-time view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:             s.id,
		Stage:          s.stage,
		Method:         s.method,
		Prompt:         s.prompt,
		UploadResolved: s.uploadResolved,
		Launched:       s.launched,
		Generating:     s.generating,
		CreatedAt:      s.createdAt,
		UpdatedAt:      s.updatedAt,
	}
	snap.SelectedAsset = s.chat.CurrentSelection()
	if s.uploadedAsset != nil {
		uploaded := *s.uploadedAsset
		snap.UploadedAsset = &uploaded
	}
	if s.voice != nil {
		voice := *s.voice
		snap.Voice = &voice
	}
	if s.task != nil {
		task := *s.task
		snap.Task = &task
	}
	return snap
}

// Rounds returns the chat log rounds.
func (s *Session) Rounds() []*ChatRound {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chat.Rounds()
}

// SelectMethod chooses how the actor image is produced and routes to the
// matching stage: generate goes through the define-actor chat, upload jumps
// straight to select-actor.
func (s *Session) SelectMethod(m domain.Method) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != domain.StageGetStarted {
		return domain.ErrInvalidTransition
	}
	switch m {
	case domain.MethodGenerate:
		s.method = m
		s.stage = domain.StageDefineActor
	case domain.MethodUpload:
		s.method = m
		s.stage = domain.StageSelectActor
	default:
		return domain.ErrInvalidTransition
	}
	s.touch()
	return nil
}

// SetPrompt stores the free-text behavior description.
func (s *Session) SetPrompt(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.launched {
		return domain.ErrTaskInFlight
	}
	s.prompt = text
	s.touch()
	return nil
}

// SetVoice selects a preset voice. Rejected once training has been submitted:
// the voice is baked into the job payload.
func (s *Session) SetVoice(voiceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.launched {
		return domain.ErrTaskInFlight
	}
	voice, ok := FindVoice(voiceID)
	if !ok {
		return domain.ErrNotFound
	}
	s.voice = &voice
	s.touch()
	return nil
}

// AttachUpload records a remotely-resolved uploaded asset on the session.
// Setting it clears any chat candidate selection (mutual exclusivity).
func (s *Session) AttachUpload(asset domain.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.launched {
		return domain.ErrTaskInFlight
	}
	asset.Origin = domain.AssetOriginUploaded
	s.chat.DeselectAll()
	s.uploadedAsset = &asset
	s.uploadResolved = asset.URL != ""
	s.touch()
	return nil
}

// SubmitRound runs one generation round through the chat log. The session
// prompt is updated so the gate and the final job see the latest description.
func (s *Session) SubmitRound(ctx context.Context, promptText string) (*ChatRound, error) {
	s.mu.Lock()
	if s.stage != domain.StageDefineActor && s.stage != domain.StageSelectActor {
		s.mu.Unlock()
		return nil, domain.ErrInvalidTransition
	}
	if s.generating {
		s.mu.Unlock()
		return nil, &domain.ValidationError{Code: ReasonGenerationInProgress, Message: reasonText(ReasonGenerationInProgress, "en")}
	}
	if strings.TrimSpace(promptText) == "" {
		s.mu.Unlock()
		return nil, &domain.ValidationError{Code: ReasonPromptRequired, Message: reasonText(ReasonPromptRequired, "en")}
	}
	s.generating = true
	s.prompt = promptText
	s.touch()
	chat := s.chat
	s.mu.Unlock()

	round, err := chat.SubmitRound(ctx, s.tasks, promptText)

	s.mu.Lock()
	s.generating = false
	s.touch()
	s.mu.Unlock()
	return round, err
}

// SelectCandidate toggles a chat candidate. Selecting one clears the
// uploaded asset (mutual exclusivity) and deselects every other candidate.
func (s *Session) SelectCandidate(roundID, candidateID string) (*domain.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	asset, err := s.chat.SelectCandidate(roundID, candidateID)
	if err != nil {
		return nil, err
	}
	if asset != nil {
		s.uploadedAsset = nil
		s.uploadResolved = false
	}
	s.touch()
	return asset, nil
}

// Advance moves the stage forward when the gate approves; on rejection the
// stage is unchanged and the gate's reason is returned.
func (s *Session) Advance() (domain.Stage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, reason := CanAdvance(s.stage, s.snapshotLocked())
	if !ok {
		return s.stage, reason
	}

	switch s.stage {
	case domain.StageGetStarted:
		if s.method == domain.MethodUpload {
			s.stage = domain.StageSelectActor
		} else {
			s.stage = domain.StageDefineActor
		}
	case domain.StageDefineActor:
		s.stage = domain.StageSelectActor
	case domain.StageSelectActor:
		s.stage = domain.StageSelectVoice
	case domain.StageSelectVoice:
		s.stage = domain.StageLaunchTraining
	default:
		return s.stage, domain.ErrInvalidTransition
	}
	s.touch()
	return s.stage, nil
}

// Back moves to the immediately preceding stage. Disallowed once training has
// been submitted: a job cannot be un-submitted.
func (s *Session) Back() (domain.Stage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.launched {
		return s.stage, &domain.ValidationError{Code: ReasonAlreadyLaunched, Message: reasonText(ReasonAlreadyLaunched, "en")}
	}

	switch s.stage {
	case domain.StageDefineActor:
		s.stage = domain.StageGetStarted
	case domain.StageSelectActor:
		if s.method == domain.MethodGenerate {
			s.stage = domain.StageDefineActor
		} else {
			s.stage = domain.StageGetStarted
		}
	case domain.StageSelectVoice:
		s.stage = domain.StageSelectActor
	case domain.StageLaunchTraining:
		s.stage = domain.StageSelectVoice
	default:
		return s.stage, domain.ErrInvalidTransition
	}
	s.touch()
	return s.stage, nil
}

// Launch submits the avatar training job and polls it to a terminal state.
// A second call while a task is pending or processing with the same asset and
// prompt is a no-op returning the in-flight task; identical inputs never
// produce two concurrent remote jobs.
func (s *Session) Launch(ctx context.Context) (*domain.GenerationTask, error) {
	s.mu.Lock()
	if s.stage != domain.StageLaunchTraining {
		s.mu.Unlock()
		return nil, domain.ErrInvalidTransition
	}

	snap := s.snapshotLocked()
	for _, stage := range []domain.Stage{domain.StageDefineActor, domain.StageSelectActor, domain.StageSelectVoice} {
		if ok, reason := CanAdvance(stage, snap); !ok {
			s.mu.Unlock()
			return nil, reason
		}
	}

	actor := snap.SelectedAsset
	if actor == nil {
		actor = snap.UploadedAsset
	}
	key := actor.URL + "\x00" + s.prompt
	if s.task != nil && !s.task.Status.Terminal() {
		if key == s.launchKey {
			task := *s.task
			s.mu.Unlock()
			return &task, nil
		}
		s.mu.Unlock()
		return nil, domain.ErrTaskInFlight
	}
	if s.launching {
		// Another caller is between submit and task bookkeeping; one
		// remote job only.
		s.mu.Unlock()
		return nil, domain.ErrTaskInFlight
	}
	s.launching = true

	voiceID := ""
	if s.voice != nil {
		voiceID = s.voice.ID
	}
	prompt := s.prompt
	imageURL := actor.URL
	s.mu.Unlock()

	projectID, err := s.projects.CurrentProjectID(ctx)
	if err != nil {
		s.clearLaunching()
		return nil, &domain.SubmissionError{Provider: "video", Err: domain.ErrProjectUnavailable}
	}

	task, err := s.tasks.Submit(ctx, taskclient.SubmitRequest{
		Kind:      domain.TaskKindVideo,
		Prompt:    prompt,
		ImageURL:  imageURL,
		VoiceID:   voiceID,
		ProjectID: projectID,
	})
	if err != nil {
		s.clearLaunching()
		return nil, err
	}

	s.mu.Lock()
	s.task = task
	s.launched = true
	s.launchKey = key
	s.launching = false
	s.touch()
	s.mu.Unlock()

	s.record(ctx, task)
	s.logger.Info().
		Str("session_id", s.id).
		Str("task_id", task.ID).
		Msg("wizard: training job submitted")

	submitted := *task
	polled, err := s.tasks.PollUntilTerminal(ctx, &submitted, taskclient.PollOptions{
		Interval: s.pollInterval,
		Timeout:  s.videoTimeout,
		OnProgress: func(status domain.TaskStatus) {
			s.updateTaskStatus(ctx, task.ID, status, "", "")
		},
	})
	if err != nil {
		// Polling was abandoned; the remote job keeps running untouched.
		return task, err
	}

	s.mu.Lock()
	if s.task != nil && s.task.ID == polled.ID {
		s.task = polled
	}
	s.touch()
	result := *polled
	s.mu.Unlock()

	s.updateTaskStatus(ctx, polled.ID, polled.Status, polled.ErrorMessage, polled.ResultAssetURL)
	if polled.Status == domain.TaskStatusFailed {
		return &result, &domain.GenerationError{TaskID: polled.ID, Message: polled.ErrorMessage}
	}
	return &result, nil
}

// Retry clears a failed task and re-invokes Launch. The old task object is
// never mutated; the new submission gets a fresh identity.
func (s *Session) Retry(ctx context.Context) (*domain.GenerationTask, error) {
	s.mu.Lock()
	if s.task == nil || s.task.Status != domain.TaskStatusFailed {
		s.mu.Unlock()
		return nil, domain.ErrTaskNotRetryable
	}
	s.task = nil
	s.launched = false
	s.launchKey = ""
	s.touch()
	s.mu.Unlock()

	return s.Launch(ctx)
}

// Reset returns every field to its initial value, keeping the identifier and
// collaborators. Used on session close.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stage = domain.StageGetStarted
	s.method = domain.MethodUnset
	s.prompt = ""
	s.voice = nil
	s.uploadedAsset = nil
	s.uploadResolved = false
	s.chat = NewChatLog()
	s.task = nil
	s.launched = false
	s.launchKey = ""
	s.generating = false
	s.launching = false
	s.touch()
}

func (s *Session) touch() {
	s.updatedAt = time.Now()
}

func (s *Session) clearLaunching() {
	s.mu.Lock()
	s.launching = false
	s.mu.Unlock()
}

func (s *Session) record(ctx context.Context, task *domain.GenerationTask) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, task); err != nil {
		s.logger.Warn().Err(err).Str("task_id", task.ID).Msg("wizard: task audit record failed")
	}
}

func (s *Session) updateTaskStatus(ctx context.Context, taskID string, status domain.TaskStatus, errMsg, resultURL string) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.UpdateStatus(ctx, taskID, status, errMsg, resultURL); err != nil {
		s.logger.Warn().Err(err).Str("task_id", taskID).Msg("wizard: task audit update failed")
	}
}
