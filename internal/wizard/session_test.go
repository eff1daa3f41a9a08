package wizard

import (
	"context"
	"errors"
	"testing"

	"github.com/MezriHC/Better-Ads-sub000/internal/domain"
)

type stubProjects struct {
	id  string
	err error
}

func (s stubProjects) CurrentProjectID(ctx context.Context) (string, error) {
	return s.id, s.err
}

type memRecorder struct {
	recorded []string
	updates  []domain.TaskStatus
}

func (m *memRecorder) Record(ctx context.Context, task *domain.GenerationTask) error {
	m.recorded = append(m.recorded, task.ID)
	return nil
}

func (m *memRecorder) UpdateStatus(ctx context.Context, taskID string, status domain.TaskStatus, errMsg, resultURL string) error {
	m.updates = append(m.updates, status)
	return nil
}

func newTestSession(client TaskClient) *Session {
	return NewSession(Config{
		Tasks:    client,
		Projects: stubProjects{id: "project-1"},
	})
}

// advanceToLaunch walks a fresh session down the generate path until the
// launch stage: one round, candidate selected, voice chosen.
func advanceToLaunch(t *testing.T, s *Session) {
	t.Helper()
	ctx := context.Background()
	if err := s.SelectMethod(domain.MethodGenerate); err != nil {
		t.Fatalf("SelectMethod failed: %v", err)
	}
	round, err := s.SubmitRound(ctx, "confident spokesperson in a studio")
	if err != nil {
		t.Fatalf("SubmitRound failed: %v", err)
	}
	if _, err := s.SelectCandidate(round.ID, round.Candidates[0].Asset.ID); err != nil {
		t.Fatalf("SelectCandidate failed: %v", err)
	}
	for _, want := range []domain.Stage{domain.StageSelectActor, domain.StageSelectVoice} {
		stage, err := s.Advance()
		if err != nil {
			t.Fatalf("Advance failed: %v", err)
		}
		if stage != want {
			t.Fatalf("stage = %q, want %q", stage, want)
		}
	}
	if err := s.SetVoice("voice-ava"); err != nil {
		t.Fatalf("SetVoice failed: %v", err)
	}
	if stage, err := s.Advance(); err != nil || stage != domain.StageLaunchTraining {
		t.Fatalf("Advance to launch = (%q, %v)", stage, err)
	}
}

func TestSelectMethodRoutesStages(t *testing.T) {
	s := newTestSession(&fakeTaskClient{})
	if err := s.SelectMethod(domain.MethodGenerate); err != nil {
		t.Fatalf("SelectMethod failed: %v", err)
	}
	if got := s.Snapshot().Stage; got != domain.StageDefineActor {
		t.Fatalf("generate path stage = %q, want %q", got, domain.StageDefineActor)
	}

	s = newTestSession(&fakeTaskClient{})
	if err := s.SelectMethod(domain.MethodUpload); err != nil {
		t.Fatalf("SelectMethod failed: %v", err)
	}
	if got := s.Snapshot().Stage; got != domain.StageSelectActor {
		t.Fatalf("upload path stage = %q, want %q", got, domain.StageSelectActor)
	}

	if err := s.SelectMethod(domain.MethodGenerate); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("re-selecting method = %v, want ErrInvalidTransition", err)
	}
}

func TestAdvanceRejectionLeavesStageUnchanged(t *testing.T) {
	s := newTestSession(&fakeTaskClient{})
	if err := s.SelectMethod(domain.MethodGenerate); err != nil {
		t.Fatalf("SelectMethod failed: %v", err)
	}

	stage, err := s.Advance()
	var validation *domain.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("Advance error = %v, want ValidationError", err)
	}
	if validation.Code != ReasonActorImageRequired {
		t.Fatalf("reason = %q, want %q", validation.Code, ReasonActorImageRequired)
	}
	if stage != domain.StageDefineActor {
		t.Fatalf("stage moved to %q on rejection", stage)
	}
}

func TestUploadClearsSelection(t *testing.T) {
	s := newTestSession(&fakeTaskClient{})
	ctx := context.Background()
	if err := s.SelectMethod(domain.MethodGenerate); err != nil {
		t.Fatalf("SelectMethod failed: %v", err)
	}
	round, err := s.SubmitRound(ctx, "actor in a kitchen")
	if err != nil {
		t.Fatalf("SubmitRound failed: %v", err)
	}
	if _, err := s.SelectCandidate(round.ID, round.Candidates[1].Asset.ID); err != nil {
		t.Fatalf("SelectCandidate failed: %v", err)
	}

	if err := s.AttachUpload(domain.Asset{ID: "up-1", URL: "https://cdn.test/up-1.png", Kind: domain.AssetKindImage}); err != nil {
		t.Fatalf("AttachUpload failed: %v", err)
	}
	snap := s.Snapshot()
	if snap.SelectedAsset != nil {
		t.Fatalf("selection survived upload: %+v", snap.SelectedAsset)
	}
	if snap.UploadedAsset == nil || snap.UploadedAsset.Origin != domain.AssetOriginUploaded {
		t.Fatalf("uploaded asset = %+v, want uploaded origin", snap.UploadedAsset)
	}
	if !snap.UploadResolved {
		t.Fatal("upload with remote URL should be resolved")
	}

	// Selecting a candidate again must evict the upload.
	if _, err := s.SelectCandidate(round.ID, round.Candidates[1].Asset.ID); err != nil {
		t.Fatalf("SelectCandidate failed: %v", err)
	}
	snap = s.Snapshot()
	if snap.UploadedAsset != nil {
		t.Fatalf("upload survived candidate selection: %+v", snap.UploadedAsset)
	}
	if snap.SelectedAsset == nil {
		t.Fatal("candidate selection missing after toggle back")
	}
}

func TestBackRetracesGeneratePath(t *testing.T) {
	s := newTestSession(&fakeTaskClient{})
	if err := s.SelectMethod(domain.MethodGenerate); err != nil {
		t.Fatalf("SelectMethod failed: %v", err)
	}
	if stage, err := s.Back(); err != nil || stage != domain.StageGetStarted {
		t.Fatalf("Back = (%q, %v), want get_started", stage, err)
	}
	if stage, err := s.Back(); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("Back at first stage = (%q, %v), want ErrInvalidTransition", stage, err)
	}
}

func TestLaunchHappyPath(t *testing.T) {
	client := &fakeTaskClient{pollResult: "https://cdn.test/avatar.mp4"}
	recorder := &memRecorder{}
	s := NewSession(Config{
		Tasks:    client,
		Projects: stubProjects{id: "project-1"},
		Recorder: recorder,
	})
	advanceToLaunch(t, s)

	task, err := s.Launch(context.Background())
	if err != nil {
		t.Fatalf("Launch failed: %v", err)
	}
	if task.Status != domain.TaskStatusReady {
		t.Fatalf("task status = %q, want ready", task.Status)
	}
	if task.ResultAssetURL != "https://cdn.test/avatar.mp4" {
		t.Fatalf("result url = %q", task.ResultAssetURL)
	}

	// One image round plus the training submission.
	if len(client.submitted) != 2 {
		t.Fatalf("submissions = %d, want 2", len(client.submitted))
	}
	videoReq := client.submitted[1]
	if videoReq.Kind != domain.TaskKindVideo {
		t.Fatalf("final kind = %q, want video", videoReq.Kind)
	}
	if videoReq.ProjectID != "project-1" {
		t.Fatalf("project id = %q, want project-1", videoReq.ProjectID)
	}
	if videoReq.VoiceID != "voice-ava" {
		t.Fatalf("voice id = %q, want voice-ava", videoReq.VoiceID)
	}
	if videoReq.ImageURL == "" {
		t.Fatal("image url missing from training request")
	}

	if len(recorder.recorded) != 1 {
		t.Fatalf("audit records = %d, want 1", len(recorder.recorded))
	}
	if len(recorder.updates) == 0 || recorder.updates[len(recorder.updates)-1] != domain.TaskStatusReady {
		t.Fatalf("audit updates = %v, want trailing ready", recorder.updates)
	}
}

func TestLaunchIsIdempotentWhileInFlight(t *testing.T) {
	client := &fakeTaskClient{leaveInFlight: true}
	s := newTestSession(client)
	advanceToLaunch(t, s)
	ctx := context.Background()

	first, err := s.Launch(ctx)
	if err != nil {
		t.Fatalf("Launch failed: %v", err)
	}
	second, err := s.Launch(ctx)
	if err != nil {
		t.Fatalf("second Launch failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("second launch task = %q, want in-flight task %q", second.ID, first.ID)
	}
	videoSubmits := 0
	for _, req := range client.submitted {
		if req.Kind == domain.TaskKindVideo {
			videoSubmits++
		}
	}
	if videoSubmits != 1 {
		t.Fatalf("video submissions = %d, want 1", videoSubmits)
	}
}

func TestLaunchRejectsChangedInputsWhileInFlight(t *testing.T) {
	client := &fakeTaskClient{leaveInFlight: true}
	s := newTestSession(client)
	advanceToLaunch(t, s)
	ctx := context.Background()

	if _, err := s.Launch(ctx); err != nil {
		t.Fatalf("Launch failed: %v", err)
	}

	// Switching to another candidate changes the launch key.
	rounds := s.Rounds()
	round := rounds[0]
	if _, err := s.SelectCandidate(round.ID, round.Candidates[2].Asset.ID); err != nil {
		t.Fatalf("SelectCandidate failed: %v", err)
	}
	if _, err := s.Launch(ctx); !errors.Is(err, domain.ErrTaskInFlight) {
		t.Fatalf("Launch with changed inputs = %v, want ErrTaskInFlight", err)
	}
}

func TestLaunchGuardsImmutableFields(t *testing.T) {
	client := &fakeTaskClient{leaveInFlight: true}
	s := newTestSession(client)
	advanceToLaunch(t, s)
	if _, err := s.Launch(context.Background()); err != nil {
		t.Fatalf("Launch failed: %v", err)
	}

	if err := s.SetPrompt("new behavior"); !errors.Is(err, domain.ErrTaskInFlight) {
		t.Fatalf("SetPrompt after launch = %v, want ErrTaskInFlight", err)
	}
	if err := s.SetVoice("voice-noah"); !errors.Is(err, domain.ErrTaskInFlight) {
		t.Fatalf("SetVoice after launch = %v, want ErrTaskInFlight", err)
	}
	if err := s.AttachUpload(domain.Asset{ID: "up", URL: "https://cdn.test/up.png"}); !errors.Is(err, domain.ErrTaskInFlight) {
		t.Fatalf("AttachUpload after launch = %v, want ErrTaskInFlight", err)
	}

	stage, err := s.Back()
	var validation *domain.ValidationError
	if !errors.As(err, &validation) || validation.Code != ReasonAlreadyLaunched {
		t.Fatalf("Back after launch = (%q, %v), want already_launched", stage, err)
	}
	if stage != domain.StageLaunchTraining {
		t.Fatalf("stage moved to %q after rejected back", stage)
	}
}

func TestSnapshotDuringGeneration(t *testing.T) {
	client := &fakeTaskClient{}
	s := newTestSession(client)
	if err := s.SelectMethod(domain.MethodGenerate); err != nil {
		t.Fatalf("SelectMethod failed: %v", err)
	}
	client.blockSubmit = make(chan struct{})
	client.submitStarted = make(chan struct{}, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := s.SubmitRound(context.Background(), "slow prompt"); err != nil {
			t.Errorf("SubmitRound failed: %v", err)
		}
	}()

	<-client.submitStarted
	snap := s.Snapshot()
	if !snap.Generating {
		t.Fatal("snapshot during a round should report generating")
	}
	rounds := s.Rounds()
	if len(rounds) != 1 || rounds[0].Phase != RoundAwaitingResult {
		t.Fatalf("rounds during generation = %+v, want one awaiting_result round", rounds)
	}
	if _, err := s.SubmitRound(context.Background(), "second prompt"); err == nil {
		t.Fatal("second round accepted while one is generating")
	}

	close(client.blockSubmit)
	<-done

	snap = s.Snapshot()
	if snap.Generating {
		t.Fatal("generating flag stuck after the round resolved")
	}
	rounds = s.Rounds()
	if rounds[0].Phase != RoundCompleted || len(rounds[0].Candidates) != 4 {
		t.Fatalf("resolved round = %+v, want completed with 4 candidates", rounds[0])
	}
}

func TestConcurrentLaunchSubmitsOnce(t *testing.T) {
	client := &fakeTaskClient{leaveInFlight: true}
	s := newTestSession(client)
	advanceToLaunch(t, s)
	client.blockSubmit = make(chan struct{})
	client.submitStarted = make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() {
		_, err := s.Launch(context.Background())
		done <- err
	}()

	<-client.submitStarted
	// The first launch is between submit and task bookkeeping; a second
	// caller must not reach the provider.
	if _, err := s.Launch(context.Background()); !errors.Is(err, domain.ErrTaskInFlight) {
		t.Fatalf("overlapping Launch = %v, want ErrTaskInFlight", err)
	}

	close(client.blockSubmit)
	if err := <-done; err != nil {
		t.Fatalf("Launch failed: %v", err)
	}

	videoSubmits := 0
	for _, req := range client.submissions() {
		if req.Kind == domain.TaskKindVideo {
			videoSubmits++
		}
	}
	if videoSubmits != 1 {
		t.Fatalf("video submissions = %d, want 1", videoSubmits)
	}
}

func TestLaunchWithoutProjectFails(t *testing.T) {
	client := &fakeTaskClient{}
	s := NewSession(Config{
		Tasks:    client,
		Projects: stubProjects{err: domain.ErrProjectUnavailable},
	})
	advanceToLaunch(t, s)

	_, err := s.Launch(context.Background())
	var submission *domain.SubmissionError
	if !errors.As(err, &submission) {
		t.Fatalf("Launch error = %v, want SubmissionError", err)
	}
	if !errors.Is(err, domain.ErrProjectUnavailable) {
		t.Fatalf("Launch error = %v, want wrapped ErrProjectUnavailable", err)
	}
	if s.Snapshot().Launched {
		t.Fatal("session marked launched after rejected submission")
	}
}

func TestRetryCreatesFreshTask(t *testing.T) {
	client := &fakeTaskClient{
		pollScript: []domain.TaskStatus{domain.TaskStatusFailed, domain.TaskStatusReady},
		pollResult: "https://cdn.test/retry.mp4",
	}
	s := newTestSession(client)
	advanceToLaunch(t, s)
	ctx := context.Background()

	failed, err := s.Launch(ctx)
	var genErr *domain.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("Launch error = %v, want GenerationError", err)
	}
	if failed.Status != domain.TaskStatusFailed {
		t.Fatalf("failed task status = %q", failed.Status)
	}

	retried, err := s.Retry(ctx)
	if err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if retried.ID == failed.ID {
		t.Fatal("retry reused the failed task identity")
	}
	if retried.Status != domain.TaskStatusReady {
		t.Fatalf("retried status = %q, want ready", retried.Status)
	}
	// The failed task object is history, not state to rewrite.
	if failed.Status != domain.TaskStatusFailed || failed.ResultAssetURL != "" {
		t.Fatalf("failed task mutated by retry: %+v", failed)
	}
}

func TestRetryRequiresFailedTask(t *testing.T) {
	s := newTestSession(&fakeTaskClient{})
	advanceToLaunch(t, s)

	if _, err := s.Retry(context.Background()); !errors.Is(err, domain.ErrTaskNotRetryable) {
		t.Fatalf("Retry without task = %v, want ErrTaskNotRetryable", err)
	}

	if _, err := s.Launch(context.Background()); err != nil {
		t.Fatalf("Launch failed: %v", err)
	}
	if _, err := s.Retry(context.Background()); !errors.Is(err, domain.ErrTaskNotRetryable) {
		t.Fatalf("Retry after success = %v, want ErrTaskNotRetryable", err)
	}
}

func TestSubmitRoundRejectedOutsideChatStages(t *testing.T) {
	s := newTestSession(&fakeTaskClient{})
	if _, err := s.SubmitRound(context.Background(), "too early"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("SubmitRound at get_started = %v, want ErrInvalidTransition", err)
	}
}

func TestResetRestoresInitialState(t *testing.T) {
	s := newTestSession(&fakeTaskClient{})
	advanceToLaunch(t, s)
	id := s.ID()

	s.Reset()
	snap := s.Snapshot()
	if snap.ID != id {
		t.Fatalf("reset changed id: %q != %q", snap.ID, id)
	}
	if snap.Stage != domain.StageGetStarted || snap.Method != domain.MethodUnset {
		t.Fatalf("reset snapshot = %+v, want initial stage and unset method", snap)
	}
	if snap.SelectedAsset != nil || snap.UploadedAsset != nil || snap.Voice != nil || snap.Task != nil {
		t.Fatal("reset left attachments behind")
	}
	if len(s.Rounds()) != 0 {
		t.Fatalf("reset kept %d rounds", len(s.Rounds()))
	}
}
