package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/MezriHC/Better-Ads-sub000/internal/domain"
	"github.com/MezriHC/Better-Ads-sub000/internal/taskclient"
)

type fakeTaskClient struct {
	mu            sync.Mutex
	submitted     []taskclient.SubmitRequest
	failBatch     bool
	polls         int
	leaveInFlight bool
	pollScript    []domain.TaskStatus
	pollResult    string

	// blockSubmit, when set, parks Submit after signaling submitStarted so
	// tests can interleave other calls with an in-flight provider request.
	blockSubmit   chan struct{}
	submitStarted chan struct{}
}

func (f *fakeTaskClient) Submit(ctx context.Context, req taskclient.SubmitRequest) (*domain.GenerationTask, error) {
	f.mu.Lock()
	f.submitted = append(f.submitted, req)
	seq := len(f.submitted)
	block := f.blockSubmit
	started := f.submitStarted
	f.mu.Unlock()

	if block != nil {
		if started != nil {
			started <- struct{}{}
		}
		<-block
	}

	task := &domain.GenerationTask{
		ID:     fmt.Sprintf("task-%d", seq),
		Kind:   req.Kind,
		Prompt: req.Prompt,
	}
	if req.Kind == domain.TaskKindImageBatch {
		if f.failBatch {
			task.Fail("provider exploded")
			return task, nil
		}
		quantity := req.Quantity
		if quantity <= 0 {
			quantity = taskclient.DefaultBatchSize
		}
		assets := make([]domain.Asset, quantity)
		for i := range assets {
			assets[i] = domain.Asset{
				ID:     fmt.Sprintf("%s-candidate-%d", task.ID, i+1),
				URL:    fmt.Sprintf("https://cdn.test/%s/%d.png", task.ID, i+1),
				Kind:   domain.AssetKindImage,
				Origin: domain.AssetOriginGenerated,
			}
		}
		task.Complete("", assets)
		return task, nil
	}
	task.Status = domain.TaskStatusPending
	task.ProviderTaskID = "op-" + task.ID
	return task, nil
}

func (f *fakeTaskClient) submissions() []taskclient.SubmitRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]taskclient.SubmitRequest(nil), f.submitted...)
}

func (f *fakeTaskClient) PollUntilTerminal(ctx context.Context, task *domain.GenerationTask, opts taskclient.PollOptions) (*domain.GenerationTask, error) {
	f.mu.Lock()
	f.polls++
	leave := f.leaveInFlight
	status := domain.TaskStatusReady
	if len(f.pollScript) > 0 {
		status = f.pollScript[0]
		f.pollScript = f.pollScript[1:]
	}
	f.mu.Unlock()
	if leave {
		return task, nil
	}
	if opts.OnProgress != nil {
		opts.OnProgress(domain.TaskStatusProcessing)
	}
	switch status {
	case domain.TaskStatusReady:
		task.Complete(f.pollResult, nil)
	default:
		task.Fail("generation failed")
	}
	return task, nil
}

func TestSubmitRoundRejectsEmptyPrompt(t *testing.T) {
	log := NewChatLog()
	client := &fakeTaskClient{}

	_, err := log.SubmitRound(context.Background(), client, "  ")
	var validation *domain.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("SubmitRound error = %v, want ValidationError", err)
	}
	if validation.Code != ReasonPromptRequired {
		t.Fatalf("reason code = %q, want %q", validation.Code, ReasonPromptRequired)
	}
	if len(log.Rounds()) != 0 {
		t.Fatalf("rounds = %d, want 0", len(log.Rounds()))
	}
}

func TestSubmitRoundProducesFourCandidates(t *testing.T) {
	log := NewChatLog()
	client := &fakeTaskClient{}

	round, err := log.SubmitRound(context.Background(), client, "smiling woman, business attire")
	if err != nil {
		t.Fatalf("SubmitRound failed: %v", err)
	}
	if round.Phase != RoundCompleted {
		t.Fatalf("phase = %q, want %q", round.Phase, RoundCompleted)
	}
	if len(round.Candidates) != 4 {
		t.Fatalf("candidates = %d, want 4", len(round.Candidates))
	}
	if round.ReferenceAssetURL != "" {
		t.Fatalf("fresh round should be unconditioned, got reference %q", round.ReferenceAssetURL)
	}
}

func TestSubmitRoundFailureKeepsError(t *testing.T) {
	log := NewChatLog()
	client := &fakeTaskClient{failBatch: true}

	round, err := log.SubmitRound(context.Background(), client, "a prompt")
	if err != nil {
		t.Fatalf("SubmitRound returned transport error: %v", err)
	}
	if round.Phase != RoundFailed {
		t.Fatalf("phase = %q, want %q", round.Phase, RoundFailed)
	}
	if round.ErrorMessage != "provider exploded" {
		t.Fatalf("error message = %q, want provider message", round.ErrorMessage)
	}
	if len(round.Candidates) != 0 {
		t.Fatalf("failed round candidates = %d, want 0", len(round.Candidates))
	}
}

func TestSelectCandidateIsGloballyExclusive(t *testing.T) {
	log := NewChatLog()
	client := &fakeTaskClient{}
	ctx := context.Background()

	first, err := log.SubmitRound(ctx, client, "round one")
	if err != nil {
		t.Fatalf("SubmitRound failed: %v", err)
	}
	if _, err := log.SelectCandidate(first.ID, first.Candidates[1].Asset.ID); err != nil {
		t.Fatalf("SelectCandidate failed: %v", err)
	}

	second, err := log.SubmitRound(ctx, client, "round two")
	if err != nil {
		t.Fatalf("SubmitRound failed: %v", err)
	}
	// Submitting a new round must not clear the prior selection.
	sel := log.CurrentSelection()
	if sel == nil || sel.ID != first.Candidates[1].Asset.ID {
		t.Fatalf("selection after new round = %+v, want candidate #2 of round one", sel)
	}

	if _, err := log.SelectCandidate(second.ID, second.Candidates[0].Asset.ID); err != nil {
		t.Fatalf("SelectCandidate failed: %v", err)
	}
	selectedCount := 0
	for _, round := range log.Rounds() {
		for _, c := range round.Candidates {
			if c.Selected {
				selectedCount++
			}
		}
	}
	if selectedCount != 1 {
		t.Fatalf("selected candidates across log = %d, want 1", selectedCount)
	}
	sel = log.CurrentSelection()
	if sel == nil || sel.ID != second.Candidates[0].Asset.ID {
		t.Fatalf("selection = %+v, want candidate #1 of round two", sel)
	}
}

func TestSelectCandidateToggleDeselects(t *testing.T) {
	log := NewChatLog()
	client := &fakeTaskClient{}

	round, err := log.SubmitRound(context.Background(), client, "toggle me")
	if err != nil {
		t.Fatalf("SubmitRound failed: %v", err)
	}
	candidateID := round.Candidates[0].Asset.ID
	if asset, err := log.SelectCandidate(round.ID, candidateID); err != nil || asset == nil {
		t.Fatalf("SelectCandidate = (%v, %v), want selected asset", asset, err)
	}
	asset, err := log.SelectCandidate(round.ID, candidateID)
	if err != nil {
		t.Fatalf("SelectCandidate toggle failed: %v", err)
	}
	if asset != nil {
		t.Fatalf("toggle returned %+v, want nil (deselected)", asset)
	}
	if log.CurrentSelection() != nil {
		t.Fatal("selection should be empty after toggle off")
	}
}

func TestSubmitRoundChainsCurrentSelection(t *testing.T) {
	log := NewChatLog()
	client := &fakeTaskClient{}
	ctx := context.Background()

	first, err := log.SubmitRound(ctx, client, "base actor")
	if err != nil {
		t.Fatalf("SubmitRound failed: %v", err)
	}
	selected, err := log.SelectCandidate(first.ID, first.Candidates[2].Asset.ID)
	if err != nil {
		t.Fatalf("SelectCandidate failed: %v", err)
	}

	second, err := log.SubmitRound(ctx, client, "same actor, red jacket")
	if err != nil {
		t.Fatalf("SubmitRound failed: %v", err)
	}
	if second.ReferenceAssetURL != selected.URL {
		t.Fatalf("reference url = %q, want %q", second.ReferenceAssetURL, selected.URL)
	}
	if got := client.submitted[1].ReferenceURL; got != selected.URL {
		t.Fatalf("submitted reference = %q, want %q", got, selected.URL)
	}
}

func TestSubmitRoundConcurrentReads(t *testing.T) {
	log := NewChatLog()
	client := &fakeTaskClient{
		blockSubmit:   make(chan struct{}),
		submitStarted: make(chan struct{}, 1),
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := log.SubmitRound(context.Background(), client, "slow round"); err != nil {
			t.Errorf("SubmitRound failed: %v", err)
		}
	}()

	<-client.submitStarted
	// Readers must see the in-flight round as awaiting_result, not race its
	// resolution.
	for i := 0; i < 20; i++ {
		log.CurrentSelection()
		rounds := log.Rounds()
		if len(rounds) != 1 {
			t.Fatalf("rounds during generation = %d, want 1", len(rounds))
		}
		if rounds[0].Phase != RoundAwaitingResult {
			t.Fatalf("phase during generation = %q, want %q", rounds[0].Phase, RoundAwaitingResult)
		}
	}

	close(client.blockSubmit)
	<-done

	rounds := log.Rounds()
	if rounds[0].Phase != RoundCompleted {
		t.Fatalf("phase after generation = %q, want %q", rounds[0].Phase, RoundCompleted)
	}
	if len(rounds[0].Candidates) != 4 {
		t.Fatalf("candidates = %d, want 4", len(rounds[0].Candidates))
	}
}

func TestSelectCandidateUnknownIDs(t *testing.T) {
	log := NewChatLog()
	client := &fakeTaskClient{}

	round, err := log.SubmitRound(context.Background(), client, "a prompt")
	if err != nil {
		t.Fatalf("SubmitRound failed: %v", err)
	}
	if _, err := log.SelectCandidate("missing-round", round.Candidates[0].Asset.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown round error = %v, want ErrNotFound", err)
	}
	if _, err := log.SelectCandidate(round.ID, "missing-candidate"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown candidate error = %v, want ErrNotFound", err)
	}
}
