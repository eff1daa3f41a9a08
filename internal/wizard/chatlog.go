package wizard

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MezriHC/Better-Ads-sub000/internal/domain"
	"github.com/MezriHC/Better-Ads-sub000/internal/taskclient"
)

// RoundPhase enumerates the lifecycle of one generation round.
type RoundPhase string

const (
	RoundSubmitted      RoundPhase = "submitted"
	RoundAwaitingResult RoundPhase = "awaiting_result"
	RoundCompleted      RoundPhase = "completed"
	RoundFailed         RoundPhase = "failed"
)

// Candidate is one generated asset offered for selection within a round.
type Candidate struct {
	Asset    domain.Asset
	Selected bool
}

// ChatRound is one prompt-to-candidates generation cycle. Completed and
// failed rounds are immutable except for candidate selection flips.
type ChatRound struct {
	ID                string
	PromptText        string
	ReferenceAssetURL string
	Candidates        []Candidate
	Phase             RoundPhase
	ErrorMessage      string
	CreatedAt         time.Time
}

// ChatLog is the ordered, append-only sequence of generation rounds. At most
// one candidate across the whole log is selected at any time. The log is safe
// for concurrent use: the lock is never held across a provider round-trip,
// and accessors hand out copies, so readers observe an in-flight round as
// awaiting_result rather than racing its resolution.
type ChatLog struct {
	mu     sync.Mutex
	rounds []*ChatRound
}

// NewChatLog returns an empty log.
func NewChatLog() *ChatLog {
	return &ChatLog{}
}

// SubmitRound creates a round for the prompt, delegates to the task client
// for an image batch, and resolves the round to completed or failed.
// Submitting never clears an existing selection; the new candidates are
// additional options the user may switch to. When a selection exists its
// asset URL conditions the new round (edit-in-place); otherwise the round is
// a fresh generation.
func (l *ChatLog) SubmitRound(ctx context.Context, client TaskClient, promptText string) (*ChatRound, error) {
	if strings.TrimSpace(promptText) == "" {
		return nil, &domain.ValidationError{Code: ReasonPromptRequired, Message: reasonText(ReasonPromptRequired, "en")}
	}

	l.mu.Lock()
	referenceURL := ""
	if sel := l.currentSelectionLocked(); sel != nil {
		referenceURL = sel.URL
	}
	round := &ChatRound{
		ID:                uuid.NewString(),
		PromptText:        promptText,
		ReferenceAssetURL: referenceURL,
		Phase:             RoundSubmitted,
		CreatedAt:         time.Now(),
	}
	l.rounds = append(l.rounds, round)
	round.Phase = RoundAwaitingResult
	l.mu.Unlock()

	task, err := client.Submit(ctx, taskclient.SubmitRequest{
		Kind:         domain.TaskKindImageBatch,
		Prompt:       promptText,
		ReferenceURL: referenceURL,
		Quantity:     taskclient.DefaultBatchSize,
	})

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		round.Phase = RoundFailed
		round.ErrorMessage = err.Error()
		return copyRound(round), err
	}

	switch task.Status {
	case domain.TaskStatusReady:
		round.Candidates = make([]Candidate, len(task.ResultAssets))
		for i, asset := range task.ResultAssets {
			round.Candidates[i] = Candidate{Asset: asset}
		}
		round.Phase = RoundCompleted
	default:
		round.Phase = RoundFailed
		round.ErrorMessage = task.ErrorMessage
	}
	return copyRound(round), nil
}

// SelectCandidate toggles the target candidate's selected flag. Toggling to
// true deselects every other candidate in every round. It returns the asset
// now selected, or nil when the toggle deselected it.
func (l *ChatLog) SelectCandidate(roundID, candidateID string) (*domain.Asset, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	round := l.roundLocked(roundID)
	if round == nil {
		return nil, domain.ErrNotFound
	}
	target := -1
	for i := range round.Candidates {
		if round.Candidates[i].Asset.ID == candidateID {
			target = i
			break
		}
	}
	if target < 0 {
		return nil, domain.ErrNotFound
	}

	wasSelected := round.Candidates[target].Selected
	l.deselectAllLocked()
	if wasSelected {
		return nil, nil
	}
	round.Candidates[target].Selected = true
	asset := round.Candidates[target].Asset
	return &asset, nil
}

// CurrentSelection returns the one selected candidate across the whole log,
// or nil when nothing is selected.
func (l *ChatLog) CurrentSelection() *domain.Asset {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.currentSelectionLocked()
}

func (l *ChatLog) currentSelectionLocked() *domain.Asset {
	for _, round := range l.rounds {
		for i := range round.Candidates {
			if round.Candidates[i].Selected {
				asset := round.Candidates[i].Asset
				return &asset
			}
		}
	}
	return nil
}

// DeselectAll clears every candidate's selected flag.
func (l *ChatLog) DeselectAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.deselectAllLocked()
}

func (l *ChatLog) deselectAllLocked() {
	for _, round := range l.rounds {
		for i := range round.Candidates {
			round.Candidates[i].Selected = false
		}
	}
}

// Rounds returns copies of the rounds in submission order.
func (l *ChatLog) Rounds() []*ChatRound {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*ChatRound, len(l.rounds))
	for i, r := range l.rounds {
		out[i] = copyRound(r)
	}
	return out
}

func (l *ChatLog) roundLocked(id string) *ChatRound {
	for _, r := range l.rounds {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func copyRound(r *ChatRound) *ChatRound {
	c := *r
	c.Candidates = append([]Candidate(nil), r.Candidates...)
	return &c
}
