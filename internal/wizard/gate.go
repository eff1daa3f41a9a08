package wizard

import (
	"strings"

	"github.com/MezriHC/Better-Ads-sub000/internal/domain"
)

// CanAdvance decides whether the session may move past the given stage. It is
// a pure function of the snapshot: same inputs, same verdict, nothing cached.
// The returned error carries a stable reason code plus the English message.
func CanAdvance(stage domain.Stage, snap Snapshot) (bool, *domain.ValidationError) {
	switch stage {
	case domain.StageGetStarted:
		if snap.Method == domain.MethodUnset {
			return false, reject(ReasonMethodRequired)
		}
		return true, nil

	case domain.StageDefineActor:
		if snap.SelectedAsset != nil {
			return true, nil
		}
		if snap.Method == domain.MethodUpload && snap.UploadedAsset != nil {
			return true, nil
		}
		return false, reject(ReasonActorImageRequired)

	case domain.StageSelectActor:
		if strings.TrimSpace(snap.Prompt) == "" {
			return false, reject(ReasonBehaviorAndImage)
		}
		if snap.SelectedAsset != nil {
			return true, nil
		}
		if snap.UploadedAsset != nil {
			// A local-only preview cannot feed the training job; the remote
			// upload must have completed.
			if !snap.UploadResolved {
				return false, reject(ReasonUploadNotResolved)
			}
			return true, nil
		}
		return false, reject(ReasonBehaviorAndImage)

	case domain.StageSelectVoice:
		if snap.Voice == nil {
			return false, reject(ReasonVoiceRequired)
		}
		return true, nil

	case domain.StageLaunchTraining:
		return false, reject(ReasonNoFurtherStage)

	default:
		return false, reject(ReasonNoFurtherStage)
	}
}

func reject(code string) *domain.ValidationError {
	return &domain.ValidationError{Code: code, Message: reasonText(code, "en")}
}
