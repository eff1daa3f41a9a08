package wizard

import "github.com/MezriHC/Better-Ads-sub000/internal/domain"

// presetVoices is the fixed catalog the SelectVoice stage validates against.
var presetVoices = []domain.Voice{
	{ID: "voice-ava", Name: "Ava", Language: "en-US", Gender: "female"},
	{ID: "voice-noah", Name: "Noah", Language: "en-US", Gender: "male"},
	{ID: "voice-emma", Name: "Emma", Language: "en-GB", Gender: "female"},
	{ID: "voice-lucas", Name: "Lucas", Language: "fr-FR", Gender: "male"},
	{ID: "voice-chloe", Name: "Chloé", Language: "fr-FR", Gender: "female"},
	{ID: "voice-mateo", Name: "Mateo", Language: "es-ES", Gender: "male"},
}

// Voices returns the selectable preset voices.
func Voices() []domain.Voice {
	out := make([]domain.Voice, len(presetVoices))
	copy(out, presetVoices)
	return out
}

// FindVoice looks a preset voice up by id.
func FindVoice(id string) (domain.Voice, bool) {
	for _, v := range presetVoices {
		if v.ID == id {
			return v, true
		}
	}
	return domain.Voice{}, false
}
