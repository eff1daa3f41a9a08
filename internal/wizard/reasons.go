package wizard

// Gate rejection reason codes. The gate returns codes so it stays a pure
// function; the transport layer renders them in the request locale.
const (
	ReasonMethodRequired       = "method_required"
	ReasonPromptRequired       = "prompt_required"
	ReasonActorImageRequired   = "actor_image_required"
	ReasonUploadNotResolved    = "upload_not_resolved"
	ReasonVoiceRequired        = "voice_required"
	ReasonAlreadyLaunched      = "already_launched"
	ReasonNoFurtherStage       = "no_further_stage"
	ReasonBehaviorAndImage     = "behavior_and_image_required"
	ReasonGenerationInProgress = "generation_in_progress"
)

var reasonMessages = map[string]map[string]string{
	ReasonMethodRequired: {
		"en": "choose how to create your actor first",
		"fr": "choisissez d'abord comment créer votre acteur",
	},
	ReasonPromptRequired: {
		"en": "describe the actor before generating",
		"fr": "décrivez l'acteur avant de générer",
	},
	ReasonActorImageRequired: {
		"en": "add an image and describe the behavior",
		"fr": "ajoutez une image et décrivez le comportement",
	},
	ReasonUploadNotResolved: {
		"en": "wait for the upload to finish before continuing",
		"fr": "attendez la fin du téléversement avant de continuer",
	},
	ReasonVoiceRequired: {
		"en": "select a voice for your actor",
		"fr": "sélectionnez une voix pour votre acteur",
	},
	ReasonAlreadyLaunched: {
		"en": "training has already been submitted",
		"fr": "l'entraînement a déjà été soumis",
	},
	ReasonNoFurtherStage: {
		"en": "this is the final step",
		"fr": "ceci est la dernière étape",
	},
	ReasonBehaviorAndImage: {
		"en": "add an image and describe the behavior",
		"fr": "ajoutez une image et décrivez le comportement",
	},
	ReasonGenerationInProgress: {
		"en": "a generation is already in progress",
		"fr": "une génération est déjà en cours",
	},
}

// ReasonText renders a reason code in the given locale, falling back to
// English, then to the raw code.
func ReasonText(code, locale string) string {
	return reasonText(code, locale)
}

func reasonText(code, locale string) string {
	msgs, ok := reasonMessages[code]
	if !ok {
		return code
	}
	if msg, ok := msgs[locale]; ok {
		return msg
	}
	return msgs["en"]
}
