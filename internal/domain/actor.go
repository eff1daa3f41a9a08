package domain

import "time"

// Stage enumerates the wizard steps for actor creation.
type Stage string

const (
	StageGetStarted     Stage = "get_started"
	StageDefineActor    Stage = "define_actor"
	StageSelectActor    Stage = "select_actor"
	StageSelectVoice    Stage = "select_voice"
	StageLaunchTraining Stage = "launch_training"
)

// Method enumerates how the actor image is produced.
type Method string

const (
	MethodUnset    Method = ""
	MethodGenerate Method = "generate"
	MethodUpload   Method = "upload"
)

// AssetKind enumerates asset types.
type AssetKind string

const (
	AssetKindImage AssetKind = "image"
	AssetKindVideo AssetKind = "video"
)

// AssetOrigin records where an asset came from.
type AssetOrigin string

const (
	AssetOriginGenerated AssetOrigin = "generated"
	AssetOriginUploaded  AssetOrigin = "uploaded"
)

// Asset represents a generated or uploaded artifact referenced by the session.
type Asset struct {
	ID        string
	URL       string
	Kind      AssetKind
	Origin    AssetOrigin
	Width     int
	Height    int
	CreatedAt time.Time
}

// Voice describes a selectable preset voice for the talking avatar. It is
// serialized as-is by the voices endpoint.
type Voice struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"`
	Gender   string `json:"gender"`
}
