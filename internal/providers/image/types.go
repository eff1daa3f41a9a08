package image

import "context"

// GenerateRequest describes a normalized batch request passed to any image provider.
type GenerateRequest struct {
	Prompt       string
	ReferenceURL string
	Quantity     int
	AspectRatio  string
	RequestID    string
	Locale       string
}

// Asset represents one generated candidate image.
type Asset struct {
	URL    string
	Format string
	Width  int
	Height int
}

// Generator is the contract implemented by all image providers. Providers
// block until the whole batch is ready or return an error; there is no
// asynchronous path for image batches.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) ([]Asset, error)
}
