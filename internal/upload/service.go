// Package upload resolves locally-picked actor images to durable URLs. A
// local-only preview never satisfies the select-actor gate; only the URL this
// service returns does.
package upload

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MezriHC/Better-Ads-sub000/internal/domain"
	"github.com/MezriHC/Better-Ads-sub000/internal/storage"
)

const maxUploadBytes = 10 << 20

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// Service stores uploaded files and hands back publicly addressable assets.
type Service struct {
	store   *storage.FileStore
	baseURL string
}

// NewService creates an upload service writing through the given store. The
// base URL is prepended to storage keys to form durable asset URLs.
func NewService(store *storage.FileStore, baseURL string) *Service {
	return &Service{store: store, baseURL: strings.TrimRight(baseURL, "/")}
}

// Upload persists the file and returns the resolved asset. Failures leave no
// session state behind; callers attach the asset only on success.
func (s *Service) Upload(ctx context.Context, filename string, data []byte) (domain.Asset, error) {
	ext := strings.ToLower(path.Ext(filename))
	if !allowedExtensions[ext] {
		return domain.Asset{}, &domain.UploadError{Filename: filename, Err: errors.New("unsupported file type")}
	}
	if len(data) == 0 {
		return domain.Asset{}, &domain.UploadError{Filename: filename, Err: errors.New("empty file")}
	}
	if len(data) > maxUploadBytes {
		return domain.Asset{}, &domain.UploadError{Filename: filename, Err: errors.New("file too large")}
	}

	id := uuid.NewString()
	key := fmt.Sprintf("uploads/%s%s", id, ext)
	storedKey, err := s.store.Write(ctx, key, data)
	if err != nil {
		return domain.Asset{}, &domain.UploadError{Filename: filename, Err: err}
	}

	return domain.Asset{
		ID:        id,
		URL:       s.baseURL + "/" + storedKey,
		Kind:      domain.AssetKindImage,
		Origin:    domain.AssetOriginUploaded,
		CreatedAt: time.Now(),
	}, nil
}

// ContentType guesses the MIME type for a stored asset URL.
func ContentType(url string) string {
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(url))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
