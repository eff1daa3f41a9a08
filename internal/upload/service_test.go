package upload

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/MezriHC/Better-Ads-sub000/internal/domain"
	"github.com/MezriHC/Better-Ads-sub000/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	return NewService(store, "https://assets.test/")
}

func TestUploadResolvesDurableURL(t *testing.T) {
	svc := newTestService(t)
	data := []byte("\x89PNG\r\n fake image bytes")

	asset, err := svc.Upload(context.Background(), "portrait.png", data)
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if asset.Origin != domain.AssetOriginUploaded {
		t.Fatalf("origin = %q, want uploaded", asset.Origin)
	}
	if asset.Kind != domain.AssetKindImage {
		t.Fatalf("kind = %q, want image", asset.Kind)
	}
	if !strings.HasPrefix(asset.URL, "https://assets.test/uploads/") {
		t.Fatalf("url = %q, want assets.test/uploads prefix", asset.URL)
	}
	if !strings.HasSuffix(asset.URL, ".png") {
		t.Fatalf("url = %q, want .png suffix", asset.URL)
	}
}

func TestUploadRoundTripsThroughStore(t *testing.T) {
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	svc := NewService(store, "https://assets.test")
	data := []byte("jpeg bytes")

	asset, err := svc.Upload(context.Background(), "photo.JPG", data)
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	key := strings.TrimPrefix(asset.URL, "https://assets.test/")
	stored, err := store.Read(context.Background(), key)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(stored, data) {
		t.Fatalf("stored bytes differ: got %d bytes, want %d", len(stored), len(data))
	}
}

func TestUploadRejections(t *testing.T) {
	svc := newTestService(t)
	tests := []struct {
		name     string
		filename string
		data     []byte
	}{
		{"unsupported extension", "malware.exe", []byte("mz")},
		{"no extension", "portrait", []byte("data")},
		{"empty file", "portrait.png", nil},
		{"oversized file", "huge.png", make([]byte, maxUploadBytes+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), tt.filename, tt.data)
			var uploadErr *domain.UploadError
			if !errors.As(err, &uploadErr) {
				t.Fatalf("Upload error = %v, want UploadError", err)
			}
			if uploadErr.Filename != tt.filename {
				t.Fatalf("error filename = %q, want %q", uploadErr.Filename, tt.filename)
			}
		})
	}
}

func TestContentType(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://assets.test/uploads/a.png", "image/png"},
		{"https://assets.test/uploads/a.webp", "image/webp"},
		{"https://assets.test/uploads/a", "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := ContentType(tt.url); got != tt.want {
			t.Fatalf("ContentType(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
