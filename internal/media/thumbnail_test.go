package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"media-bridge/internal/database"
	"media-bridge/internal/mediatypes"
)

func newTestRenderer(t *testing.T) (*Renderer, string) {
	t.Helper()
	dir := t.TempDir()
	return NewRenderer(dir), dir
}

func TestImageThumbnailIsExactSquare(t *testing.T) {
	r, dir := newTestRenderer(t)
	createTestImage(t, filepath.Join(dir, "wide.jpg"), 1920, 1080, "jpeg")
	asset := database.Asset{ID: "1", Path: "wide.jpg", Kind: mediatypes.FileTypeImage}

	data, err := r.Thumbnail(context.Background(), asset, ThumbnailOptions{Size: 200, Quality: 70})
	if err != nil {
		t.Fatalf("Thumbnail() error = %v", err)
	}
	if w, h := decodeJPEGSize(t, data); w != 200 || h != 200 {
		t.Errorf("thumbnail size = %dx%d, want 200x200", w, h)
	}
}

func TestImageThumbnailDefaults(t *testing.T) {
	r, dir := newTestRenderer(t)
	createTestImage(t, filepath.Join(dir, "a.png"), 300, 100, "png")
	asset := database.Asset{ID: "1", Path: "a.png", Kind: mediatypes.FileTypeImage}

	zero, err := r.Thumbnail(context.Background(), asset, ThumbnailOptions{})
	if err != nil {
		t.Fatalf("Thumbnail() error = %v", err)
	}
	explicit, err := r.Thumbnail(context.Background(), asset, ThumbnailOptions{Size: 120, Quality: 80})
	if err != nil {
		t.Fatalf("Thumbnail() error = %v", err)
	}
	if string(zero) != string(explicit) {
		t.Error("zero options should render identically to size 120 quality 80")
	}
	if w, h := decodeJPEGSize(t, zero); w != 120 || h != 120 {
		t.Errorf("default thumbnail size = %dx%d, want 120x120", w, h)
	}
}

func TestThumbnailAsDataURL(t *testing.T) {
	r, dir := newTestRenderer(t)
	createTestImage(t, filepath.Join(dir, "a.jpg"), 64, 64, "jpeg")
	asset := database.Asset{ID: "1", Path: "a.jpg", Kind: mediatypes.FileTypeImage}

	data, err := r.Thumbnail(context.Background(), asset, ThumbnailOptions{AsDataURL: true})
	if err != nil {
		t.Fatalf("Thumbnail() error = %v", err)
	}
	if !strings.HasPrefix(string(data), "data:image/jpeg;base64,") {
		t.Errorf("Thumbnail(AsDataURL) = %.40q..., want data URL", data)
	}
}

func TestThumbnailNoMediaData(t *testing.T) {
	r, dir := newTestRenderer(t)
	if err := os.WriteFile(filepath.Join(dir, "empty.jpg"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "garbage.jpg"), []byte("not an image at all"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing file", "missing.jpg"},
		{"empty file", "empty.jpg"},
		{"undecodable file", "garbage.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asset := database.Asset{ID: "x", Path: tt.path, Kind: mediatypes.FileTypeImage}
			_, err := r.Thumbnail(context.Background(), asset, ThumbnailOptions{})
			if !errors.Is(err, ErrNoMediaData) {
				t.Errorf("Thumbnail() error = %v, want ErrNoMediaData", err)
			}
		})
	}
}

func TestThumbnailUnsupportedKind(t *testing.T) {
	r, _ := newTestRenderer(t)
	asset := database.Asset{ID: "x", Path: "song.mp3", Kind: mediatypes.FileTypeAudio}
	if _, err := r.Thumbnail(context.Background(), asset, ThumbnailOptions{}); err == nil {
		t.Error("Thumbnail() of audio asset should fail")
	}
}

func TestVideoThumbnailKeepsAspect(t *testing.T) {
	r, dir := newTestRenderer(t)
	createTestVideo(t, filepath.Join(dir, "clip.mp4"), 1920, 1080)
	asset := database.Asset{ID: "v", Path: "clip.mp4", Kind: mediatypes.FileTypeVideo}

	data, err := r.Thumbnail(context.Background(), asset, ThumbnailOptions{Size: 200})
	if err != nil {
		t.Fatalf("Thumbnail() error = %v", err)
	}
	if w, h := decodeJPEGSize(t, data); w != 200 || h != 112 {
		t.Errorf("video thumbnail size = %dx%d, want 200x112", w, h)
	}
}

func TestVideoThumbnailProbeFailureSurfaces(t *testing.T) {
	r, dir := newTestRenderer(t)
	createTestVideo(t, filepath.Join(dir, "probe-check.mp4"), 32, 32)
	if err := os.WriteFile(filepath.Join(dir, "broken.mp4"), []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}

	asset := database.Asset{ID: "v", Path: "broken.mp4", Kind: mediatypes.FileTypeVideo}
	_, err := r.Thumbnail(context.Background(), asset, ThumbnailOptions{})
	if err == nil || !strings.Contains(err.Error(), "ffprobe") {
		t.Errorf("Thumbnail() error = %v, want ffprobe failure", err)
	}
}

func TestImageFullResolution(t *testing.T) {
	r, dir := newTestRenderer(t)
	createTestImage(t, filepath.Join(dir, "full.png"), 320, 240, "png")
	asset := database.Asset{ID: "f", Path: "full.png", Kind: mediatypes.FileTypeImage}

	data, err := r.Image(context.Background(), asset)
	if err != nil {
		t.Fatalf("Image() error = %v", err)
	}
	if w, h := decodeJPEGSize(t, data); w != 320 || h != 240 {
		t.Errorf("Image() size = %dx%d, want 320x240", w, h)
	}
}

func TestThumbnailStatus(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "success"},
		{ErrNoMediaData, "error_no_data"},
		{ErrThumbnailEncodingFailed, "error_encode"},
		{errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		if got := thumbnailStatus(tt.err); got != tt.want {
			t.Errorf("thumbnailStatus(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
