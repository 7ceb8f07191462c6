package media

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestThumbnailOptionsWithDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   ThumbnailOptions
		want ThumbnailOptions
	}{
		{"zero values", ThumbnailOptions{}, ThumbnailOptions{Size: 120, Quality: 80}},
		{"negative values", ThumbnailOptions{Size: -5, Quality: -1}, ThumbnailOptions{Size: 120, Quality: 80}},
		{"explicit values", ThumbnailOptions{Size: 200, Quality: 55, AsDataURL: true}, ThumbnailOptions{Size: 200, Quality: 55, AsDataURL: true}},
		{"quality clamped", ThumbnailOptions{Size: 10, Quality: 250}, ThumbnailOptions{Size: 10, Quality: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.WithDefaults(); got != tt.want {
				t.Errorf("WithDefaults() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseThumbnailOptions(t *testing.T) {
	tests := []struct {
		dimension, quality, asDataURL string
		want                          ThumbnailOptions
	}{
		{"", "", "", ThumbnailOptions{Size: 120, Quality: 80}},
		{"200", "90", "true", ThumbnailOptions{Size: 200, Quality: 90, AsDataURL: true}},
		{"abc", "x", "maybe", ThumbnailOptions{Size: 120, Quality: 80}},
		{"0", "0", "1", ThumbnailOptions{Size: 120, Quality: 80, AsDataURL: true}},
	}

	for _, tt := range tests {
		got := ParseThumbnailOptions(tt.dimension, tt.quality, tt.asDataURL)
		if got != tt.want {
			t.Errorf("ParseThumbnailOptions(%q, %q, %q) = %+v, want %+v", tt.dimension, tt.quality, tt.asDataURL, got, tt.want)
		}
	}
}

func TestDataURL(t *testing.T) {
	payload := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01}
	got := DataURL(payload)

	if !strings.HasPrefix(got, "data:image/jpeg;base64,") {
		t.Fatalf("DataURL() = %q, missing prefix", got)
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(got, "data:image/jpeg;base64,"))
	if err != nil {
		t.Fatalf("payload is not base64: %v", err)
	}
	if string(decoded) != string(payload) {
		t.Errorf("decoded payload = %v, want %v", decoded, payload)
	}
}

func TestVideoThumbnailBox(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		size          int
		wantW, wantH  int
	}{
		{"landscape 1080p", 1920, 1080, 200, 200, 112},
		{"portrait 1080p", 1080, 1920, 200, 112, 200},
		{"square", 500, 500, 120, 120, 120},
		{"2:1", 800, 400, 120, 120, 60},
		{"unknown dimensions", 0, 0, 120, 120, 120},
		{"extreme panorama", 10000, 10, 120, 120, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := VideoThumbnailBox(tt.width, tt.height, tt.size)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("VideoThumbnailBox(%d, %d, %d) = %dx%d, want %dx%d",
					tt.width, tt.height, tt.size, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}
