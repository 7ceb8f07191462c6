package mediatypes

import (
	"strings"
	"testing"
)

func TestGetFileType(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		want FileType
	}{
		{name: "JPEG image", ext: ".jpg", want: FileTypeImage},
		{name: "WebP image", ext: ".webp", want: FileTypeImage},
		{name: "MP4 video", ext: ".mp4", want: FileTypeVideo},
		{name: "MKV video", ext: ".mkv", want: FileTypeVideo},
		{name: "WebM video", ext: ".webm", want: FileTypeVideo},
		{name: "MP3 audio", ext: ".mp3", want: FileTypeAudio},
		{name: "Unknown extension", ext: ".xyz", want: FileTypeOther},
		{name: "Empty extension", ext: "", want: FileTypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetFileType(tt.ext); got != tt.want {
				t.Errorf("GetFileType(%q) = %v, want %v", tt.ext, got, tt.want)
			}
		})
	}
}

func TestGetMimeType(t *testing.T) {
	if got := GetMimeType(".mov"); got != "video/quicktime" {
		t.Errorf("GetMimeType(.mov) = %q, want video/quicktime", got)
	}
	if got := GetMimeType(".nope"); got != "application/octet-stream" {
		t.Errorf("GetMimeType(.nope) = %q, want application/octet-stream", got)
	}
}

func TestStoreTypesCoverClassification(t *testing.T) {
	for ext := range classificationTable {
		if !IsMediaFile("." + strings.ToLower(ext)) {
			t.Errorf("classified extension %s is not indexed", ext)
		}
	}
}
