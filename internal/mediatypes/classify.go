package mediatypes

import (
	"regexp"
	"strings"
)

// MediaKind is the kind reported to bridge callers. It is derived from the
// MIME type prefix of a classification.
type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
	KindAudio MediaKind = "audio"
)

// Classification is the result of classifying a filename.
type Classification struct {
	Name      string // filename without extension
	Extension string // upper-case, no dot
	MimeType  string
	Kind      MediaKind
}

var filenamePattern = regexp.MustCompile(`(?i)^(.+)\.([a-z]{3,4})$`)

// classificationTable is keyed by upper-case extension. HEIC is reported as
// JPEG because renditions handed to callers are always JPEG.
var classificationTable = map[string]string{
	"JPG":  "image/jpeg",
	"JPEG": "image/jpeg",
	"PNG":  "image/png",
	"GIF":  "image/gif",
	"TIF":  "image/tiff",
	"TIFF": "image/tiff",
	"HEIC": "image/jpeg",
	"MP4":  "video/mp4",
	"MOV":  "video/quicktime",
	"AVI":  "video/x-msvideo",
	"MPEG": "video/mpeg",
	"MPG":  "video/mpeg",
	"M4V":  "video/mp4",
	"M4A":  "audio/mp4",
	"AAC":  "audio/mp4",
	"MP3":  "audio/mp3",
	"WAV":  "audio/wav",
	"WMA":  "audio/x-ms-wma",
}

// Classify splits filename into base name and extension and looks the
// extension up in the fixed classification table. It reports false when the
// filename does not have a 3-4 letter extension or the extension is not in
// the table.
func Classify(filename string) (Classification, bool) {
	m := filenamePattern.FindStringSubmatch(filename)
	if m == nil {
		return Classification{}, false
	}
	ext := strings.ToUpper(m[2])
	mime, ok := classificationTable[ext]
	if !ok {
		return Classification{}, false
	}
	kind, _, _ := strings.Cut(mime, "/")
	return Classification{
		Name:      m[1],
		Extension: ext,
		MimeType:  mime,
		Kind:      MediaKind(kind),
	}, true
}
