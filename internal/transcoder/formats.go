package transcoder

import (
	"strings"
)

// outputTypes lists, per source codec, the containers a stream copy can
// produce. Order is preference after .mov.
var outputTypes = map[string][]string{
	"h264":   {"mov", "mp4", "m4v"},
	"hevc":   {"mov", "mp4", "m4v"},
	"mpeg4":  {"mov", "mp4", "m4v"},
	"prores": {"mov"},
	"mjpeg":  {"mov", "avi"},
	"vp8":    {"webm", "mkv"},
	"vp9":    {"webm", "mkv", "mp4"},
	"av1":    {"mp4", "mkv", "webm"},
}

// SupportedOutputTypes returns the file extensions an export of a video with
// the given codec can be written as.
func SupportedOutputTypes(codec string) []string {
	return outputTypes[strings.ToLower(strings.TrimSpace(codec))]
}

// ChooseOutputType picks .mov when supported, otherwise the first supported
// type.
func ChooseOutputType(supported []string) (string, error) {
	if len(supported) == 0 {
		return "", ErrNoSupportedOutputType
	}
	for _, ext := range supported {
		if ext == "mov" {
			return ext, nil
		}
	}
	return supported[0], nil
}

// exportFileName builds the output file name for an asset. Path separators in
// the identifier are replaced so the file lands directly in the export
// directory.
func exportFileName(assetID, ext string) string {
	name := strings.NewReplacer("/", "_", "\\", "_").Replace(assetID)
	return name + "." + ext
}

// muxerArgs returns container specific flags for ffmpeg.
func muxerArgs(ext string) []string {
	switch ext {
	case "mov", "mp4", "m4v":
		return []string{"-movflags", "+faststart"}
	default:
		return nil
	}
}
