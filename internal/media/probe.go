package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"media-bridge/internal/logging"
)

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration   string            `json:"duration"`
	FormatName string            `json:"format_name"`
	Tags       map[string]string `json:"tags"`
}

type ffprobeStream struct {
	CodecName    string            `json:"codec_name"`
	CodecType    string            `json:"codec_type"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	Tags         map[string]string `json:"tags"`
	SideDataList []struct {
		SideDataType string  `json:"side_data_type"`
		Rotation     float64 `json:"rotation"`
	} `json:"side_data_list"`
}

// VideoInfo is what ffprobe reports about a video file.
type VideoInfo struct {
	Width     int // coded width, before rotation
	Height    int
	Rotation  int // clockwise degrees, one of 0, 90, 180, 270
	Duration  float64
	Codec     string
	Format    string
	CreatedAt time.Time
	Latitude  *float64
	Longitude *float64
}

// DisplaySize returns the frame size with rotation applied.
func (v *VideoInfo) DisplaySize() (int, int) {
	if v.Rotation == 90 || v.Rotation == 270 {
		return v.Height, v.Width
	}
	return v.Width, v.Height
}

// ProbeVideo runs ffprobe on path.
func ProbeVideo(ctx context.Context, path string) (*VideoInfo, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}

	return parseProbeOutput(stdout.Bytes())
}

func parseProbeOutput(data []byte) (*VideoInfo, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &VideoInfo{Format: probe.Format.FormatName}
	if d, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
		info.Duration = d
	}

	for key, value := range probe.Format.Tags {
		switch strings.ToLower(key) {
		case "creation_time":
			if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
				info.CreatedAt = t
			}
		case "location", "location-eng", "com.apple.quicktime.location.iso6709":
			if info.Latitude == nil {
				if lat, lon, ok := ParseISO6709(value); ok {
					info.Latitude, info.Longitude = &lat, &lon
				}
			}
		}
	}

	found := false
	for _, s := range probe.Streams {
		if s.CodecType != "video" || found {
			continue
		}
		found = true
		info.Width, info.Height = s.Width, s.Height
		info.Codec = s.CodecName
		info.Rotation = streamRotation(s)
		if info.CreatedAt.IsZero() {
			if t, err := time.Parse(time.RFC3339Nano, s.Tags["creation_time"]); err == nil {
				info.CreatedAt = t
			}
		}
	}

	if !found {
		return nil, fmt.Errorf("no video stream found")
	}

	logging.Debug("ffprobe: %dx%d rotation=%d codec=%s duration=%.2fs", info.Width, info.Height, info.Rotation, info.Codec, info.Duration)
	return info, nil
}

// streamRotation normalizes the rotate tag or display matrix to clockwise
// degrees. The display matrix reports counter-clockwise rotation.
func streamRotation(s ffprobeStream) int {
	deg := 0.0
	if r, err := strconv.ParseFloat(s.Tags["rotate"], 64); err == nil {
		deg = r
	} else {
		for _, sd := range s.SideDataList {
			if sd.SideDataType == "Display Matrix" {
				deg = -sd.Rotation
				break
			}
		}
	}
	n := int(math.Round(deg)) % 360
	if n < 0 {
		n += 360
	}
	return n
}

var iso6709Pattern = regexp.MustCompile(`^([+-]\d+(?:\.\d+)?)([+-]\d+(?:\.\d+)?)(?:[+-]\d+(?:\.\d+)?)?(?:CRS[^/]*)?/?$`)

// ParseISO6709 parses a location such as "+37.7749-122.4194+010.000/".
func ParseISO6709(value string) (lat, lon float64, ok bool) {
	m := iso6709Pattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return 0, 0, false
	}
	lat, err1 := strconv.ParseFloat(m[1], 64)
	lon, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, false
	}
	return lat, lon, true
}
