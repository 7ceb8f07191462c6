package media

import (
	"encoding/base64"
	"strconv"
	"strings"
)

const (
	// DefaultThumbnailSize is the edge length used when none is requested.
	DefaultThumbnailSize = 120
	// DefaultThumbnailQuality is the JPEG quality used when none is requested.
	DefaultThumbnailQuality = 80
	// FullImageQuality is used for full resolution renditions.
	FullImageQuality = 100

	dataURLPrefix = "data:image/jpeg;base64,"
)

// ThumbnailOptions controls a thumbnail rendition.
type ThumbnailOptions struct {
	Size      int
	Quality   int
	AsDataURL bool
}

// WithDefaults substitutes defaults for non-positive values and clamps the
// quality to 100.
func (o ThumbnailOptions) WithDefaults() ThumbnailOptions {
	if o.Size <= 0 {
		o.Size = DefaultThumbnailSize
	}
	if o.Quality <= 0 {
		o.Quality = DefaultThumbnailQuality
	}
	if o.Quality > 100 {
		o.Quality = 100
	}
	return o
}

// ParseThumbnailOptions reads dimension, quality and asDataUrl from string
// values as they arrive from a query string. Unparseable numbers fall back to
// the defaults.
func ParseThumbnailOptions(dimension, quality, asDataURL string) ThumbnailOptions {
	size, _ := strconv.Atoi(strings.TrimSpace(dimension))
	q, _ := strconv.Atoi(strings.TrimSpace(quality))
	flag, _ := strconv.ParseBool(strings.TrimSpace(asDataURL))
	return ThumbnailOptions{Size: size, Quality: q, AsDataURL: flag}.WithDefaults()
}

// DataURL wraps JPEG bytes in a data URL.
func DataURL(jpegData []byte) string {
	return dataURLPrefix + base64.StdEncoding.EncodeToString(jpegData)
}

// VideoThumbnailBox returns the largest box within size x size that keeps the
// aspect ratio of a width x height frame. The short side is truncated.
func VideoThumbnailBox(width, height, size int) (int, int) {
	if width <= 0 || height <= 0 {
		return size, size
	}
	aspect := float64(width) / float64(height)
	if width > height {
		return size, max(1, int(float64(size)/aspect))
	}
	return max(1, int(float64(size)*aspect)), size
}
