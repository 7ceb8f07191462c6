package indexer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"media-bridge/internal/database"
	"media-bridge/internal/logging"
	"media-bridge/internal/media"
	"media-bridge/internal/mediatypes"
	"media-bridge/internal/metrics"

	"github.com/evanoberholster/imagemeta"
)

// exifFormats are the image formats expected to carry EXIF. Decode failures
// on other formats are not counted as errors.
var exifFormats = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".heic": true,
	".heif": true,
	".tif":  true,
	".tiff": true,
}

// probeTimeout bounds a single ffprobe run during indexing.
const probeTimeout = 30 * time.Second

// extractMetadata fills dimensions, creation date and location of a. Missing
// metadata is not an error; the creation date falls back to the file's
// modification time.
func extractMetadata(ctx context.Context, path string, a *database.Asset) {
	switch a.Kind {
	case mediatypes.FileTypeImage:
		extractImageMetadata(path, a)
	case mediatypes.FileTypeVideo:
		extractVideoMetadata(ctx, path, a)
	}

	if a.CreatedAt.IsZero() {
		a.CreatedAt = a.ModTime
	}
}

func extractImageMetadata(path string, a *database.Asset) {
	if dims, err := media.GetImageDimensions(path); err == nil {
		a.Width, a.Height = dims.Width, dims.Height
	} else {
		logging.Debug("Could not read dimensions of %s: %v", path, err)
		metrics.IndexerMetadataErrors.WithLabelValues("config").Inc()
	}

	created, lat, lon, err := readEXIF(path)
	if err != nil {
		logging.Debug("No EXIF metadata in %s: %v", path, err)
		if exifFormats[strings.ToLower(filepath.Ext(path))] {
			metrics.IndexerMetadataErrors.WithLabelValues("exif").Inc()
		}
		return
	}

	a.CreatedAt = created
	if lat != 0 || lon != 0 {
		a.Latitude, a.Longitude = &lat, &lon
	}
}

// readEXIF returns the capture date and GPS position of an image. The date
// prefers DateTimeOriginal, then CreateDate, then ModifyDate.
func readEXIF(path string) (created time.Time, lat, lon float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, 0, 0, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logging.Warn("failed to close %s: %v", path, cerr)
		}
	}()

	exifData, err := imagemeta.Decode(f)
	if err != nil {
		return time.Time{}, 0, 0, err
	}

	for _, t := range []time.Time{exifData.DateTimeOriginal(), exifData.CreateDate(), exifData.ModifyDate()} {
		if !t.IsZero() {
			created = t
			break
		}
	}

	return created, exifData.GPS.Latitude(), exifData.GPS.Longitude(), nil
}

func extractVideoMetadata(ctx context.Context, path string, a *database.Asset) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	info, err := media.ProbeVideo(ctx, path)
	if err != nil {
		logging.Warn("Could not probe %s: %v", path, err)
		metrics.IndexerMetadataErrors.WithLabelValues("ffprobe").Inc()
		return
	}

	a.Width, a.Height = info.DisplaySize()
	a.Orientation = info.Rotation
	a.Duration = info.Duration
	a.CreatedAt = info.CreatedAt
	a.Latitude, a.Longitude = info.Latitude, info.Longitude
}
