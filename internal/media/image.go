package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"os"
	"os/exec"
	"strings"

	"media-bridge/internal/logging"

	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Bounds applied to every decoded image before it is resized or encoded.
const (
	MaxImageDimension = 8192
	MaxImagePixels    = 40_000_000
)

// LoadImageConstrained decodes the image at path with EXIF orientation
// applied and shrinks it to fit maxDimension and maxPixels. Formats the Go
// decoders cannot read, HEIC among them, go through ffmpeg.
func LoadImageConstrained(ctx context.Context, path string, maxDimension, maxPixels int) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		logging.Debug("Go decoders cannot read %s (%v), using ffmpeg", path, err)
		if img, err = decodeWithFFmpeg(ctx, path); err != nil {
			return nil, err
		}
	}

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	fw, fh := fitWithin(w, h, maxDimension, maxPixels)
	if fw == w && fh == h {
		return img, nil
	}

	logging.Debug("Shrinking %s from %dx%d to %dx%d after decode", path, w, h, fw, fh)
	return imaging.Resize(img, fw, fh, imaging.Lanczos), nil
}

// fitWithin scales w x h down, keeping the aspect ratio, until neither edge
// exceeds maxDimension and the area does not exceed maxPixels.
func fitWithin(w, h, maxDimension, maxPixels int) (int, int) {
	if w <= 0 || h <= 0 {
		return w, h
	}

	scale := 1.0
	if longest := max(w, h); longest > maxDimension {
		scale = float64(maxDimension) / float64(longest)
	}
	if area := float64(w) * float64(h) * scale * scale; area > float64(maxPixels) {
		scale *= math.Sqrt(float64(maxPixels) / area)
	}
	if scale >= 1 {
		return w, h
	}
	return max(1, int(float64(w)*scale)), max(1, int(float64(h)*scale))
}

// decodeWithFFmpeg has ffmpeg convert the first frame of path to PNG.
func decodeWithFFmpeg(ctx context.Context, path string) (image.Image, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg", "-v", "error", "-i", path,
		"-frames:v", "1", "-f", "image2pipe", "-vcodec", "png", "-")

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode of %s failed: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: ffmpeg produced no frame for %s", ErrNoMediaData, path)
	}

	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("failed to decode ffmpeg output: %w", err)
	}
	return img, nil
}

// ImageDimensions is the pixel size stored for an image asset.
type ImageDimensions struct {
	Width  int
	Height int
}

// GetImageDimensions reads only the image header of path.
func GetImageDimensions(path string) (*ImageDimensions, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, err
	}
	return &ImageDimensions{Width: cfg.Width, Height: cfg.Height}, nil
}

// encodeJPEG encodes img at quality. Failures wrap ErrThumbnailEncodingFailed.
func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	if img == nil {
		return nil, ErrNoMediaData
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrThumbnailEncodingFailed, err)
	}
	return buf.Bytes(), nil
}
