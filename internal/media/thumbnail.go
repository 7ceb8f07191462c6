package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"media-bridge/internal/database"
	"media-bridge/internal/filesystem"
	"media-bridge/internal/logging"
	"media-bridge/internal/mediatypes"
	"media-bridge/internal/metrics"

	"github.com/disintegration/imaging"
)

// Renderer produces JPEG renditions of assets stored under a media directory.
type Renderer struct {
	mediaDir string
}

// NewRenderer creates a renderer for assets relative to mediaDir.
func NewRenderer(mediaDir string) *Renderer {
	return &Renderer{mediaDir: mediaDir}
}

// Path returns the absolute path of an asset.
func (r *Renderer) Path(asset database.Asset) string {
	return filepath.Join(r.mediaDir, filepath.FromSlash(asset.Path))
}

// Thumbnail renders a thumbnail of asset. Images are resized to exactly
// Size x Size; video frames keep their aspect ratio within that box. When
// opts.AsDataURL is set the result is the data URL text instead of JPEG bytes.
func (r *Renderer) Thumbnail(ctx context.Context, asset database.Asset, opts ThumbnailOptions) ([]byte, error) {
	opts = opts.WithDefaults()
	path := r.Path(asset)
	kind := string(asset.Kind)
	start := time.Now()

	var data []byte
	var err error
	switch asset.Kind {
	case mediatypes.FileTypeImage:
		data, err = r.imageThumbnail(ctx, path, opts)
	case mediatypes.FileTypeVideo:
		data, err = r.videoThumbnail(ctx, path, opts)
	default:
		err = fmt.Errorf("cannot render %s asset", asset.Kind)
	}

	metrics.ThumbnailGenerationDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	metrics.ThumbnailGenerationsTotal.WithLabelValues(kind, thumbnailStatus(err)).Inc()

	if err != nil {
		return nil, err
	}

	logging.Debug("Thumbnail %s: %dpx q%d, %d bytes in %v", asset.ID, opts.Size, opts.Quality, len(data), time.Since(start))

	if opts.AsDataURL {
		return []byte(DataURL(data)), nil
	}
	return data, nil
}

func thumbnailStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrNoMediaData):
		return "error_no_data"
	case errors.Is(err, ErrThumbnailEncodingFailed):
		return "error_encode"
	default:
		return "error"
	}
}

// Image renders the full image asset as a JPEG with orientation applied.
func (r *Renderer) Image(ctx context.Context, asset database.Asset) ([]byte, error) {
	path := r.Path(asset)
	if err := checkMediaData(path); err != nil {
		return nil, err
	}

	img, err := LoadImageConstrained(ctx, path, MaxImageDimension, MaxImagePixels)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoMediaData, err)
	}
	return encodeJPEG(img, FullImageQuality)
}

func checkMediaData(path string) error {
	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoMediaData, err)
	}
	if info.Size() == 0 {
		return ErrNoMediaData
	}
	return nil
}

func (r *Renderer) imageThumbnail(ctx context.Context, path string, opts ThumbnailOptions) ([]byte, error) {
	if err := checkMediaData(path); err != nil {
		return nil, err
	}

	if IsVipsAvailable() {
		data, err := thumbnailWithVips(path, opts.Size, opts.Size, opts.Quality)
		if err == nil {
			return data, nil
		}
		logging.Debug("vips thumbnail failed for %s: %v, falling back to imaging", path, err)
	}

	img, err := LoadImageConstrained(ctx, path, MaxImageDimension, MaxImagePixels)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoMediaData, err)
	}

	thumb := imaging.Resize(img, opts.Size, opts.Size, imaging.Lanczos)
	return encodeJPEG(thumb, opts.Quality)
}

// videoThumbnail grabs the frame at t=0. Probe and ffmpeg failures are
// returned unchanged.
func (r *Renderer) videoThumbnail(ctx context.Context, path string, opts ThumbnailOptions) ([]byte, error) {
	info, err := ProbeVideo(ctx, path)
	if err != nil {
		return nil, err
	}

	w, h := info.DisplaySize()
	if w <= 0 || h <= 0 {
		return nil, ErrNoMediaData
	}
	boxW, boxH := VideoThumbnailBox(w, h, opts.Size)

	frame, err := extractFrame(ctx, path, boxW, boxH)
	if err != nil {
		return nil, err
	}
	return encodeJPEG(frame, opts.Quality)
}

// extractFrame decodes the first frame of a video scaled to width x height.
// ffmpeg applies the stream rotation itself.
func extractFrame(ctx context.Context, path string, width, height int) (image.Image, error) {
	start := time.Now()
	defer func() { metrics.ThumbnailFFmpegDuration.Observe(time.Since(start).Seconds()) }()

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-v", "error",
		"-ss", "0",
		"-i", path,
		"-frames:v", "1",
		"-vf", "scale="+strconv.Itoa(width)+":"+strconv.Itoa(height),
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %v, stderr: %s", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output for %s", path)
	}

	img, _, err := image.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ffmpeg output: %w", err)
	}
	return img, nil
}
