package media

import (
	"fmt"
	"path/filepath"
	"sync"

	"media-bridge/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
)

// vipsState tracks the process-wide libvips runtime. vips.Startup may only
// run once per process.
var vipsState struct {
	sync.Mutex
	running bool
}

// vipsLogHandler maps libvips log levels onto the application level.
func vipsLogHandler(appLevel logging.LogLevel) (vips.LogLevel, func(string, vips.LogLevel, string)) {
	forward := func(domain string, level vips.LogLevel, msg string) {
		switch level {
		case vips.LogLevelError, vips.LogLevelCritical:
			logging.Error("[%s] %s", domain, msg)
		case vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}

	switch appLevel {
	case logging.LevelDebug:
		return vips.LogLevelInfo, forward
	case logging.LevelInfo:
		return vips.LogLevelWarning, forward
	case logging.LevelWarn:
		return vips.LogLevelError, forward
	default:
		return vips.LogLevelCritical, forward
	}
}

// InitVips starts libvips with a small operation cache and routes its log
// output through the application logger. Calling it again is a no-op.
func InitVips() error {
	vipsState.Lock()
	defer vipsState.Unlock()

	if vipsState.running {
		return nil
	}

	level, handler := vipsLogHandler(logging.GetLevel())
	vips.LoggingSettings(handler, level)
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 << 20,
		MaxCacheSize:     100,
	})

	vipsState.running = true
	logging.Info("libvips %s started", vips.Version)
	return nil
}

// ShutdownVips stops libvips if it was started.
func ShutdownVips() {
	vipsState.Lock()
	defer vipsState.Unlock()

	if !vipsState.running {
		return
	}
	vips.Shutdown()
	vipsState.running = false
	logging.Debug("libvips stopped")
}

// IsVipsAvailable reports whether thumbnails can use libvips.
func IsVipsAvailable() bool {
	vipsState.Lock()
	defer vipsState.Unlock()
	return vipsState.running
}

// thumbnailWithVips renders an exact width x height JPEG using libvips
// decode-time shrinking. libvips applies the EXIF orientation before sizing.
// The aspect ratio is not preserved.
func thumbnailWithVips(path string, width, height, quality int) ([]byte, error) {
	if !IsVipsAvailable() {
		return nil, fmt.Errorf("libvips not available")
	}

	ref, err := vips.NewThumbnailWithSizeFromFile(path, width, height, vips.InterestingNone, vips.SizeForce)
	if err != nil {
		return nil, fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	data, _, err := ref.ExportJpeg(&vips.JpegExportParams{
		Quality:        quality,
		StripMetadata:  true,
		OptimizeCoding: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: vips export: %v", ErrThumbnailEncodingFailed, err)
	}

	logging.Debug("vips thumbnail for %s: %dx%d, %d bytes", filepath.Base(path), width, height, len(data))
	return data, nil
}
