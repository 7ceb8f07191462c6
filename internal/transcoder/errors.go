package transcoder

import "errors"

var (
	// ErrNoSupportedOutputType is returned when the source codec cannot be
	// stream-copied into any known container.
	ErrNoSupportedOutputType = errors.New("no supported output file type")

	// ErrExportFailed wraps the underlying ffmpeg failure.
	ErrExportFailed = errors.New("export failed")

	// ErrExportCancelled is reported when the export context is cancelled.
	ErrExportCancelled = errors.New("export cancelled")

	// ErrUnknownExport is returned for tokens that do not name a retained file.
	ErrUnknownExport = errors.New("unknown export token")
)
