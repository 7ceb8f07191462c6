package library

import (
	"errors"

	"media-bridge/internal/media"
	"media-bridge/internal/transcoder"
)

// Errors returned by Service operations.
var (
	ErrPermissionRequired        = errors.New("access to photo library permission required")
	ErrUnsupportedCollectionMode = errors.New("unsupported collection mode")
	ErrBusy                      = errors.New("fetching of photo assets is in progress")
	ErrAssetIDMissing            = errors.New("photo id is undefined")
	ErrAssetNotFound             = errors.New("photo with specified id wasn't found")
	ErrAssetWrongKind            = errors.New("asset is neither image nor video")
)

// Errors raised by the renderer and the exporter.
var (
	ErrNoMediaData             = media.ErrNoMediaData
	ErrThumbnailEncodingFailed = media.ErrThumbnailEncodingFailed
	ErrNoSupportedOutputType   = transcoder.ErrNoSupportedOutputType
	ErrExportFailed            = transcoder.ErrExportFailed
	ErrExportCancelled         = transcoder.ErrExportCancelled
)
