package media

import "errors"

var (
	// ErrNoMediaData is returned when an asset has no decodable image data.
	ErrNoMediaData = errors.New("specified asset has no data")

	// ErrThumbnailEncodingFailed is returned when a decoded image cannot be
	// encoded as JPEG.
	ErrThumbnailEncodingFailed = errors.New("cannot get a thumbnail of asset")
)
