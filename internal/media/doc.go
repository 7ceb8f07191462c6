// Package media renders JPEG renditions of library assets.
//
// Image thumbnails are resized to an exact square box, through libvips when
// it is initialized and through imaging otherwise. Video thumbnails are the
// first frame, extracted with ffmpeg and scaled to fit the box with the
// aspect ratio kept. Full images are re-encoded at maximum quality with EXIF
// orientation applied.
//
// ProbeVideo and ParseISO6709 are shared with the indexer and the exporter.
package media
