// Package indexer keeps the asset store in sync with the media directory.
//
// Each run walks the directory tree in parallel, extracts metadata for new
// and changed files (EXIF dates and GPS for images, ffprobe for videos),
// removes assets whose files are gone and rebuilds every collection:
//   - Smart collections: the whole library, videos, photos, recently added
//     and hidden assets
//   - Albums: directories that directly contain media
//   - Folders: directories that only contain other directories
//   - Moments: one per calendar day of asset creation
//
// Files whose names start with '.' are indexed as hidden; directories whose
// names start with '.' are skipped.
//
// Runs happen at startup, on a configurable interval and on demand.
package indexer
