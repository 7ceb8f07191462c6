// Command mediactl reads the media library from the command line.
//
// It opens the same SQLite index and media directory as the server and runs
// one library operation per invocation:
//
//	mediactl index
//	mediactl collections --mode ALBUMS
//	mediactl photos --offset 20 --limit 20 --collection <id>
//	mediactl thumbnail <id> --size 256 -o thumb.jpg
//	mediactl export <id> -o clip.mov
//
// Listings are printed as JSON. Binary renditions are written to --output,
// or to standard output when it is not a terminal.
//
// # Environment
//
//   - MEDIA_DIR: media directory (default /media)
//   - DATABASE_DIR: directory holding media.db (default /database)
//   - LOG_LEVEL: logging level (debug/info/warn/error)
package main
