// Package transcoder exports library videos to standalone files using FFmpeg.
//
// An export probes the source, picks an output container the source codec
// can be stream-copied into, and runs ffmpeg in the background. Progress and
// the single terminal outcome are delivered on the job's event channel.
// Each job writes into its own token directory under the export directory.
// Completed files stay on disk until the caller releases them or the
// retention period lapses.
//
// FFmpeg and FFprobe must be installed and available in the system PATH.
package transcoder
