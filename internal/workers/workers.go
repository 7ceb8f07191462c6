package workers

import (
	"runtime"
)

// Count returns the number of workers for a pool. A positive override, as
// configured by the operator, wins; otherwise the count is derived from
// GOMAXPROCS, which follows container CPU limits.
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks
//   - 2.0 for I/O-bound tasks
//   - 1.5 for mixed tasks
//
// The limit parameter caps the worker count, overrides included. Use 0 for
// no limit.
func Count(override int, multiplier float64, limit int) int {
	workers := override
	if workers <= 0 {
		workers = int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	}

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForIndexing returns the metadata extraction pool size. Indexing reads
// files, parses EXIF and runs ffprobe, so it is a mixed workload.
func ForIndexing(override int) int {
	return Count(override, 1.5, 16)
}

// ForExports returns how many ffmpeg exports may run at once. Stream copies
// are disk bound and each holds a whole output file, so the pool stays small.
func ForExports(override int) int {
	return Count(override, 0.5, 4)
}
