/*
Package workers sizes the worker pools used by the indexer and the video
exporter.

Go 1.19+ sets GOMAXPROCS from the container CPU limit, while runtime.NumCPU
still reports the host's CPUs. Pool sizes are therefore derived from
GOMAXPROCS:

	// Wrong: Returns 64 (host CPUs), ignores container limit
	workers := runtime.NumCPU()

	// Correct: Returns 2 (respects container limit)
	workers := runtime.GOMAXPROCS(0)

# Usage

	n := workers.ForIndexing(cfg.IndexWorkers) // INDEX_WORKERS, 0 for auto
	e := workers.ForExports(cfg.ExportWorkers) // EXPORT_WORKERS, 0 for auto

	// Custom pools: 3 workers per CPU, at most 24, no override
	n := workers.Count(0, 3.0, 24)

With a CPU limit of 2, ForIndexing(0) returns 3 and ForExports(0) returns 1.

All functions are safe for concurrent use.
*/
package workers
