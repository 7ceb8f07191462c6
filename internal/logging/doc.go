// Package logging provides leveled printf-style logging for the media
// bridge server and the mediactl CLI.
//
// Levels, lowest first:
//   - DEBUG: per-asset decisions (skipped assets, cache hits)
//   - INFO: lifecycle and request summaries
//   - WARN: recoverable problems
//   - ERROR: failed operations
//   - FATAL: startup failures that terminate the process
//
// The level is read once from DEBUG or LOG_LEVEL. SetLevel overrides it.
package logging
