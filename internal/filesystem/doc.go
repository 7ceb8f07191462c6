/*
Package filesystem wraps os.Stat and os.Open with retries for NFS stale file
handle errors (ESTALE).

Media libraries are commonly mounted over NFS, where a file that was
replaced on the server briefly reports ESTALE to clients holding the old
handle. Retrying after a short backoff usually succeeds.

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

Any other error is returned immediately. Stale handle occurrences and
exhausted retries are counted in Prometheus.
*/
package filesystem
