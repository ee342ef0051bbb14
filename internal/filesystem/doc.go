/*
Package filesystem provides resilient filesystem operations with automatic retry logic
for NFS stale file handle errors.

Music libraries are frequently served from network mounts. The helpers here wrap
os.Stat, os.Open, os.ReadDir and whole-file reads with exponential backoff when
the kernel reports ESTALE. Every other error is returned immediately.

# Usage

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

	entries, err := filesystem.ReadDirWithRetry(dir, filesystem.DefaultRetryConfig())

	data, err := filesystem.ReadFileWithRetry(defaultCoverPath, filesystem.DefaultRetryConfig())

# Retry Behavior

Defaults:
  - MaxRetries: 3 attempts
  - InitialBackoff: 50ms
  - MaxBackoff: 500ms

# Metrics

Operations are labeled with a volume name resolved by [VolumeResolver]
(longest-prefix match on absolute paths) and reported to the [Observer]
installed with SetObserver. Without an observer nothing is recorded.
*/
package filesystem
