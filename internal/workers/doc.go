/*
Package workers sizes and runs small worker pools.

Worker counts are derived from GOMAXPROCS rather than runtime.NumCPU, so they
respect container CPU limits (Go 1.19+ sets GOMAXPROCS from the cgroup quota):

	workers.ForCPU(8)   // 1 per CPU, at most 8 (image transcoding)
	workers.ForIO(16)   // 2 per CPU, at most 16 (tag probing, file reads)
	workers.ForMixed(8) // 1.5 per CPU

The COVER_WORKERS environment variable overrides the calculation; the limit
still applies.

[Run] fans a slice of items out to n goroutines:

	err := workers.Run(ctx, workers.ForCPU(8), releases, func(ctx context.Context, r database.Release) {
		...
	})
*/
package workers
