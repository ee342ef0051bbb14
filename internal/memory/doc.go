// Package memory controls the Go runtime's memory use when the cover server
// runs under a container memory limit.
//
// GOMAXPROCS follows cgroup CPU quotas automatically, but GOMEMLIMIT does
// not. [ConfigureFromEnv] derives it from MEMORY_LIMIT, which is usually
// populated through the Kubernetes Downward API:
//
//	env:
//	- name: MEMORY_LIMIT
//	  valueFrom:
//	    resourceFieldRef:
//	      resource: limits.memory
//	- name: MEMORY_RATIO
//	  value: "0.75"  # leave more room for libvips
//
// An explicit GOMEMLIMIT always wins. MEMORY_LIMIT accepts raw bytes or a
// size such as "512MiB".
//
// Use a lower MEMORY_RATIO with COVER_CODEC=vips, since libvips allocates
// outside the Go heap and GOMEMLIMIT cannot see it.
//
// # Backpressure
//
// [Monitor] samples heap usage and pauses batch work (cache warming and
// library indexing) once usage crosses the critical mark, resuming below the
// high-water mark:
//
//	monitor := memory.NewMonitor(memory.DefaultConfig())
//	monitor.Start()
//	defer monitor.Stop()
//
//	if !monitor.WaitIfPaused() {
//	    return // stopped
//	}
package memory
