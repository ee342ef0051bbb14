package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"coverart/internal/cover"
	"coverart/internal/memory"
	"coverart/internal/workers"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

type warmJob struct {
	releaseID int64
	width     int
}

// warmTally counts resolved covers by source.
type warmTally struct {
	mu       sync.Mutex
	bySource map[string]int
	failed   int
}

func (t *warmTally) add(source string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.failed++
		return
	}
	t.bySource[source]++
}

func (t *warmTally) rows() [][]string {
	sources := make([]string, 0, len(t.bySource))
	for s := range t.bySource {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	rows := make([][]string, 0, len(sources)+1)
	for _, s := range sources {
		rows = append(rows, []string{s, strconv.Itoa(t.bySource[s])})
	}
	if t.failed > 0 {
		rows = append(rows, []string{"failed", strconv.Itoa(t.failed)})
	}
	return rows
}

func newWarmCommand(ctx *commandContext) *cobra.Command {
	var (
		sizes       []int
		workerCount int
		server      string
	)

	cmd := &cobra.Command{
		Use:   "warm",
		Short: "Render every release cover at the given sizes",
		Long: `Render every release cover at the given sizes.

With --server the requests go to a running coverartd, filling its cache.
Without it the covers are rendered in-process, which checks that every
release resolves and reports where each cover comes from.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			for _, size := range sizes {
				if size < 1 || size > cover.MaxWidth {
					return fmt.Errorf("invalid size %d (must be 1..%d)", size, cover.MaxWidth)
				}
			}

			db, err := ctx.database(cmd.Context())
			if err != nil {
				return err
			}
			releases, err := db.ListReleases(cmd.Context())
			if err != nil {
				return err
			}

			var (
				resolve    func(context.Context, int64, int) (string, error)
				cacheStats func(context.Context) (cover.Stats, error)
			)
			if server != "" {
				remote := newRemoteClient(server)
				resolve = func(c context.Context, id int64, width int) (string, error) {
					return remote.cover(c, cover.KindRelease, id, width)
				}
				cacheStats = remote.stats
			} else {
				grabber, err := ctx.covers(cmd.Context())
				if err != nil {
					return err
				}
				resolve = func(c context.Context, id int64, width int) (string, error) {
					_, source, err := grabber.GetWithSource(c, cover.KindRelease, id, width)
					return source, err
				}
				cacheStats = func(context.Context) (cover.Stats, error) { return grabber.Stats(), nil }
			}

			jobs := make([]warmJob, 0, len(releases)*len(sizes))
			for _, r := range releases {
				for _, size := range sizes {
					jobs = append(jobs, warmJob{releaseID: r.ID, width: size})
				}
			}

			n := workerCount
			if n == 0 {
				n = cfg.Workers
			}
			if n == 0 {
				n = workers.ForCPU(0)
			}

			monitor := memory.NewMonitor(memory.DefaultConfig())
			monitor.Start()
			defer monitor.Stop()

			tally := &warmTally{bySource: make(map[string]int)}
			start := time.Now()
			err = workers.Run(cmd.Context(), n, jobs, func(c context.Context, job warmJob) {
				if !monitor.WaitIfPaused() {
					return
				}
				tally.add(resolve(c, job.releaseID, job.width))
			})
			if err != nil {
				return err
			}

			if err := db.SetLastWarmRun(cmd.Context(), time.Now()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Warmed %d releases at %d sizes with %d workers in %s\n",
				len(releases), len(sizes), n, time.Since(start).Round(time.Millisecond))
			fmt.Fprintln(out, renderTable([]string{"Source", "Covers"}, tally.rows(), []columnAlignment{alignLeft, alignRight}))

			stats, err := cacheStats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(out, renderCacheStats(stats))
			return nil
		},
	}

	cmd.Flags().IntSliceVarP(&sizes, "sizes", "s", []int{64, 256, 512}, "Cover widths to render")
	cmd.Flags().IntVarP(&workerCount, "workers", "w", 0, "Concurrent renders (default COVER_WORKERS or one per CPU)")
	cmd.Flags().StringVar(&server, "server", "", "Base URL of a running coverartd, e.g. http://localhost:8080")

	return cmd
}

func renderCacheStats(stats cover.Stats) string {
	rows := [][]string{
		{"Entries", strconv.Itoa(stats.Entries)},
		{"Default entries", strconv.Itoa(stats.DefaultEntries)},
		{"Size", humanize.IBytes(uint64(stats.ByteTotal)) + " / " + humanize.IBytes(uint64(stats.MaxBytes))},
		{"Hits", strconv.FormatUint(stats.Hits, 10)},
		{"Misses", strconv.FormatUint(stats.Misses, 10)},
		{"Evictions", strconv.FormatUint(stats.Evictions, 10)},
	}
	return renderTable([]string{"Cache", "Value"}, rows, []columnAlignment{alignLeft, alignRight})
}
