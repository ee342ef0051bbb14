package main

import (
	"fmt"
	"strconv"
	"time"

	"coverart/internal/indexer"
	"coverart/internal/media"
	"coverart/internal/memory"

	"github.com/spf13/cobra"
)

func newIndexCommand(ctx *commandContext) *cobra.Command {
	var workerCount int

	cmd := &cobra.Command{
		Use:   "index [dir]",
		Short: "Record the releases and tracks under the media directory",
		Long: `Walk the media directory (or dir) and record every release and track in
the library database. Each directory holding audio files is a release; disc
folders such as "CD1" are folded into their parent. Tracks are probed for
embedded pictures.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			db, err := ctx.database(cmd.Context())
			if err != nil {
				return err
			}

			dir := cfg.MediaDir
			if len(args) == 1 {
				dir = args[0]
			}

			idx := indexer.New(db, dir, media.NewTagPictureSource())
			if workerCount > 0 {
				config := indexer.DefaultConfig()
				config.NumWorkers = workerCount
				idx.SetConfig(config)
			}

			monitor := memory.NewMonitor(memory.DefaultConfig())
			monitor.Start()
			defer monitor.Stop()
			idx.SetThrottle(monitor)

			result, err := idx.Index(cmd.Context())
			if err != nil {
				return err
			}

			rows := [][]string{
				{"Releases", strconv.Itoa(result.Releases)},
				{"Tracks", strconv.Itoa(result.Tracks)},
				{"With embedded cover", strconv.Itoa(result.WithCover)},
				{"Errors", strconv.Itoa(result.Errors)},
				{"Duration", result.Duration.Round(time.Millisecond).String()},
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %s\n", dir)
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Index", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}

	cmd.Flags().IntVarP(&workerCount, "workers", "w", 0, "Concurrent tag probes (default INDEX_WORKERS or two per CPU)")

	return cmd
}
