package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show library statistics, and cache statistics of a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()

			db, err := ctx.database(cmd.Context())
			if err != nil {
				return err
			}

			releases, err := db.ListReleases(cmd.Context())
			if err != nil {
				return err
			}
			tracks, multiDisc := 0, 0
			for _, r := range releases {
				tracks += r.TrackCount
				if r.TotalDiscs > 1 {
					multiDisc++
				}
			}

			warmedAt, err := db.GetLastWarmRun(cmd.Context())
			if err != nil {
				return err
			}
			lastWarm := "never"
			if !warmedAt.IsZero() {
				lastWarm = warmedAt.Local().Format("2006-01-02 15:04:05")
			}

			rows := [][]string{
				{"Releases", strconv.Itoa(len(releases))},
				{"Multi-disc releases", strconv.Itoa(multiDisc)},
				{"Tracks", strconv.Itoa(tracks)},
				{"Last warm run", lastWarm},
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Library", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))

			if server == "" {
				return nil
			}
			stats, err := newRemoteClient(server).stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(out, renderCacheStats(stats))
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Base URL of a running coverartd to read cache statistics from")

	return cmd
}
