package main

import (
	"fmt"
	"os"
	"strconv"

	"coverart/internal/cover"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newGetCommand(ctx *commandContext) *cobra.Command {
	var (
		size   int
		output string
	)

	cmd := &cobra.Command{
		Use:   "get <track|release> <id>",
		Short: "Write the cover of a track or release to a file",
		Example: `  coverctl get release 42 --size 300 -o cover.jpg
  coverctl get track 7 -o - > track.jpg`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()

			kind, err := cover.ParseKind(args[0])
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[1])
			}

			grabber, err := ctx.covers(cmd.Context())
			if err != nil {
				return err
			}
			img, source, err := grabber.GetWithSource(cmd.Context(), kind, id, size)
			if err != nil {
				return err
			}

			if output == "-" {
				_, err = cmd.OutOrStdout().Write(img.Data())
				return err
			}
			if output == "" {
				output = fmt.Sprintf("%s-%d-%d.jpg", kind, id, size)
			}
			if err := os.WriteFile(output, img.Data(), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s, source: %s)\n", output, humanize.IBytes(uint64(img.Size())), source)
			return nil
		},
	}

	cmd.Flags().IntVarP(&size, "size", "s", 512, "Cover width in pixels")
	cmd.Flags().StringVarP(&output, "output", "o", "", `Output file, "-" for stdout (default "<kind>-<id>-<size>.jpg")`)

	return cmd
}
