package main

import (
	"fmt"
	"strconv"

	"coverart/internal/cover"

	"github.com/spf13/cobra"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var prefer []string

	cmd := &cobra.Command{
		Use:   "scan <dir>",
		Short: "List the cover image candidates of a directory in preference order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			scanner := cover.NewScanner(cfg.Cover.PreferredNames, cfg.Cover.MaxFileSize)
			candidates := scanner.Scan(args[0], prefer...)
			if len(candidates) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No cover candidates in %s\n", args[0])
				return nil
			}

			rows := make([][]string, 0, len(candidates))
			for i, c := range candidates {
				rows = append(rows, []string{strconv.Itoa(i + 1), c.Name, strconv.Itoa(c.Rank)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"#", "File", "Rank"}, rows, []columnAlignment{alignRight, alignLeft, alignRight}))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&prefer, "prefer", nil, "Extra file stems ranked ahead of COVER_PREFERRED_NAMES")

	return cmd
}
