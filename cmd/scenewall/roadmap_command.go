package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"scenewall/internal/scanner"
)

func newRoadmapCommand(ctx *commandContext) *cobra.Command {
	var top int
	var refresh bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "roadmap",
		Short: "Rank unsupported effects by wallpapers they block",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if top <= 0 {
				top = cfg.Scanner.TopEffects
			}

			report, err := runScan(ctx, cmd, refresh)
			if err != nil {
				return err
			}
			entries := scanner.BuildRoadmap(report, top)
			if jsonOut {
				return writeJSON(cmd, entries)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No unsupported effects in the library")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					entry.Family,
					strconv.Itoa(entry.Affected),
					fmt.Sprintf("+%.1f%%", entry.EstimatedGain),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Effect Family", "Wallpapers", "Est. Gain"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignRight}))
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", 0, "Limit to the top N families (default from config)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Ignore the cached report and rescan")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the roadmap as JSON")
	return cmd
}
