package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"scenewall/internal/scanner"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var refresh bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Grade every wallpaper in the downloads library",
		Long: "Scan decodes and compiles every wallpaper under the downloads root " +
			"and reports per-scene compatibility. Results are cached; --refresh " +
			"forces a rescan.",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := runScan(ctx, cmd, refresh)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, report)
			}

			out := cmd.OutOrStdout()
			if report.TotalScenes == 0 {
				fmt.Fprintln(out, "No wallpapers found")
				return nil
			}

			rows := make([][]string, 0, len(report.Scenes))
			for _, scene := range report.Scenes {
				status := fmt.Sprintf("%.0f%%", scene.Percent)
				if scene.Err != "" {
					status = "error"
				}
				rows = append(rows, []string{
					scene.SceneID, scene.Title, scene.Type, status, string(scene.Tier),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Scene", "Title", "Type", "Score", "Tier"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft}))

			fmt.Fprintf(out, "%s wallpapers, %s failed, library score %.1f%%\n",
				strconv.Itoa(report.TotalScenes), strconv.Itoa(report.Failed),
				report.AggregatePercent())
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Ignore the cached report and rescan")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the report as JSON")
	return cmd
}

// runScan executes a library scan backed by the on-disk report cache.
func runScan(ctx *commandContext, cmd *cobra.Command, refresh bool) (*scanner.Report, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return nil, err
	}
	store, err := scanner.OpenStore(cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	return scanner.New(*cfg, store, logger).Scan(cmd.Context(), refresh)
}
