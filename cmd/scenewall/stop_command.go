package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"scenewall/internal/services/mpvpaper"
)

func newStopCommand(ctx *commandContext) *cobra.Command {
	var monitor string

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop running wallpaper playback processes",
		Long: "Stop discovers running playback processes for the configured player " +
			"binary and terminates them. --monitor restricts the sweep to one output.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			strays, err := mpvpaper.FindStrays(cmd.Context(), cfg.Playback.Binary)
			if err != nil {
				return fmt.Errorf("discover playback processes: %w", err)
			}

			out := cmd.OutOrStdout()
			var rows [][]string
			for _, stray := range strays {
				if monitor != "" && stray.Monitor != monitor {
					continue
				}
				result := "stopped"
				if err := unix.Kill(int(stray.PID), unix.SIGTERM); err != nil {
					result = err.Error()
				}
				rows = append(rows, []string{strconv.Itoa(int(stray.PID)), stray.Monitor, result})
			}
			if len(rows) == 0 {
				fmt.Fprintln(out, "No playback processes found")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"PID", "Monitor", "Result"}, rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft}))
			return nil
		},
	}

	cmd.Flags().StringVarP(&monitor, "monitor", "m", "", "Only stop playback on this monitor")
	return cmd
}
