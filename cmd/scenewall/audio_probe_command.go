package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"scenewall/internal/services/pulse"
)

func newAudioProbeCommand(ctx *commandContext) *cobra.Command {
	var source string
	var duration time.Duration
	var windowsPerSecond int

	cmd := &cobra.Command{
		Use:   "audio-probe",
		Short: "Sample desktop audio levels from PulseAudio",
		Long: "Audio-probe captures the default sink monitor (or --source) for a " +
			"short window and prints per-window peak and RMS levels. It never " +
			"touches the video path; use it to verify the overlay's audio feed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			client := pulse.NewCLI(
				pulse.WithPactl(cfg.Tools.Pactl),
				pulse.WithParec(cfg.Tools.Parec),
			)

			probeSource := source
			if probeSource == "" {
				probeSource = cfg.Overlay.AudioSource
			}
			if probeSource == "" {
				probeSource, err = client.DefaultSinkMonitor(cmd.Context())
				if err != nil {
					return fmt.Errorf("resolve default sink monitor: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Capturing %s for %s...\n", probeSource, duration)
			windows, err := client.Capture(cmd.Context(), probeSource, duration, windowsPerSecond)
			if err != nil {
				return fmt.Errorf("capture audio: %w", err)
			}

			rows := make([][]string, 0, len(windows))
			silent := 0
			for i, window := range windows {
				if window.Silent() {
					silent++
				}
				offset := time.Duration(i) * time.Second / time.Duration(windowsPerSecond)
				rows = append(rows, []string{
					offset.Truncate(time.Millisecond).String(),
					fmt.Sprintf("%.3f", window.Peak),
					fmt.Sprintf("%.3f", window.RMS),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Offset", "Peak", "RMS"}, rows,
				[]columnAlignment{alignRight, alignRight, alignRight}))

			if silent == len(windows) {
				fmt.Fprintln(out, "All windows silent; is anything playing?")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "PulseAudio source to capture (default: sink monitor)")
	cmd.Flags().DurationVar(&duration, "duration", 2*time.Second, "Capture length")
	cmd.Flags().IntVar(&windowsPerSecond, "windows", 10, "Analysis windows per second")
	return cmd
}
