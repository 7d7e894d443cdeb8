package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scenewall/internal/overlay"
	"scenewall/internal/scenegraph"
	"scenewall/internal/scenepkg"
	"scenewall/internal/services/spectrum"
)

func newOverlayCommand(ctx *commandContext) *cobra.Command {
	var outDir string
	var apply bool

	cmd := &cobra.Command{
		Use:   "overlay <wallpaper>",
		Short: "Plan the audio-reactive overlay for a wallpaper",
		Long: "Overlay builds the decoupled audio-reactive overlay plan for a " +
			"wallpaper and writes the plan artifacts. With --apply the artifacts " +
			"are also installed into the external visualizer's config directory " +
			"and a reload is signalled.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			root := scenepkg.ResolveRoot(args[0], cfg.Paths.DownloadsRoot)
			container, descriptor, err := scenepkg.OpenScene(root)
			if err != nil {
				return err
			}
			graph, _, err := scenegraph.Build(container, descriptor)
			if err != nil {
				return err
			}

			plan := overlay.BuildPlan(graph)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Overlay for %s: enabled=%s bands=%d color=%s opacity=%.2f\n",
				graph.SceneID, yesNo(plan.Enabled), plan.Bands, plan.Color, plan.Opacity)
			fmt.Fprintln(out, overlay.Advisory)

			dir := outDir
			if dir == "" {
				dir = root
			}
			written, err := overlay.WriteArtifacts(dir, plan)
			if err != nil {
				return err
			}
			for _, path := range written {
				fmt.Fprintf(out, "Wrote %s\n", path)
			}

			if !apply {
				return nil
			}
			consumer := spectrum.NewConsumer(
				spectrumConfigDir(cfg),
				spectrum.WithBinary(cfg.Overlay.SpectrumBin),
			)
			files, err := overlay.ArtifactFiles(plan)
			if err != nil {
				return err
			}
			installed, err := consumer.Install(cmd.Context(), files)
			if err != nil {
				return fmt.Errorf("install overlay: %w", err)
			}
			for _, path := range installed {
				fmt.Fprintf(out, "Installed %s\n", path)
			}
			reloaded, err := consumer.Reload(cmd.Context())
			if err != nil {
				return fmt.Errorf("reload visualizer: %w", err)
			}
			if reloaded {
				fmt.Fprintln(out, "Visualizer reloaded")
			} else {
				fmt.Fprintln(out, "Visualizer not running; config applies on next start")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory for plan artifacts (default: wallpaper root)")
	cmd.Flags().BoolVar(&apply, "apply", false, "Install artifacts into the visualizer config and reload it")
	return cmd
}
