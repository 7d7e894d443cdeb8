package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"scenewall/internal/passgraph"
	"scenewall/internal/scenegraph"
	"scenewall/internal/scenepkg"
)

// inspectReport is the JSON shape of `inspect --json`.
type inspectReport struct {
	SceneID     string   `json:"scene_id"`
	Title       string   `json:"title"`
	Type        string   `json:"type"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	Passes      int      `json:"passes"`
	Supported   int      `json:"supported"`
	Partial     int      `json:"partial"`
	Unsupported int      `json:"unsupported"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "inspect <wallpaper>",
		Short: "Decode a wallpaper and show its compiled render plan",
		Args:  cobra.ExactArgs(1),
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
			graph, diagnostics, err := scenegraph.Build(container, descriptor)
			if err != nil {
				return err
			}
			plan, err := passgraph.Compile(graph)
			if err != nil {
				return err
			}

			supported, partial, unsupported := plan.SupportSummary()
			report := inspectReport{
				SceneID:     graph.SceneID,
				Title:       graph.Title,
				Width:       graph.Width,
				Height:      graph.Height,
				Passes:      len(plan.Passes),
				Supported:   supported,
				Partial:     partial,
				Unsupported: unsupported,
			}
			if descriptor.Project != nil {
				report.Type = string(scenepkg.ParseWallpaperType(descriptor.Project.Type))
			}
			for _, diag := range diagnostics {
				report.Diagnostics = append(report.Diagnostics, diag.Message)
			}

			if jsonOut {
				return writeJSON(cmd, report)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", report.Title, report.SceneID)
			fmt.Fprintf(out, "Type: %s  Scene: %dx%d  Passes: %d\n",
				report.Type, report.Width, report.Height, report.Passes)

			rows := make([][]string, 0, len(plan.Passes))
			for _, pass := range plan.Passes {
				rows = append(rows, []string{
					pass.ID, string(pass.Stage), pass.Layer, string(pass.Support),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Pass", "Stage", "Layer", "Support"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft}))

			fmt.Fprintf(out, "Support: %s supported, %s partial, %s unsupported\n",
				strconv.Itoa(supported), strconv.Itoa(partial), strconv.Itoa(unsupported))
			for _, message := range report.Diagnostics {
				fmt.Fprintf(out, "Note: %s\n", message)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the report as JSON")
	return cmd
}
