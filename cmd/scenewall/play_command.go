package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"scenewall/internal/session"
)

func newPlayCommand(ctx *commandContext) *cobra.Command {
	var monitor string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "play <wallpaper>",
		Short: "Play a scene wallpaper on a monitor",
		Long: "Play resolves a wallpaper (directory path or all-digit workshop id), " +
			"prepares its render plan, and keeps the playback process supervised " +
			"until interrupted. With --dry-run the resolved plan is reported and " +
			"nothing spawns.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := ctx.newManager()
			if err != nil {
				return err
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			sess, err := manager.Play(runCtx, session.PlayRequest{
				Wallpaper: args[0],
				Monitor:   monitor,
				DryRun:    dryRun,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if dryRun {
				fmt.Fprintf(out, "Dry run: %s on %s prepared (%d passes, overlay %s)\n",
					sess.Key.SceneID, sess.Key.Monitor,
					len(sess.Prepared.Plan.Passes), yesNo(sess.Prepared.Overlay.Enabled))
				return nil
			}

			fmt.Fprintf(out, "Playing %s on %s via %s transport (session %s)\n",
				sess.Key.SceneID, sess.Key.Monitor, sess.Transport, sess.ID)
			fmt.Fprintln(out, "Press Ctrl+C to stop.")

			err = waitForEnd(runCtx.Done(), sess)
			stopErr := manager.StopAll(cmd.Context())
			if err != nil {
				return err
			}
			return stopErr
		},
	}

	cmd.Flags().StringVarP(&monitor, "monitor", "m", "", "Output monitor name (required)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Prepare and report without starting playback")
	_ = cmd.MarkFlagRequired("monitor")
	return cmd
}

// waitForEnd blocks until the user interrupts or the session ends on its own
// (player exit or crash).
func waitForEnd(interrupt <-chan struct{}, sess *session.Session) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-interrupt:
			return nil
		case <-ticker.C:
			if !sess.State().Terminal() {
				continue
			}
			if err := sess.Err(); err != nil && !errors.Is(err, session.ErrProcessCrashed) {
				return err
			} else if err != nil {
				return fmt.Errorf("playback ended abnormally: %w", err)
			}
			return nil
		}
	}
}
